// Package mail sends notification emails via an HTTP mail relay API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"expenditure-workflow/internal/notify"
)

const defaultTimeout = 15 * time.Second

// Client sends mail through a transactional mail relay's JSON API.
type Client struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewClient returns a client posting to the given relay base URL with the
// given sender address.
func NewClient(apiKey, baseURL, from string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Name implements notify.Channel.
func (c *Client) Name() string { return "mail" }

// Send delivers the message to the given email address.
func (c *Client) Send(ctx context.Context, email string, msg notify.Message) error {
	if c.APIKey == "" || c.BaseURL == "" {
		return fmt.Errorf("mail: relay not configured")
	}
	body := map[string]any{
		"from":    c.From,
		"to":      email,
		"subject": msg.Subject,
		"text":    msg.Body,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
