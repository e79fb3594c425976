// Package sms sends notification texts via an HTTP SMS gateway.
package sms

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

// Client sends SMS via a bulk SMS gateway API.
type Client struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewClient returns a client that uses the given API key and optional base
// URL/sender.
func NewClient(apiKey, baseURL, sender string) *Client {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Name implements notify.Channel.
func (c *Client) Name() string { return "sms" }

// Send delivers the message body to the given phone number. phone should be
// digits only (country code + number).
func (c *Client) Send(ctx context.Context, phone string, msg notify.Message) error {
	if c.APIKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}
	body := map[string]any{
		"route":   "q",
		"numbers": phone,
		"message": msg.Body,
	}
	if c.Sender != "" {
		body["sender_id"] = c.Sender
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
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
