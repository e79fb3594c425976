// Package loki provides a client to push audit log entries to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// PushRequest is the body of Loki's /loki/api/v1/push endpoint.
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream carries one label set and its log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // pairs of [timestamp_ns, line]
}

// labelSanitize strips characters Loki does not accept in label names. Label
// names must match [a-zA-Z_:][a-zA-Z0-9_:]*.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// recordFields parses only the fields used for labels and timestamp from an
// audit record JSON.
type recordFields struct {
	Action       string `json:"action"`
	ResourceKind string `json:"resourceKind"`
	ActorID      string `json:"actorId"`
	CreatedAt    string `json:"createdAt"`
}

// PushRecordJSON parses the audit record JSON (Kafka message value), extracts
// timestamp and labels, and pushes to Loki. If parsing fails, the raw line is
// pushed with current time and no extra labels.
func PushRecordJSON(ctx context.Context, baseURL string, rawJSON []byte) error {
	line := string(rawJSON)
	labels := map[string]string{}
	ts := time.Now().UTC()
	var fields recordFields
	if err := json.Unmarshal(rawJSON, &fields); err == nil {
		if fields.Action != "" {
			labels["action"] = fields.Action
		}
		if fields.ResourceKind != "" {
			labels["resource_kind"] = fields.ResourceKind
		}
		if fields.ActorID != "" {
			labels["actor_id"] = fields.ActorID
		}
		if fields.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, fields.CreatedAt); err == nil {
				ts = t
			} else if t, err := time.Parse(time.RFC3339, fields.CreatedAt); err == nil {
				ts = t
			}
		}
	}
	return PushEntry(ctx, baseURL, ts, line, labels)
}

// PushEntry sends one line to Loki at baseURL (e.g. http://localhost:3100)
// under the given stream labels. A non-2xx response is an error.
func PushEntry(ctx context.Context, baseURL string, timestamp time.Time, line string, labels map[string]string) error {
	if baseURL == "" {
		return fmt.Errorf("loki: base URL is empty")
	}
	ns := timestamp.UnixNano()
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = "expenditure-workflow"
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	body := PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{fmt.Sprintf("%d", ns), line}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
