package otel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "expenditure-workflow/internal/audit/domain"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &auditdomain.Record{ID: "rec-1"}); err != nil {
		t.Errorf("noop Emit(ctx, record): %v", err)
	}
}

func TestEmit_NilRecord_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	record := &auditdomain.Record{
		ID:           "rec-1",
		Action:       auditdomain.ActionUpdate,
		ResourceKind: "expenditure_request",
		ResourceID:   "req-1",
		Before:       json.RawMessage(`{"status":"draft"}`),
		After:        json.RawMessage(`{"status":"submitted"}`),
		ActorID:      "opal",
		CreatedAt:    now,
	}
	if err := em.Emit(context.Background(), record); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if rec.Timestamp().Unix() != now.Unix() {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), now)
	}

	if rec.Body().Empty() {
		t.Error("body should carry the serialized record")
	}
	var decoded auditdomain.Record
	if err := json.Unmarshal(rec.Body().AsBytes(), &decoded); err != nil {
		t.Fatalf("body is not valid record JSON: %v", err)
	}
	if decoded.ID != "rec-1" || decoded.Action != auditdomain.ActionUpdate {
		t.Errorf("decoded body = %+v", decoded)
	}

	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	want := map[string]string{
		"record_id":     "rec-1",
		"action":        "update",
		"resource_kind": "expenditure_request",
		"resource_id":   "req-1",
		"actor_id":      "opal",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	record := &auditdomain.Record{
		ID:     "rec-1",
		Action: auditdomain.ActionCreate,
	}
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), record); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()

	ts := cap.rec.Timestamp()
	if ts.Before(before.Add(-time.Second)) || ts.After(after.Add(time.Second)) {
		t.Errorf("timestamp = %v, want within [%v, %v]", ts, before, after)
	}
}

func TestEmit_EmptyFields_NoAttributes(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), &auditdomain.Record{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	count := 0
	cap.rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		count++
		return true
	})
	if count != 0 {
		t.Errorf("attribute count = %d, want 0 for empty record", count)
	}
}
