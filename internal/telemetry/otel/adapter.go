package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "expenditure-workflow/internal/audit/domain"
	"expenditure-workflow/internal/telemetry"
)

// recordLogger is the slice of otellog.Logger the adapter needs; a test seam.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends audit events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op
// emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("expenditure-workflow.audit")}
}

// NewEventEmitterWithLogger returns an EventEmitter over a raw logger.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *auditdomain.Record) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the audit record to an OTel log record and emits it.
// Best-effort; errors are logged by the caller.
func (e *otelEmitter) Emit(ctx context.Context, record *auditdomain.Record) error {
	if record == nil {
		return nil
	}
	rec := otellog.Record{}
	if !record.CreatedAt.IsZero() {
		rec.SetTimestamp(record.CreatedAt)
	}
	if payload, err := json.Marshal(record); err == nil {
		rec.SetBody(otellog.BytesValue(payload))
	}
	if record.ID != "" {
		rec.AddAttributes(otellog.String("record_id", record.ID))
	}
	if record.Action != "" {
		rec.AddAttributes(otellog.String("action", string(record.Action)))
	}
	if record.ResourceKind != "" {
		rec.AddAttributes(otellog.String("resource_kind", record.ResourceKind))
	}
	if record.ResourceID != "" {
		rec.AddAttributes(otellog.String("resource_id", record.ResourceID))
	}
	if record.ActorID != "" {
		rec.AddAttributes(otellog.String("actor_id", record.ActorID))
	}
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	e.logger.Emit(ctx, rec)
	return nil
}
