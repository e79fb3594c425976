// Package telemetry fans audit events out to operational sinks (Kafka, OTel
// logs). Emission is always best-effort; the audit repository remains the
// system of record.
package telemetry

import (
	"context"

	auditdomain "expenditure-workflow/internal/audit/domain"
)

// EventEmitter emits audit events (e.g. to Kafka or OTel Logs). Callers use it
// best-effort: log and ignore errors.
type EventEmitter interface {
	// Emit sends a single audit event. Implementations may block briefly; call
	// from a goroutine if needed. Returns an error only on write failure.
	Emit(ctx context.Context, record *auditdomain.Record) error
}
