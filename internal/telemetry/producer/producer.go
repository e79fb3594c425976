// Package producer streams audit events to Kafka for downstream consumers
// (the log-shipping worker, reporting). Emission is best-effort; callers log
// and ignore errors.
package producer

import (
	"context"

	auditdomain "expenditure-workflow/internal/audit/domain"
)

// Producer emits audit events to a broker. Callers use it best-effort.
type Producer interface {
	// Emit sends a single audit event. Implementations may block briefly; call
	// from a goroutine if needed. Returns an error only on write failure;
	// callers typically log and ignore.
	Emit(ctx context.Context, record *auditdomain.Record) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
