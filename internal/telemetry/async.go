package telemetry

import (
	"context"
	"log"
	"time"

	auditdomain "expenditure-workflow/internal/audit/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long the host application should wait before
// shutting down OTel providers, so in-flight async emits have time to complete.
// Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not
// blocked. Use for fire-and-forget, best-effort event streaming; errors are logged.
//
// emitter and record may be nil; EmitAsync returns immediately without starting
// a goroutine. The goroutine uses context.Background() with emitTimeout so
// caller cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, ctx context.Context, record *auditdomain.Record) {
	if emitter == nil || record == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, record); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
