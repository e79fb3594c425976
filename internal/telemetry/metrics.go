package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counters for workflow activity, registered on the global MeterProvider.
// Until the host sets a real provider these are no-ops.
type workflowMetrics struct {
	transitions   metric.Int64Counter
	rejections    metric.Int64Counter
	notifications metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsInst workflowMetrics
)

func getMetrics() workflowMetrics {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("expenditure-workflow")

		metricsInst.transitions, _ = meter.Int64Counter(
			"workflow.transitions.applied",
			metric.WithDescription("Status transitions applied and persisted"),
			metric.WithUnit("{transition}"),
		)
		metricsInst.rejections, _ = meter.Int64Counter(
			"workflow.transitions.rejected",
			metric.WithDescription("Status transitions rejected by a guard"),
			metric.WithUnit("{transition}"),
		)
		metricsInst.notifications, _ = meter.Int64Counter(
			"workflow.notifications.routed",
			metric.WithDescription("Notification records produced per routed event"),
			metric.WithUnit("{record}"),
		)
	})
	return metricsInst
}

// CountTransition records an applied transition for the given document kind and
// resulting status.
func CountTransition(ctx context.Context, kind, resulting string) {
	m := getMetrics()
	if m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("document_kind", kind),
			attribute.String("resulting_status", resulting),
		))
}

// CountRejection records a guard rejection by kind.
func CountRejection(ctx context.Context, kind, rejection string) {
	m := getMetrics()
	if m.rejections == nil {
		return
	}
	m.rejections.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("document_kind", kind),
			attribute.String("rejection", rejection),
		))
}

// CountNotifications records how many notification records one routed event
// produced.
func CountNotifications(ctx context.Context, kind string, count int) {
	m := getMetrics()
	if m.notifications == nil || count <= 0 {
		return
	}
	m.notifications.Add(ctx, int64(count),
		metric.WithAttributes(attribute.String("document_kind", kind)))
}
