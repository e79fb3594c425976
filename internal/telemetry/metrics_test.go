package telemetry

import (
	"context"
	"testing"
)

func TestCounters_RegisterOnDefaultProvider(t *testing.T) {
	m := getMetrics()
	if m.transitions == nil || m.rejections == nil || m.notifications == nil {
		t.Fatal("expected all counters to be registered")
	}
}

func TestCounters_SafeWithoutConfiguredProvider(t *testing.T) {
	ctx := context.Background()
	CountTransition(ctx, "expenditure_request", "submitted")
	CountRejection(ctx, "payment_order", "role_mismatch")
	CountNotifications(ctx, "payment_order", 3)
	CountNotifications(ctx, "payment_order", 0)
}
