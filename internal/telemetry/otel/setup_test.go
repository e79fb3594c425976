package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "expenditure-workflow", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Fatalf("providers = %+v, want all non-nil", providers)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("shutdown of no-op providers: %v", err)
	}
}

func TestNewProviders_WhitespaceEndpointIsNoop(t *testing.T) {
	providers, err := NewProviders(context.Background(), "   ", "expenditure-workflow", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers == nil {
		t.Fatal("providers should not be nil")
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "expenditure-workflow", false); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "expenditure-workflow", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	oldTracerProvider := otel.GetTracerProvider()
	oldMeterProvider := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracerProvider)
		otel.SetMeterProvider(oldMeterProvider)
	}()

	providers.SetGlobal()

	if otel.GetTracerProvider() == oldTracerProvider {
		t.Error("TracerProvider should be replaced")
	}
	if otel.GetMeterProvider() == oldMeterProvider {
		t.Error("MeterProvider should be replaced")
	}
}

func TestSetGlobal_NilProvidersDoNotPanic(t *testing.T) {
	providers := &Providers{Shutdown: func(context.Context) error { return nil }}
	providers.SetGlobal()
}

func TestProviders_ShutdownIsIdempotent(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "expenditure-workflow", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("first shutdown: %v", err)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
