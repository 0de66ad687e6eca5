package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Errorf("Disabled config should validate, got %v", err)
	}
	if err := (Config{Enabled: true}).Validate(); err == nil {
		t.Error("Enabled config without service name should fail validation")
	}
	if err := (Config{Enabled: true, ServiceName: "seqmux"}).Validate(); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	tel, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := tel.(*NoopTelemetry); !ok {
		t.Errorf("Expected NoopTelemetry, got %T", tel)
	}
}

func TestNewEnabled(t *testing.T) {
	tel, err := New(Config{Enabled: true, ServiceName: "seqmux-test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	// With no providers installed these land in the otel globals' no-op
	// implementations; the point is that recording never panics or errors.
	tel.RecordCounter(ctx, "test.counter", 1)
	tel.RecordHistogram(ctx, "test.histogram", 0.5)
	_, span := tel.StartSpan(ctx, "test.span")
	span.End()

	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNoopTelemetry(t *testing.T) {
	tel := NewNoop()
	ctx := context.Background()
	tel.RecordCounter(ctx, "c", 1)
	tel.RecordHistogram(ctx, "h", 1.0)
	spanCtx, span := tel.StartSpan(ctx, "s")
	if spanCtx != ctx {
		t.Error("Noop StartSpan should pass the context through")
	}
	span.End()
	RecordDuration(ctx, tel, "d", time.Now())
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
