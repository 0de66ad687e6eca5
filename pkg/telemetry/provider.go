package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config controls telemetry creation.
type Config struct {
	// Enabled turns recording on. When false, New returns the no-op
	// implementation.
	Enabled bool

	// ServiceName is the instrumentation scope name registered with the
	// global OpenTelemetry providers.
	ServiceName string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Enabled && c.ServiceName == "" {
		return fmt.Errorf("telemetry: service name required when enabled")
	}
	return nil
}

// New creates a Telemetry backed by the application's global OpenTelemetry
// meter and tracer providers. The library does not install providers itself;
// the embedding application owns their lifecycle, which is why Shutdown is a
// no-op here.
func New(cfg Config) (Telemetry, error) {
	if !cfg.Enabled {
		return NewNoop(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &otelTelemetry{
		meter:      otel.Meter(cfg.ServiceName),
		tracer:     otel.Tracer(cfg.ServiceName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}, nil
}

type otelTelemetry struct {
	meter  metric.Meter
	tracer trace.Tracer

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

func (t *otelTelemetry) RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	ctr, ok := t.counters[name]
	if !ok {
		var err error
		ctr, err = t.meter.Int64Counter(name)
		if err != nil {
			t.mu.Unlock()
			return
		}
		t.counters[name] = ctr
	}
	t.mu.Unlock()

	ctr.Add(ctx, value, metric.WithAttributes(attrs...))
}

func (t *otelTelemetry) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	h, ok := t.histograms[name]
	if !ok {
		var err error
		h, err = t.meter.Float64Histogram(name)
		if err != nil {
			t.mu.Unlock()
			return
		}
		t.histograms[name] = h
	}
	t.mu.Unlock()

	h.Record(ctx, value, metric.WithAttributes(attrs...))
}

func (t *otelTelemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (t *otelTelemetry) Shutdown(ctx context.Context) error { return nil }
