// Package telemetry is a thin abstraction over OpenTelemetry. Components
// record metrics and spans through the Telemetry interface without depending
// on OpenTelemetry directly, and tests or disabled deployments swap in the
// no-op implementation.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the recording surface handed to components.
type Telemetry interface {
	// RecordHistogram records a histogram value with optional attributes.
	RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue)

	// RecordCounter records a counter increment with optional attributes.
	RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue)

	// StartSpan creates a new tracing span with the given name and attributes.
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)

	// Shutdown flushes and releases provider resources.
	Shutdown(ctx context.Context) error
}

// NoopTelemetry discards everything. It is the default for library users
// that never configure telemetry.
type NoopTelemetry struct{}

// NewNoop creates a no-operation telemetry instance.
func NewNoop() Telemetry { return &NoopTelemetry{} }

func (n *NoopTelemetry) RecordHistogram(ctx context.Context, name string, value float64, attrs ...attribute.KeyValue) {
}

func (n *NoopTelemetry) RecordCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) {
}

func (n *NoopTelemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (n *NoopTelemetry) Shutdown(ctx context.Context) error { return nil }

// RecordDuration records an operation's elapsed time in a histogram.
func RecordDuration(ctx context.Context, tel Telemetry, name string, start time.Time, attrs ...attribute.KeyValue) {
	tel.RecordHistogram(ctx, name, time.Since(start).Seconds(), attrs...)
}

// Attribute keys shared across components for consistent naming.
const (
	AttrComponent     = "component"
	AttrOperationType = "operation.type"
	AttrStatus        = "status"
	AttrSourceCount   = "source.count"
)

// Attribute values.
const (
	ComponentMerge       = "merge"
	ComponentCoordinator = "coordinator"
	ComponentRemote      = "remote"

	OpTypeIterate = "iterate"
	OpTypeCount   = "count"
	OpTypeOrder   = "order"
	OpTypeClone   = "clone"
	OpTypeFilter  = "filter"

	StatusSuccess = "success"
	StatusError   = "error"
)
