package sequence

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/seqmux/seqmux/pkg/telemetry"
)

// Metrics is the telemetry surface for coordinator and merge operations.
// All methods are optional; implementations can safely be no-op.
type Metrics interface {
	// RecordIterate records one iteration pass being constructed and how
	// many non-empty sources entered the merge.
	RecordIterate(ctx context.Context, sourceCount int, ordered bool)

	// RecordPass records a completed (or abandoned) iteration pass: how
	// many elements were emitted and how long the consumer held it.
	RecordPass(ctx context.Context, emitted int64, elapsed time.Duration, failed bool)

	// RecordOperation records a named coordinator operation outcome.
	RecordOperation(ctx context.Context, op string, err error)

	// Close releases any resources held by the implementation.
	Close() error
}

// NewMetrics creates a Metrics recording through tel. A nil tel yields a
// no-op implementation.
func NewMetrics(tel telemetry.Telemetry) Metrics {
	if tel == nil {
		return &noopMetrics{}
	}
	return &telemetryMetrics{tel: tel}
}

// NewNoopMetrics creates a no-op Metrics, the default for coordinators.
func NewNoopMetrics() Metrics { return &noopMetrics{} }

type telemetryMetrics struct {
	tel telemetry.Telemetry
}

func (m *telemetryMetrics) RecordIterate(ctx context.Context, sourceCount int, ordered bool) {
	m.tel.RecordCounter(ctx, "seqmux.merge.passes.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentMerge),
		attribute.Bool("ordered", ordered),
	)
	m.tel.RecordHistogram(ctx, "seqmux.merge.source_count", float64(sourceCount),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentMerge),
	)
}

func (m *telemetryMetrics) RecordPass(ctx context.Context, emitted int64, elapsed time.Duration, failed bool) {
	status := telemetry.StatusSuccess
	if failed {
		status = telemetry.StatusError
	}
	m.tel.RecordCounter(ctx, "seqmux.merge.emitted.total", emitted,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentMerge),
		attribute.String(telemetry.AttrStatus, status),
	)
	m.tel.RecordHistogram(ctx, "seqmux.merge.pass.duration", elapsed.Seconds(),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentMerge),
		attribute.String(telemetry.AttrStatus, status),
	)
}

func (m *telemetryMetrics) RecordOperation(ctx context.Context, op string, err error) {
	status := telemetry.StatusSuccess
	if err != nil {
		status = telemetry.StatusError
	}
	m.tel.RecordCounter(ctx, "seqmux.coordinator.operations.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentCoordinator),
		attribute.String(telemetry.AttrOperationType, op),
		attribute.String(telemetry.AttrStatus, status),
	)
}

func (m *telemetryMetrics) Close() error { return nil }

type noopMetrics struct{}

func (n *noopMetrics) RecordIterate(ctx context.Context, sourceCount int, ordered bool) {}

func (n *noopMetrics) RecordPass(ctx context.Context, emitted int64, elapsed time.Duration, failed bool) {
}

func (n *noopMetrics) RecordOperation(ctx context.Context, op string, err error) {}

func (n *noopMetrics) Close() error { return nil }
