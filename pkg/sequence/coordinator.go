package sequence

import (
	"context"
	"time"

	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/stats"
)

// Coordinator owns a list of sources, the active ordering, and the
// pagination window, and drives the merge across them. It is the
// QuerySequence of this library: ordering requests are propagated to every
// source first, then the same ordering drives merge-time comparison.
//
// A coordinator is not safe for concurrent use. Callers that need one per
// consumer clone it; Clone is the isolation mechanism, not locking.
type Coordinator[T any] struct {
	sources   []Source[T]
	accessors order.Accessors[T]
	spec      order.Spec
	window    Window

	stats   *stats.Collector
	metrics Metrics
}

// NewCoordinator creates a coordinator over the given sources with an empty
// ordering and the default (0, unbounded) window. The accessor table maps
// field names to extraction functions and is treated as immutable.
func NewCoordinator[T any](accessors order.Accessors[T], sources ...Source[T]) *Coordinator[T] {
	return &Coordinator[T]{
		sources:   sources,
		accessors: accessors,
		metrics:   NewNoopMetrics(),
	}
}

// SetStats attaches an operation counter collector. Pass nil to detach.
func (c *Coordinator[T]) SetStats(col *stats.Collector) { c.stats = col }

// SetMetrics attaches a telemetry recorder. Pass nil to restore the no-op.
func (c *Coordinator[T]) SetMetrics(m Metrics) {
	if m == nil {
		m = NewNoopMetrics()
	}
	c.metrics = m
}

// OrderSpec returns a copy of the active ordering.
func (c *Coordinator[T]) OrderSpec() order.Spec { return c.spec.Clone() }

// Window returns a copy of the active pagination window.
func (c *Coordinator[T]) Window() Window { return c.window.Clone() }

// Sources returns a copy of the source list. The sources themselves are
// shared; use Clone for full isolation.
func (c *Coordinator[T]) Sources() []Source[T] {
	out := make([]Source[T], len(c.sources))
	copy(out, c.sources)
	return out
}

// Accessors returns the coordinator's accessor table.
func (c *Coordinator[T]) Accessors() order.Accessors[T] { return c.accessors }

// WithSources returns a new coordinator over the given sources, carrying
// over the ordering, window, accessor table and instrumentation. It is the
// rebuild primitive the simplification policy and the filtering collaborator
// use after per-source transformations.
func (c *Coordinator[T]) WithSources(sources []Source[T]) *Coordinator[T] {
	return &Coordinator[T]{
		sources:   sources,
		accessors: c.accessors,
		spec:      c.spec.Clone(),
		window:    c.window.Clone(),
		stats:     c.stats,
		metrics:   c.metrics,
	}
}

// Clone returns an independent coordinator: every source is cloned through
// its own Clone capability, and the ordering and window are copied. Mutating
// either coordinator afterwards does not affect the other. Any source clone
// failure fails the whole call.
func (c *Coordinator[T]) Clone() (*Coordinator[T], error) {
	cloned := make([]Source[T], len(c.sources))
	for i, s := range c.sources {
		cs, err := s.Clone()
		if err != nil {
			return nil, c.fail(stats.OpClone, &SourceError{Op: "clone", Index: i, Err: err})
		}
		cloned[i] = cs
	}
	c.track(stats.OpClone, nil)
	return &Coordinator[T]{
		sources:   cloned,
		accessors: c.accessors,
		spec:      c.spec.Clone(),
		window:    c.window.Clone(),
		stats:     c.stats,
		metrics:   c.metrics,
	}, nil
}

// Count returns the sum of every source's reported count. Nothing is
// cached; each call recomputes. A failing source fails the whole call with
// no partial sum.
func (c *Coordinator[T]) Count() (int, error) {
	total := 0
	for i, s := range c.sources {
		n, err := s.Count()
		if err != nil {
			return 0, c.fail(stats.OpCount, &SourceError{Op: "count", Index: i, Err: err})
		}
		total += n
	}
	c.track(stats.OpCount, nil)
	return total, nil
}

// AddOrdering propagates the ordering to every source and appends it to the
// coordinator's spec for merge-time comparison. The propagation is atomic:
// sources are reordered into a snapshot and the coordinator commits only if
// all of them succeed, so a failure leaves it untouched and the error names
// the failing source.
//
// An empty token list reorders nothing and leaves the spec unchanged.
func (c *Coordinator[T]) AddOrdering(tokens ...string) error {
	spec, err := order.Parse(tokens...)
	if err != nil {
		return c.fail(stats.OpOrder, err)
	}
	if spec.IsEmpty() {
		return nil
	}

	reordered := make([]Source[T], len(c.sources))
	for i, s := range c.sources {
		ns, err := s.OrderBy(spec)
		if err != nil {
			return c.fail(stats.OpOrder, &SourceError{Op: "order_by", Index: i, Err: err})
		}
		reordered[i] = ns
	}

	c.sources = reordered
	c.spec = c.spec.Extend(spec)
	c.track(stats.OpOrder, nil)
	return nil
}

// ClearOrdering resets the merge-level ordering to empty. Sources are not
// asked to revert: they stay individually ordered by whatever was last
// requested, so a following iteration concatenates them in that per-source
// order.
func (c *Coordinator[T]) ClearOrdering() {
	c.spec = nil
	c.track(stats.OpOrder, nil)
}

// SetLimits narrows the pagination window relative to its current value;
// see Window.SetLimits for the clamping rules. Repeated calls only ever
// shrink the window.
func (c *Coordinator[T]) SetLimits(low, high *int) {
	c.window.SetLimits(low, high)
	c.track(stats.OpLimit, nil)
}

// ClearLimits resets the window to (0, unbounded).
func (c *Coordinator[T]) ClearLimits() {
	c.window.Clear()
	c.track(stats.OpLimit, nil)
}

// CanFilter reports whether filtering-type operations are still allowed:
// true only while the window is exactly (0, unbounded). The core only
// exposes the predicate; the caller-facing layer enforces it.
func (c *Coordinator[T]) CanFilter() bool { return c.window.IsDefault() }

// Iterate builds one merged, windowed pass over the sources. The composite
// comparator is resolved from the current spec once, already-empty sources
// are dropped before the merge, and the window is applied on top of the
// merged stream.
//
// The pass is only repeatable if the underlying sources are independently
// restartable; the coordinator itself holds no iteration state.
func (c *Coordinator[T]) Iterate() (Iterator[T], error) {
	var cmp *order.Comparator[T]
	if !c.spec.IsEmpty() {
		var err error
		cmp, err = order.NewComparator(c.spec, c.accessors)
		if err != nil {
			return nil, c.fail(stats.OpIterate, err)
		}
	}

	iters := make([]Iterator[T], 0, len(c.sources))
	for i, s := range c.sources {
		empty, err := s.IsEmpty()
		if err != nil {
			return nil, c.fail(stats.OpIterate, &SourceError{Op: "is_empty", Index: i, Err: err})
		}
		if empty {
			continue
		}
		it, err := s.Iterate()
		if err != nil {
			return nil, c.fail(stats.OpIterate, &SourceError{Op: "iterate", Index: i, Err: err})
		}
		iters = append(iters, it)
	}

	c.track(stats.OpIterate, nil)
	c.metrics.RecordIterate(context.Background(), len(iters), cmp != nil)

	merged := NewMergeIterator(cmp, iters)
	windowed := applyWindow(c.window, merged)
	return &trackingIterator[T]{it: windowed, coord: c, start: time.Now()}, nil
}

func (c *Coordinator[T]) track(op stats.OperationType, err error) {
	if c.stats != nil {
		c.stats.TrackOperation(op)
		if err != nil {
			c.stats.TrackError(string(op))
		}
	}
	c.metrics.RecordOperation(context.Background(), string(op), err)
}

func (c *Coordinator[T]) fail(op stats.OperationType, err error) error {
	c.track(op, err)
	return err
}

// trackingIterator counts emitted elements and reports the pass outcome
// once the stream is exhausted or fails. A consumer that stops pulling early
// simply never reports, which is consistent with there being no cancellation
// beyond "stop pulling".
type trackingIterator[T any] struct {
	it       Iterator[T]
	coord    *Coordinator[T]
	start    time.Time
	emitted  int64
	reported bool
}

func (t *trackingIterator[T]) Next() bool {
	if t.it.Next() {
		t.emitted++
		if t.coord.stats != nil {
			t.coord.stats.TrackOperation(stats.OpEmit)
		}
		return true
	}
	if !t.reported {
		t.reported = true
		t.coord.metrics.RecordPass(context.Background(), t.emitted, time.Since(t.start), t.it.Err() != nil)
	}
	return false
}

func (t *trackingIterator[T]) Value() T   { return t.it.Value() }
func (t *trackingIterator[T]) Err() error { return t.it.Err() }
