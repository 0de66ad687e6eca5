// Package facade layers a query-set style surface over the sequence
// coordinator: chainable ordering and slicing that return new sets, filter
// and exclude operations gated by the slice state, and loud failures for the
// query-object operations this library deliberately does not implement.
package facade

import (
	"fmt"

	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/sequence"
)

// Set wraps a coordinator behind an immutable-style API: mutating operations
// clone first and return a new Set, so a Set can be shared and branched the
// way query objects usually are.
type Set[T any] struct {
	coord *sequence.Coordinator[T]
}

// New builds a Set over the given sources.
func New[T any](accessors order.Accessors[T], sources ...sequence.Source[T]) *Set[T] {
	return &Set[T]{coord: sequence.NewCoordinator(accessors, sources...)}
}

// FromCoordinator wraps an existing coordinator. The Set takes ownership:
// callers must not keep mutating the coordinator directly.
func FromCoordinator[T any](coord *sequence.Coordinator[T]) *Set[T] {
	return &Set[T]{coord: coord}
}

// Coordinator exposes the underlying coordinator, mainly for composition
// with the lower-level API.
func (s *Set[T]) Coordinator() *sequence.Coordinator[T] { return s.coord }

// OrderBy returns a new Set ordered by the given field tokens (leading '-'
// for descending). The ordering is propagated to every source and appended
// to the merge ordering.
func (s *Set[T]) OrderBy(tokens ...string) (*Set[T], error) {
	clone, err := s.coord.Clone()
	if err != nil {
		return nil, err
	}
	if err := clone.AddOrdering(tokens...); err != nil {
		return nil, err
	}
	return &Set[T]{coord: clone}, nil
}

// Slice returns a new Set windowed to [low, high) of the merged sequence,
// counted relative to the current window.
func (s *Set[T]) Slice(low, high int) (*Set[T], error) {
	if low < 0 || high < low {
		return nil, fmt.Errorf("invalid slice [%d:%d]", low, high)
	}
	clone, err := s.coord.Clone()
	if err != nil {
		return nil, err
	}
	clone.SetLimits(&low, &high)
	return &Set[T]{coord: clone}, nil
}

// Filter keeps the elements matching pred. See FilterOrExclude.
func (s *Set[T]) Filter(pred func(T) bool) (sequence.Reduced[T], error) {
	return s.FilterOrExclude(false, pred)
}

// Exclude drops the elements matching pred. See FilterOrExclude.
func (s *Set[T]) Exclude(pred func(T) bool) (sequence.Reduced[T], error) {
	return s.FilterOrExclude(true, pred)
}

// FilterOrExclude applies the predicate to every source of a clone and
// simplifies the outcome: an empty marker, a bare source, or a Set over the
// non-empty remainder. Filtering is rejected with ErrFilterAfterSlice once
// any slice has been taken.
func (s *Set[T]) FilterOrExclude(negate bool, pred func(T) bool) (sequence.Reduced[T], error) {
	if !s.coord.CanFilter() {
		return sequence.Reduced[T]{}, sequence.ErrFilterAfterSlice
	}

	sources := s.coord.Sources()
	filtered := make([]sequence.Source[T], len(sources))
	for i, src := range sources {
		ns, err := src.FilterOrExclude(negate, pred)
		if err != nil {
			return sequence.Reduced[T]{}, &sequence.SourceError{Op: "filter", Index: i, Err: err}
		}
		filtered[i] = ns
	}

	return sequence.Simplify(s.coord.WithSources(filtered))
}

// Iterate starts one merged, windowed pass.
func (s *Set[T]) Iterate() (sequence.Iterator[T], error) { return s.coord.Iterate() }

// Collect drains a full pass into a slice.
func (s *Set[T]) Collect() ([]T, error) {
	it, err := s.coord.Iterate()
	if err != nil {
		return nil, err
	}
	return sequence.Collect(it)
}

// Count returns the summed count across sources.
func (s *Set[T]) Count() (int, error) { return s.coord.Count() }

// First returns the first element of the merged sequence, with ok=false on
// an empty sequence.
func (s *Set[T]) First() (T, bool, error) {
	var zero T
	it, err := s.coord.Iterate()
	if err != nil {
		return zero, false, err
	}
	if it.Next() {
		return it.Value(), true, nil
	}
	return zero, false, it.Err()
}
