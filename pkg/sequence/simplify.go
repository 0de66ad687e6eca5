package sequence

import "github.com/seqmux/seqmux/pkg/stats"

// Reduction classifies the outcome of Simplify.
type Reduction int

const (
	// ReducedEmpty: no source held any elements; the result is an
	// explicit empty marker, not a coordinator with zero sources.
	ReducedEmpty Reduction = iota
	// ReducedSingle: exactly one source remained non-empty and is
	// returned bare, unwrapped from the coordinator.
	ReducedSingle
	// ReducedMany: two or more sources remained non-empty; the result is
	// a coordinator over just those.
	ReducedMany
)

// Reduced is the result of collapsing a multi-source composition after a
// transformation that may have emptied some sources.
type Reduced[T any] struct {
	Kind        Reduction
	Source      Source[T]       // set when Kind == ReducedSingle
	Coordinator *Coordinator[T] // set when Kind == ReducedMany
}

// Simplify consults every source's emptiness test and collapses the
// composition: zero non-empty sources yield the empty marker, exactly one
// yields that bare source, and two or more yield a coordinator rebuilt from
// the non-empty subset (ordering, window and instrumentation carried over).
// The input coordinator is not modified.
func Simplify[T any](c *Coordinator[T]) (Reduced[T], error) {
	var nonEmpty []Source[T]
	for i, s := range c.sources {
		empty, err := s.IsEmpty()
		if err != nil {
			return Reduced[T]{}, c.fail(stats.OpSimplify, &SourceError{Op: "is_empty", Index: i, Err: err})
		}
		if !empty {
			nonEmpty = append(nonEmpty, s)
		}
	}
	c.track(stats.OpSimplify, nil)

	switch len(nonEmpty) {
	case 0:
		return Reduced[T]{Kind: ReducedEmpty}, nil
	case 1:
		return Reduced[T]{Kind: ReducedSingle, Source: nonEmpty[0]}, nil
	default:
		return Reduced[T]{Kind: ReducedMany, Coordinator: c.WithSources(nonEmpty)}, nil
	}
}
