package sequence

import (
	"github.com/seqmux/seqmux/pkg/order"
)

// Source is the capability contract a backing sequence must satisfy to be
// composed by a Coordinator. Implementations are opaque to the core: it
// never inspects their representation, only calls these methods.
//
// A source is expected to already be internally ordered consistently with
// whatever ordering was last requested through OrderBy. The coordinator is
// responsible for requesting that ordering, not for enforcing it.
type Source[T any] interface {
	// Iterate produces the source's elements in its current internal
	// order. Each call must return a fresh, independently positioned
	// iterator unless the implementation documents itself as single-pass.
	Iterate() (Iterator[T], error)

	// Count reports the total element count. It may be expensive; the
	// core never caches it.
	Count() (int, error)

	// Clone returns an independent copy: future mutation of either copy
	// must not affect the other's iteration, order, or content.
	Clone() (Source[T], error)

	// OrderBy returns a new source whose iteration order matches spec.
	// The receiver is left untouched. Failures are reported, never
	// silently ignored.
	OrderBy(spec order.Spec) (Source[T], error)

	// IsEmpty is a cheap emptiness test, used to drop sources before a
	// merge and to drive simplification.
	IsEmpty() (bool, error)

	// FilterOrExclude returns a new source holding the elements matching
	// the predicate (negate=false) or not matching it (negate=true).
	// The merge core itself never calls this; the filtering collaborator
	// does.
	FilterOrExclude(negate bool, pred func(T) bool) (Source[T], error)
}
