package facade

import (
	"fmt"

	"github.com/seqmux/seqmux/pkg/sequence"
)

// The operations below belong to the query-object surface this library
// mimics but deliberately does not implement. They fail immediately and
// loudly; none of them silently no-ops.

func (s *Set[T]) unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, sequence.ErrUnsupported)
}

// Distinct is not supported.
func (s *Set[T]) Distinct(fields ...string) (*Set[T], error) {
	return nil, s.unsupported("distinct")
}

// Annotate is not supported.
func (s *Set[T]) Annotate(names ...string) (*Set[T], error) {
	return nil, s.unsupported("annotate")
}

// Aggregate is not supported.
func (s *Set[T]) Aggregate(names ...string) (map[string]any, error) {
	return nil, s.unsupported("aggregate")
}

// Reverse is not supported.
func (s *Set[T]) Reverse() (*Set[T], error) {
	return nil, s.unsupported("reverse")
}

// SelectRelated is not supported.
func (s *Set[T]) SelectRelated(fields ...string) (*Set[T], error) {
	return nil, s.unsupported("select_related")
}

// PrefetchRelated is not supported.
func (s *Set[T]) PrefetchRelated(lookups ...string) (*Set[T], error) {
	return nil, s.unsupported("prefetch_related")
}

// Defer is not supported.
func (s *Set[T]) Defer(fields ...string) (*Set[T], error) {
	return nil, s.unsupported("defer")
}

// Only is not supported.
func (s *Set[T]) Only(fields ...string) (*Set[T], error) {
	return nil, s.unsupported("only")
}

// Insert is not supported: the composition is read-only.
func (s *Set[T]) Insert(elems ...T) error {
	return s.unsupported("insert")
}

// Update is not supported: the composition is read-only.
func (s *Set[T]) Update(fn func(T) T) (int, error) {
	return 0, s.unsupported("update")
}

// Delete is not supported: the composition is read-only.
func (s *Set[T]) Delete() (int, error) {
	return 0, s.unsupported("delete")
}
