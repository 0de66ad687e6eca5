// Package sequence composes several independently ordered sources into one
// logical ordered sequence. The merge is lazy: no source is ever read more
// than one element ahead of what the consumer has pulled.
package sequence

// Iterator is the pull-based lazy sequence contract. Usage follows the
// scanner idiom:
//
//	for it.Next() {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
//
// Next returning false either means exhaustion or failure; Err distinguishes
// the two. Value is only meaningful after a true Next.
type Iterator[T any] interface {
	Next() bool
	Value() T
	Err() error
}

// Collect drains an iterator into a slice. Elements emitted before a
// failure are returned alongside the error.
func Collect[T any](it Iterator[T]) ([]T, error) {
	var out []T
	for it.Next() {
		out = append(out, it.Value())
	}
	return out, it.Err()
}

type sliceIterator[T any] struct {
	items []T
	pos   int
}

// NewSliceIterator returns a restartable-by-reconstruction iterator over
// items. It is the building block most Source implementations hand out.
func NewSliceIterator[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items, pos: -1}
}

func (s *sliceIterator[T]) Next() bool {
	if s.pos+1 >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceIterator[T]) Value() T {
	var zero T
	if s.pos < 0 || s.pos >= len(s.items) {
		return zero
	}
	return s.items[s.pos]
}

func (s *sliceIterator[T]) Err() error { return nil }
