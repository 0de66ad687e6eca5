package sequence

import (
	"container/heap"

	"github.com/seqmux/seqmux/pkg/order"
)

// NewMergeIterator merges iterators that are each already ordered
// consistently with cmp into one globally ordered lazy sequence.
//
// With an empty comparator no comparison is performed at all: the iterators
// are simply concatenated in the given order. Otherwise one element is
// buffered per iterator and the smallest head is selected through a heap,
// so each emitted element costs O(log k) for k still-active iterators.
// Heads that compare equal are emitted in iterator-list order (lowest index
// first); this tie-break is deliberate and tested, not an accident of the
// selection structure.
//
// The merge never reads more than one element ahead per iterator. Consumers
// may stop pulling at any point and every underlying iterator stays at a
// well-defined position.
func NewMergeIterator[T any](cmp *order.Comparator[T], iters []Iterator[T]) Iterator[T] {
	if cmp.Empty() {
		return &concatIterator[T]{iters: iters}
	}
	return &mergeIterator[T]{cmp: cmp, iters: iters}
}

// concatIterator is the degenerate no-ordering path: all of iterator 1,
// then all of iterator 2, and so on. O(1) extra state.
type concatIterator[T any] struct {
	iters []Iterator[T]
	pos   int
	cur   T
	err   error
}

func (c *concatIterator[T]) Next() bool {
	if c.err != nil {
		return false
	}
	for c.pos < len(c.iters) {
		it := c.iters[c.pos]
		if it.Next() {
			c.cur = it.Value()
			return true
		}
		if err := it.Err(); err != nil {
			c.err = err
			return false
		}
		c.pos++
	}
	return false
}

func (c *concatIterator[T]) Value() T   { return c.cur }
func (c *concatIterator[T]) Err() error { return c.err }

// mergeCursor is the per-source merge state: the underlying iterator plus
// its one buffered, not-yet-emitted head element. index is the source's
// position in the original list and doubles as the tie-break key.
type mergeCursor[T any] struct {
	iter  Iterator[T]
	head  T
	index int
}

type mergeIterator[T any] struct {
	cmp   *order.Comparator[T]
	iters []Iterator[T]

	h       cursorHeap[T]
	tail    *mergeCursor[T]
	tailBuf bool // tail.head not yet emitted

	cur    T
	err    error
	primed bool
	done   bool
}

func (m *mergeIterator[T]) Value() T   { return m.cur }
func (m *mergeIterator[T]) Err() error { return m.err }

func (m *mergeIterator[T]) Next() bool {
	if m.err != nil || m.done {
		return false
	}
	if !m.primed {
		m.primed = true
		if !m.prime() {
			return false
		}
	}

	// Cheap tail: exactly one active cursor left, no comparisons needed.
	if m.tail != nil {
		if m.tailBuf {
			m.tailBuf = false
			m.cur = m.tail.head
			return true
		}
		if m.tail.iter.Next() {
			m.cur = m.tail.iter.Value()
			return true
		}
		m.err = m.tail.iter.Err()
		m.done = true
		return false
	}

	if m.h.Len() == 0 {
		m.done = true
		return false
	}

	c := heap.Pop(&m.h).(*mergeCursor[T])
	if m.h.err != nil {
		// A comparison failed while restoring heap order; the popped
		// element can no longer be trusted. Fail before emitting it.
		m.err = m.h.err
		return false
	}
	m.cur = c.head

	// Refill the cursor that just gave up its head. A refill failure is
	// reported on the following pull; the element emitted here stays valid.
	if c.iter.Next() {
		c.head = c.iter.Value()
		heap.Push(&m.h, c)
		if m.h.err != nil {
			m.err = m.h.err
		}
	} else if err := c.iter.Err(); err != nil {
		m.err = err
	}

	if m.err == nil && m.h.Len() == 1 {
		m.tail = m.h.cursors[0]
		m.tailBuf = true
		m.h.cursors = nil
	}
	return true
}

// prime pulls the first element of every iterator into a cursor. Iterators
// with nothing to give never enter the active set.
func (m *mergeIterator[T]) prime() bool {
	cursors := make([]*mergeCursor[T], 0, len(m.iters))
	for i, it := range m.iters {
		if it.Next() {
			cursors = append(cursors, &mergeCursor[T]{iter: it, head: it.Value(), index: i})
			continue
		}
		if err := it.Err(); err != nil {
			m.err = err
			return false
		}
	}

	switch len(cursors) {
	case 0:
		m.done = true
		return false
	case 1:
		m.tail = cursors[0]
		m.tailBuf = true
		return true
	}

	m.h = cursorHeap[T]{cmp: m.cmp, cursors: cursors}
	heap.Init(&m.h)
	if m.h.err != nil {
		m.err = m.h.err
		return false
	}
	return true
}

// cursorHeap orders cursors by their buffered heads. container/heap's Less
// cannot fail, so the first comparison error is parked in err and checked by
// the merge loop after every heap operation; ordering falls back to the
// index tie-break to keep the heap internally consistent until then.
type cursorHeap[T any] struct {
	cursors []*mergeCursor[T]
	cmp     *order.Comparator[T]
	err     error
}

func (h *cursorHeap[T]) Len() int { return len(h.cursors) }

func (h *cursorHeap[T]) Less(i, j int) bool {
	a, b := h.cursors[i], h.cursors[j]
	r, err := h.cmp.Compare(a.head, b.head)
	if err != nil {
		if h.err == nil {
			h.err = err
		}
		return a.index < b.index
	}
	if r != 0 {
		return r < 0
	}
	return a.index < b.index
}

func (h *cursorHeap[T]) Swap(i, j int) {
	h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i]
}

func (h *cursorHeap[T]) Push(x any) {
	h.cursors = append(h.cursors, x.(*mergeCursor[T]))
}

func (h *cursorHeap[T]) Pop() any {
	old := h.cursors
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	h.cursors = old[:n-1]
	return c
}
