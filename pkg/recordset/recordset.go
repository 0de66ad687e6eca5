// Package recordset provides in-memory Source implementations: a generic
// slice-backed source for typed elements and a dynamic record source for
// field-keyed maps. Both are restartable and cheap to clone, which makes
// them the natural local collaborator for the merge core and the
// materialization target for file and remote sources.
package recordset

import (
	"fmt"
	"sort"

	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/sequence"
)

// Record is a dynamically-fielded element.
type Record = map[string]any

// Slice is a Source backed by a Go slice. The zero value is not usable;
// construct with NewSlice or NewRecords.
type Slice[T any] struct {
	items     []T
	accessors order.Accessors[T]
	copyElem  func(T) T // nil = elements shared between clones
}

var _ sequence.Source[Record] = (*Slice[Record])(nil)

// NewSlice creates a source over items. The accessor table defines which
// fields the source can be ordered by.
func NewSlice[T any](accessors order.Accessors[T], items ...T) *Slice[T] {
	return &Slice[T]{items: items, accessors: accessors}
}

// WithElementCopy sets a per-element deep-copy function used by Clone.
// Without one, clones share element values (fine for value types).
func (s *Slice[T]) WithElementCopy(fn func(T) T) *Slice[T] {
	s.copyElem = fn
	return s
}

// NewRecords creates a record source. Orderable fields are derived from the
// union of keys across the given records, and Clone deep-copies each record.
func NewRecords(items ...Record) *Slice[Record] {
	fields := make(map[string]struct{})
	for _, r := range items {
		for k := range r {
			fields[k] = struct{}{}
		}
	}
	accessors := make(order.Accessors[Record], len(fields))
	for name := range fields {
		accessors[name] = recordAccessor(name)
	}
	s := NewSlice(accessors, items...)
	return s.WithElementCopy(copyRecord)
}

func recordAccessor(name string) order.Accessor[Record] {
	return func(r Record) any { return r[name] }
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Iterate returns a fresh iterator over the current order.
func (s *Slice[T]) Iterate() (sequence.Iterator[T], error) {
	return sequence.NewSliceIterator(s.items), nil
}

// Count returns the number of elements.
func (s *Slice[T]) Count() (int, error) { return len(s.items), nil }

// IsEmpty reports whether the source holds no elements.
func (s *Slice[T]) IsEmpty() (bool, error) { return len(s.items) == 0, nil }

// Clone returns an independent copy. With an element copy function set the
// elements are deep-copied too.
func (s *Slice[T]) Clone() (sequence.Source[T], error) {
	items := make([]T, len(s.items))
	if s.copyElem != nil {
		for i, v := range s.items {
			items[i] = s.copyElem(v)
		}
	} else {
		copy(items, s.items)
	}
	return &Slice[T]{items: items, accessors: s.accessors, copyElem: s.copyElem}, nil
}

// OrderBy returns a new source sorted by spec. The sort is stable, so
// elements that compare equal keep their current relative order. A field
// the accessor table does not know, or a comparison between unorderable
// values, fails the call.
func (s *Slice[T]) OrderBy(spec order.Spec) (sequence.Source[T], error) {
	cmp, err := order.NewComparator(spec, s.accessors)
	if err != nil {
		return nil, err
	}

	items := make([]T, len(s.items))
	copy(items, s.items)

	// sort.SliceStable's less cannot fail; park the first comparison
	// error and report it after the sort.
	var cmpErr error
	sort.SliceStable(items, func(i, j int) bool {
		r, err := cmp.Compare(items[i], items[j])
		if err != nil {
			if cmpErr == nil {
				cmpErr = err
			}
			return false
		}
		return r < 0
	})
	if cmpErr != nil {
		return nil, fmt.Errorf("order by %s: %w", spec, cmpErr)
	}

	return &Slice[T]{items: items, accessors: s.accessors, copyElem: s.copyElem}, nil
}

// FilterOrExclude returns a new source holding the elements for which the
// predicate result equals !negate.
func (s *Slice[T]) FilterOrExclude(negate bool, pred func(T) bool) (sequence.Source[T], error) {
	var items []T
	for _, v := range s.items {
		if pred(v) != negate {
			items = append(items, v)
		}
	}
	return &Slice[T]{items: items, accessors: s.accessors, copyElem: s.copyElem}, nil
}

// Items returns the backing slice. Callers must not mutate it.
func (s *Slice[T]) Items() []T { return s.items }

// Fields returns the names of the orderable fields.
func (s *Slice[T]) Fields() []string {
	out := make([]string, 0, len(s.accessors))
	for name := range s.accessors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
