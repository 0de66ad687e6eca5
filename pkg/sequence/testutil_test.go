package sequence

import (
	"errors"
	"sort"

	"github.com/seqmux/seqmux/pkg/order"
)

// Shared fixtures for the package tests: a small element type, an in-memory
// source over it, and iterators with controllable failure and pull counting.

type person struct {
	name string
	age  int
}

var personAccessors = order.Accessors[person]{
	"name": func(p person) any { return p.name },
	"age":  func(p person) any { return p.age },
}

// memSource is a minimal restartable Source over a person slice.
type memSource struct {
	items []person
}

func newMemSource(items ...person) *memSource {
	return &memSource{items: items}
}

func (s *memSource) Iterate() (Iterator[person], error) {
	return NewSliceIterator(s.items), nil
}

func (s *memSource) Count() (int, error)    { return len(s.items), nil }
func (s *memSource) IsEmpty() (bool, error) { return len(s.items) == 0, nil }

func (s *memSource) Clone() (Source[person], error) {
	items := make([]person, len(s.items))
	copy(items, s.items)
	return &memSource{items: items}, nil
}

func (s *memSource) OrderBy(spec order.Spec) (Source[person], error) {
	cmp, err := order.NewComparator(spec, personAccessors)
	if err != nil {
		return nil, err
	}
	items := make([]person, len(s.items))
	copy(items, s.items)
	var cmpErr error
	sort.SliceStable(items, func(i, j int) bool {
		r, err := cmp.Compare(items[i], items[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return r < 0
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	return &memSource{items: items}, nil
}

func (s *memSource) FilterOrExclude(negate bool, pred func(person) bool) (Source[person], error) {
	var items []person
	for _, p := range s.items {
		if pred(p) != negate {
			items = append(items, p)
		}
	}
	return &memSource{items: items}, nil
}

var errBroken = errors.New("broken source")

// failingSource fails whichever capabilities its flags select.
type failingSource struct {
	memSource
	failIterate bool
	failCount   bool
	failClone   bool
	failOrder   bool
	failIsEmpty bool
}

func (s *failingSource) Iterate() (Iterator[person], error) {
	if s.failIterate {
		return nil, errBroken
	}
	return s.memSource.Iterate()
}

func (s *failingSource) Count() (int, error) {
	if s.failCount {
		return 0, errBroken
	}
	return s.memSource.Count()
}

func (s *failingSource) Clone() (Source[person], error) {
	if s.failClone {
		return nil, errBroken
	}
	return s.memSource.Clone()
}

func (s *failingSource) OrderBy(spec order.Spec) (Source[person], error) {
	if s.failOrder {
		return nil, errBroken
	}
	return s.memSource.OrderBy(spec)
}

func (s *failingSource) IsEmpty() (bool, error) {
	if s.failIsEmpty {
		return false, errBroken
	}
	return s.memSource.IsEmpty()
}

// countingIterator counts how many elements have been pulled from it.
type countingIterator struct {
	it     Iterator[person]
	pulled int
}

func (c *countingIterator) Next() bool {
	if c.it.Next() {
		c.pulled++
		return true
	}
	return false
}

func (c *countingIterator) Value() person { return c.it.Value() }
func (c *countingIterator) Err() error    { return c.it.Err() }

// errIterator yields its items, then fails instead of exhausting.
type errIterator struct {
	items []person
	pos   int
	err   error
}

func (e *errIterator) Next() bool {
	if e.pos < len(e.items) {
		e.pos++
		return true
	}
	if e.err == nil {
		e.err = errBroken
	}
	return false
}

func (e *errIterator) Value() person {
	if e.pos == 0 || e.pos > len(e.items) {
		return person{}
	}
	return e.items[e.pos-1]
}

func (e *errIterator) Err() error { return e.err }

func people(ps ...person) []person { return ps }

func names(items []person) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.name
	}
	return out
}

func sameNames(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustComparator(spec order.Spec) *order.Comparator[person] {
	cmp, err := order.NewComparator(spec, personAccessors)
	if err != nil {
		panic(err)
	}
	return cmp
}

func byAge() *order.Comparator[person] {
	spec, _ := order.Parse("age")
	return mustComparator(spec)
}
