package sequence

import (
	"errors"
	"testing"

	"github.com/seqmux/seqmux/pkg/order"
)

func iterOver(items ...person) Iterator[person] {
	return NewSliceIterator(items)
}

func TestMergeOrdered(t *testing.T) {
	a := iterOver(person{"alice", 25}, person{"dave", 41})
	b := iterOver(person{"bob", 20}, person{"carl", 30})

	got, err := Collect(NewMergeIterator(byAge(), []Iterator[person]{a, b}))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !sameNames(names(got), "bob", "alice", "carl", "dave") {
		t.Errorf("Unexpected merge order: %v", names(got))
	}
}

func TestMergeThreeWays(t *testing.T) {
	a := iterOver(person{"a", 1}, person{"d", 7})
	b := iterOver(person{"b", 2}, person{"e", 8}, person{"g", 12})
	c := iterOver(person{"c", 5})

	got, err := Collect(NewMergeIterator(byAge(), []Iterator[person]{a, b, c}))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !sameNames(names(got), "a", "b", "c", "d", "e", "g") {
		t.Errorf("Unexpected merge order: %v", names(got))
	}
}

func TestMergeConcatWithoutComparator(t *testing.T) {
	a := iterOver(person{"z", 99})
	b := iterOver(person{"a", 1})

	// No comparator: plain concatenation in list order, no reordering.
	got, err := Collect(NewMergeIterator[person](nil, []Iterator[person]{a, b}))
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if !sameNames(names(got), "z", "a") {
		t.Errorf("Expected list-order concatenation, got %v", names(got))
	}
}

func TestMergeTieBreakByListPosition(t *testing.T) {
	// Equal sort keys across sources: the earlier-listed source wins.
	a := iterOver(person{"fromA", 30}, person{"fromA2", 30})
	b := iterOver(person{"fromB", 30})

	got, err := Collect(NewMergeIterator(byAge(), []Iterator[person]{a, b}))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !sameNames(names(got), "fromA", "fromA2", "fromB") {
		t.Errorf("Tie-break should favor the earlier source, got %v", names(got))
	}
}

func TestMergeEmptyIterators(t *testing.T) {
	got, err := Collect(NewMergeIterator(byAge(), []Iterator[person]{
		iterOver(), iterOver(), iterOver(),
	}))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %v", names(got))
	}

	got, err = Collect(NewMergeIterator(byAge(), nil))
	if err != nil {
		t.Fatalf("Merge over no iterators failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %v", names(got))
	}
}

func TestMergeSingleSurvivor(t *testing.T) {
	// Empty iterators are dropped at priming; one survivor means the
	// merge degrades to a straight drain.
	got, err := Collect(NewMergeIterator(byAge(), []Iterator[person]{
		iterOver(),
		iterOver(person{"a", 1}, person{"b", 2}),
		iterOver(),
	}))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !sameNames(names(got), "a", "b") {
		t.Errorf("Unexpected result: %v", names(got))
	}
}

func TestMergeLaziness(t *testing.T) {
	a := &countingIterator{it: iterOver(person{"a", 1}, person{"c", 3}, person{"e", 5})}
	b := &countingIterator{it: iterOver(person{"b", 2}, person{"d", 4}, person{"f", 6})}

	m := NewMergeIterator(byAge(), []Iterator[person]{a, b})

	// Nothing is read before the first pull.
	if a.pulled != 0 || b.pulled != 0 {
		t.Fatalf("Merge read ahead before first pull: a=%d b=%d", a.pulled, b.pulled)
	}

	// After two pulls ("a", "b") each source holds at most one buffered
	// element beyond what was emitted.
	for i := 0; i < 2; i++ {
		if !m.Next() {
			t.Fatalf("Unexpected exhaustion at pull %d: %v", i, m.Err())
		}
	}
	if a.pulled > 2 || b.pulled > 2 {
		t.Errorf("Merge read more than one ahead: a=%d b=%d", a.pulled, b.pulled)
	}

	rest, err := Collect(m)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if !sameNames(names(rest), "c", "d", "e", "f") {
		t.Errorf("Unexpected remainder: %v", names(rest))
	}
}

func TestMergeStopsAtConsumerPace(t *testing.T) {
	a := &countingIterator{it: iterOver(person{"a", 1}, person{"c", 3})}
	b := &countingIterator{it: iterOver(person{"b", 2}, person{"d", 4})}

	m := NewMergeIterator(byAge(), []Iterator[person]{a, b})
	if !m.Next() {
		t.Fatalf("First pull failed: %v", m.Err())
	}
	// The consumer stops here; neither source may be drained.
	if a.pulled+b.pulled > 3 {
		t.Errorf("Merge over-pulled after one element: a=%d b=%d", a.pulled, b.pulled)
	}
}

func TestMergeIteratorErrorPropagates(t *testing.T) {
	a := &errIterator{items: people(person{"a", 1})}
	b := iterOver(person{"b", 2}, person{"c", 3})

	it := NewMergeIterator(byAge(), []Iterator[person]{a, b})
	for it.Next() {
	}
	if !errors.Is(it.Err(), errBroken) {
		t.Errorf("Expected errBroken, got %v", it.Err())
	}
}

func TestMergeComparisonErrorFailsPass(t *testing.T) {
	accessors := order.Accessors[map[string]any]{
		"v": func(m map[string]any) any { return m["v"] },
	}
	spec, _ := order.Parse("v")
	cmp, err := order.NewComparator(spec, accessors)
	if err != nil {
		t.Fatalf("NewComparator failed: %v", err)
	}

	a := NewSliceIterator([]map[string]any{{"v": 1}})
	b := NewSliceIterator([]map[string]any{{"v": "oops"}})

	it := NewMergeIterator(cmp, []Iterator[map[string]any]{a, b})
	for it.Next() {
	}
	if !errors.Is(it.Err(), order.ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", it.Err())
	}
}

func TestConcatIteratorErrorPropagates(t *testing.T) {
	a := &errIterator{items: people(person{"a", 1})}
	b := iterOver(person{"b", 2})

	it := NewMergeIterator[person](nil, []Iterator[person]{a, b})
	got, err := Collect(it)
	if !errors.Is(err, errBroken) {
		t.Fatalf("Expected errBroken, got %v", err)
	}
	// The element before the failure was still delivered.
	if !sameNames(names(got), "a") {
		t.Errorf("Expected partial result [a], got %v", names(got))
	}
}
