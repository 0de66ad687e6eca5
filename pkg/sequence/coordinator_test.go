package sequence

import (
	"errors"
	"testing"

	"github.com/seqmux/seqmux/pkg/stats"
)

func twoTeams() (*memSource, *memSource) {
	a := newMemSource(person{"alice", 25}, person{"dave", 41})
	b := newMemSource(person{"bob", 20}, person{"carl", 30})
	return a, b
}

func TestCoordinatorMergeByAge(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "bob", "alice", "carl", "dave") {
		t.Errorf("Unexpected merged order: %v", names(got))
	}
}

func TestCoordinatorMergeDescending(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("-age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "dave", "carl", "alice", "bob") {
		t.Errorf("Unexpected merged order: %v", names(got))
	}
}

func TestCoordinatorUnorderedConcatenates(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "alice", "dave", "bob", "carl") {
		t.Errorf("Expected source-order concatenation, got %v", names(got))
	}
}

func TestCoordinatorCount(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	n, err := c.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected count 4, got %d", n)
	}
}

func TestCoordinatorCountFailureNamesSource(t *testing.T) {
	a := newMemSource(person{"a", 1})
	bad := &failingSource{failCount: true}
	c := NewCoordinator(personAccessors, a, bad)

	_, err := c.Count()
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SourceError, got %v", err)
	}
	if se.Index != 1 || se.Op != "count" {
		t.Errorf("Expected source 1 count failure, got %+v", se)
	}
	if !errors.Is(err, errBroken) {
		t.Errorf("SourceError should unwrap to the cause, got %v", err)
	}
}

func TestCoordinatorCloneIsolation(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}

	clone, err := c.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	// Diverge the clone; the original must not notice.
	if err := clone.AddOrdering("-name"); err != nil {
		t.Fatalf("AddOrdering on clone failed: %v", err)
	}
	low, high := 0, 1
	clone.SetLimits(&low, &high)

	if got := c.OrderSpec().String(); got != "age" {
		t.Errorf("Original ordering changed to %q", got)
	}
	if !c.Window().IsDefault() {
		t.Errorf("Original window changed to %+v", c.Window())
	}

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Original pass shrank to %d elements", len(got))
	}
}

func TestCoordinatorAddOrderingAtomic(t *testing.T) {
	a := newMemSource(person{"a", 1}, person{"b", 2})
	bad := &failingSource{failOrder: true}
	c := NewCoordinator(personAccessors, a, bad)

	err := c.AddOrdering("age")
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SourceError, got %v", err)
	}
	if se.Index != 1 || se.Op != "order_by" {
		t.Errorf("Expected source 1 order_by failure, got %+v", se)
	}

	// Nothing may have been committed.
	if !c.OrderSpec().IsEmpty() {
		t.Errorf("Failed ordering left spec %q behind", c.OrderSpec())
	}
	if c.Sources()[0] != Source[person](a) {
		t.Error("Failed ordering replaced a source")
	}
}

func TestCoordinatorAddOrderingEmptyNoop(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering(); err != nil {
		t.Fatalf("Empty AddOrdering failed: %v", err)
	}
	if !c.OrderSpec().IsEmpty() {
		t.Errorf("Empty AddOrdering changed the spec to %q", c.OrderSpec())
	}
}

func TestCoordinatorClearOrderingKeepsSourceOrder(t *testing.T) {
	a := newMemSource(person{"z", 9}, person{"a", 1})
	b := newMemSource(person{"m", 5})
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}
	c.ClearOrdering()

	// Sources stay individually ordered by the last request; the merged
	// pass concatenates them in that per-source order.
	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "a", "z", "m") {
		t.Errorf("Expected per-source ordered concatenation, got %v", names(got))
	}
}

func TestCoordinatorWindowedIteration(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}
	low, high := 1, 3
	c.SetLimits(&low, &high)

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "alice", "carl") {
		t.Errorf("Expected window [alice carl], got %v", names(got))
	}
}

func TestCoordinatorCanFilter(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	if !c.CanFilter() {
		t.Error("Fresh coordinator should allow filtering")
	}

	low := 1
	c.SetLimits(&low, nil)
	if c.CanFilter() {
		t.Error("Windowed coordinator should refuse filtering")
	}

	c.ClearLimits()
	if !c.CanFilter() {
		t.Error("ClearLimits should restore filtering")
	}
}

func TestCoordinatorSkipsEmptySources(t *testing.T) {
	a := newMemSource()
	b := newMemSource(person{"only", 1})
	c := NewCoordinator(personAccessors, a, b)
	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}

	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	got, err := Collect(it)
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}
	if !sameNames(names(got), "only") {
		t.Errorf("Unexpected result: %v", names(got))
	}
}

func TestCoordinatorIterateFailureNamesSource(t *testing.T) {
	bad := &failingSource{
		memSource:   memSource{items: people(person{"x", 1})},
		failIterate: true,
	}
	c := NewCoordinator(personAccessors, newMemSource(person{"a", 2}), bad)

	_, err := c.Iterate()
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("Expected SourceError, got %v", err)
	}
	if se.Index != 1 || se.Op != "iterate" {
		t.Errorf("Expected source 1 iterate failure, got %+v", se)
	}
}

func TestCoordinatorStats(t *testing.T) {
	a, b := twoTeams()
	c := NewCoordinator(personAccessors, a, b)
	col := stats.NewCollector()
	c.SetStats(col)

	if err := c.AddOrdering("age"); err != nil {
		t.Fatalf("AddOrdering failed: %v", err)
	}
	if _, err := c.Count(); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	it, err := c.Iterate()
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	if _, err := Collect(it); err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if got := col.GetCount(stats.OpOrder); got != 1 {
		t.Errorf("Expected 1 order op, got %d", got)
	}
	if got := col.GetCount(stats.OpCount); got != 1 {
		t.Errorf("Expected 1 count op, got %d", got)
	}
	if got := col.GetCount(stats.OpIterate); got != 1 {
		t.Errorf("Expected 1 iterate op, got %d", got)
	}
	if got := col.GetCount(stats.OpEmit); got != 4 {
		t.Errorf("Expected 4 emitted elements, got %d", got)
	}
}
