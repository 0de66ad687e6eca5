package order

import "fmt"

// Accessor extracts one field's value from an element.
type Accessor[T any] func(T) any

// Accessors maps field names to their extraction functions. The table is
// supplied by the caller; the core never reaches into element types itself.
type Accessors[T any] map[string]Accessor[T]

// Comparator compares two elements under a Spec. Field accessors are
// resolved once, at construction, not on every comparison.
type Comparator[T any] struct {
	terms []resolvedTerm[T]
}

type resolvedTerm[T any] struct {
	field string
	get   Accessor[T]
	desc  bool
}

// NewComparator resolves every field of spec against the accessor table.
// A field with no accessor is a construction-time error.
func NewComparator[T any](spec Spec, accessors Accessors[T]) (*Comparator[T], error) {
	terms := make([]resolvedTerm[T], 0, len(spec))
	for _, t := range spec {
		get, ok := accessors[t.Field]
		if !ok {
			return nil, fmt.Errorf("ordering: no accessor for field %q", t.Field)
		}
		terms = append(terms, resolvedTerm[T]{field: t.Field, get: get, desc: t.Desc})
	}
	return &Comparator[T]{terms: terms}, nil
}

// Empty reports whether the comparator has no terms. An empty comparator
// must never be invoked; callers fall back to concatenation instead.
func (c *Comparator[T]) Empty() bool { return c == nil || len(c.terms) == 0 }

// Compare returns the first non-zero per-field comparison between a and b,
// with the sign flipped for descending terms. It returns 0 only when every
// field compares equal.
func (c *Comparator[T]) Compare(a, b T) (int, error) {
	for _, t := range c.terms {
		r, err := Compare(t.get(a), t.get(b))
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", t.field, err)
		}
		if t.desc {
			r = -r
		}
		if r != 0 {
			return r, nil
		}
	}
	return 0, nil
}
