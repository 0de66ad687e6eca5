// Package order defines orderings over record fields and builds composite
// comparators from them. An ordering is a list of (field, direction) terms;
// comparison proceeds term by term until one yields a non-zero result.
package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLengthMismatch is returned when parallel field and direction lists
	// have different lengths.
	ErrLengthMismatch = errors.New("field and direction lists have different lengths")

	// ErrTypeMismatch is returned when two field values are not mutually
	// orderable. Values are never silently coerced.
	ErrTypeMismatch = errors.New("values are not mutually orderable")
)

// Term is a single ordering criterion.
type Term struct {
	Field string
	Desc  bool
}

// Spec is an ordered list of terms. The empty Spec is valid and means
// "no ordering": merging degrades to plain concatenation.
type Spec []Term

// Parse builds a Spec from field tokens. A leading '-' marks a field as
// descending; an unprefixed token means ascending.
func Parse(tokens ...string) (Spec, error) {
	spec := make(Spec, 0, len(tokens))
	for _, tok := range tokens {
		desc := strings.HasPrefix(tok, "-")
		if desc {
			tok = tok[1:]
		}
		if tok == "" {
			return nil, fmt.Errorf("ordering: empty field name")
		}
		spec = append(spec, Term{Field: tok, Desc: desc})
	}
	return spec, nil
}

// New builds a Spec from parallel field and direction slices. The slices
// must have the same length.
func New(fields []string, descending []bool) (Spec, error) {
	if len(fields) != len(descending) {
		return nil, ErrLengthMismatch
	}
	spec := make(Spec, 0, len(fields))
	for i, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("ordering: empty field name at position %d", i)
		}
		spec = append(spec, Term{Field: f, Desc: descending[i]})
	}
	return spec, nil
}

// IsEmpty reports whether the spec carries no terms.
func (s Spec) IsEmpty() bool { return len(s) == 0 }

// Clone returns an independent copy of the spec.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	copy(out, s)
	return out
}

// Extend returns a new spec with the terms of other appended.
func (s Spec) Extend(other Spec) Spec {
	out := make(Spec, 0, len(s)+len(other))
	out = append(out, s...)
	out = append(out, other...)
	return out
}

// Tokens renders the spec back into prefixed field tokens, the inverse
// of Parse. Used when an ordering travels over the wire or through a CLI.
func (s Spec) Tokens() []string {
	out := make([]string, len(s))
	for i, t := range s {
		if t.Desc {
			out[i] = "-" + t.Field
		} else {
			out[i] = t.Field
		}
	}
	return out
}

// String renders the spec for logs and error messages.
func (s Spec) String() string {
	return strings.Join(s.Tokens(), ",")
}
