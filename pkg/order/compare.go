package order

import (
	"fmt"
	"time"
)

// Compare orders two dynamic values by the natural order of their type.
// Supported kinds are strings, booleans (false < true), time.Time, and all
// numeric types; numeric values of different widths compare by value.
// Two nil values are equal. Anything else fails with ErrTypeMismatch.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, nil
		}
		return 0, mismatch(a, b)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, mismatch(a, b)
		}
		return compareOrdered(av, bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, mismatch(a, b)
		}
		if av == bv {
			return 0, nil
		}
		if !av {
			return -1, nil
		}
		return 1, nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, mismatch(a, b)
		}
		return av.Compare(bv), nil
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return 0, mismatch(a, b)
	}
	return an.compare(bn), nil
}

func mismatch(a, b any) error {
	return fmt.Errorf("%w: %T vs %T", ErrTypeMismatch, a, b)
}

func compareOrdered[T string | int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// number normalizes the numeric kinds. Integers are kept exact so that
// large int64/uint64 values do not lose precision through float64.
type number struct {
	i     int64
	u     uint64
	f     float64
	isInt bool
	isUns bool
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{i: int64(n), isInt: true}, true
	case int8:
		return number{i: int64(n), isInt: true}, true
	case int16:
		return number{i: int64(n), isInt: true}, true
	case int32:
		return number{i: int64(n), isInt: true}, true
	case int64:
		return number{i: n, isInt: true}, true
	case uint:
		return number{u: uint64(n), isUns: true}, true
	case uint8:
		return number{u: uint64(n), isUns: true}, true
	case uint16:
		return number{u: uint64(n), isUns: true}, true
	case uint32:
		return number{u: uint64(n), isUns: true}, true
	case uint64:
		return number{u: n, isUns: true}, true
	case float32:
		return number{f: float64(n)}, true
	case float64:
		return number{f: n}, true
	default:
		return number{}, false
	}
}

func (n number) compare(o number) int {
	switch {
	case n.isInt && o.isInt:
		return compareOrdered(n.i, o.i)
	case n.isUns && o.isUns:
		return compareOrdered(n.u, o.u)
	case n.isInt && o.isUns:
		if n.i < 0 {
			return -1
		}
		return compareOrdered(uint64(n.i), o.u)
	case n.isUns && o.isInt:
		if o.i < 0 {
			return 1
		}
		return compareOrdered(n.u, uint64(o.i))
	default:
		return compareOrdered(n.float(), o.float())
	}
}

func (n number) float() float64 {
	switch {
	case n.isInt:
		return float64(n.i)
	case n.isUns:
		return float64(n.u)
	default:
		return n.f
	}
}
