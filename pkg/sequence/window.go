package sequence

// Window is the pagination bounds applied to the logical merged sequence:
// elements [Low, High) are emitted, with a nil High meaning unbounded.
// Invariant: High, when set, is never below Low.
type Window struct {
	Low  int
	High *int // nil = unbounded
}

// DefaultWindow is (0, unbounded): the whole sequence.
func DefaultWindow() Window { return Window{} }

// IsDefault reports whether no limiting has been applied.
func (w Window) IsDefault() bool { return w.Low == 0 && w.High == nil }

// Clone returns an independent copy, including the High pointer.
func (w Window) Clone() Window {
	if w.High == nil {
		return Window{Low: w.Low}
	}
	h := *w.High
	return Window{Low: w.Low, High: &h}
}

// SetLimits narrows the window relative to its current value. Offsets are
// interpreted against the current Low, and both marks are clamped so that
// repeated calls can only shrink the window, never widen it:
//
//	high set: newHigh = min(curHigh, curLow+high), or curLow+high if unbounded
//	low set:  newLow  = min(newHigh, curLow+low),  or curLow+low if unbounded
//
// The high adjustment is applied first, so a low passed in the same call is
// clamped against the already-narrowed high mark.
func (w *Window) SetLimits(low, high *int) {
	if high != nil {
		nh := w.Low + *high
		if w.High != nil && *w.High < nh {
			nh = *w.High
		}
		w.High = &nh
	}
	if low != nil {
		nl := w.Low + *low
		if w.High != nil && *w.High < nl {
			nl = *w.High
		}
		w.Low = nl
	}
}

// Clear resets the window to (0, unbounded).
func (w *Window) Clear() {
	w.Low = 0
	w.High = nil
}

// size returns the number of elements the window admits, or -1 when
// unbounded.
func (w Window) size() int {
	if w.High == nil {
		return -1
	}
	return *w.High - w.Low
}

// applyWindow wraps it so that the first w.Low elements are skipped and at
// most High-Low elements are emitted. The underlying iterator is not pulled
// past the window's end, so sources stay lazily positioned.
func applyWindow[T any](w Window, it Iterator[T]) Iterator[T] {
	if w.IsDefault() {
		return it
	}
	return &windowIterator[T]{it: it, skip: w.Low, remaining: w.size()}
}

type windowIterator[T any] struct {
	it        Iterator[T]
	skip      int
	remaining int // -1 = unbounded
}

func (w *windowIterator[T]) Next() bool {
	for w.skip > 0 {
		if !w.it.Next() {
			return false
		}
		w.skip--
	}
	if w.remaining == 0 {
		return false
	}
	if !w.it.Next() {
		return false
	}
	if w.remaining > 0 {
		w.remaining--
	}
	return true
}

func (w *windowIterator[T]) Value() T   { return w.it.Value() }
func (w *windowIterator[T]) Err() error { return w.it.Err() }
