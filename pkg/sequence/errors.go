package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrFilterAfterSlice is returned when a filtering operation is
	// attempted after a window has been applied. It is a policy error,
	// surfaced as a rejected operation rather than a crash.
	ErrFilterAfterSlice = errors.New("cannot filter once a slice has been taken")

	// ErrUnsupported marks query-surface operations that are deliberately
	// out of scope. They fail loudly and immediately, never no-op.
	ErrUnsupported = errors.New("operation not supported")
)

// SourceError wraps a failure from one source's capability method. The core
// never retries or suppresses these; the in-progress operation aborts and
// the error propagates with the operation name and source position attached.
type SourceError struct {
	Op    string // capability that failed: "count", "clone", "order_by", "iterate", "is_empty", "filter"
	Index int    // position of the source in the coordinator's list
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %d: %s: %v", e.Index, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
