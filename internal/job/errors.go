package job

import (
	"errors"
	"fmt"
)

// FailureKind classifies a stage failure for retry policy and for the
// dashboard.
const (
	KindTransientIO            = "transient_io"
	KindResourceLimit          = "resource_limit"
	KindMalformedOutline       = "malformed_outline"
	KindSourceUnavailable      = "source_unavailable"
	KindStructuringUnavailable = "structuring_unavailable"
	KindTimedOut               = "timed_out"
	KindInternal               = "internal"
)

// ErrBusy signals a concurrency conflict: another stage run holds the
// recording's lock. It is a caller condition, not a job state.
var ErrBusy = errors.New("recording is already being processed")

// ErrNotReprocessable signals a reprocess request against a job that is not
// in a terminal state.
var ErrNotReprocessable = errors.New("job is not in a terminal state")

// Failure is a typed stage failure.
type Failure struct {
	Kind string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err with a failure kind.
func NewFailure(kind string, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failf builds a Failure from a format string.
func Failf(kind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Plain errors
// classify as internal.
func KindOf(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

// Retryable reports whether a failure kind is eligible for automatic
// bounded retry. Resource limits and malformed outlines need operator
// action first.
func Retryable(kind string) bool {
	switch kind {
	case KindTransientIO, KindTimedOut, KindSourceUnavailable, KindStructuringUnavailable:
		return true
	}
	return false
}
