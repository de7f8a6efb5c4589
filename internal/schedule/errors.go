package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an appointment id is unknown
	ErrNotFound = errors.New("appointment not found")
)

// ValidationError reports input the caller can correct and resubmit
// without re-reading the calendar (missing selection, disallowed
// location, bad status transition).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ConflictError is a write-time rejection: another mutation claimed the
// interval between the advisory availability read and this write. Safe
// to retry after re-querying availability.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "schedule conflict: " + e.Reason
}

// TransientError wraps an I/O failure against the calendar store or
// lock service. Retryable with backoff; never a partial write.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError reports a malformed request (programming or integration
// error, e.g. zero services in a cart). Never retried.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "invalid request: " + e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
