package engine

import (
	"errors"
	"fmt"
)

// RejectReason classifies why a command could not be normalized.
// Reasons are stable strings safe to persist and to show to clients.
type RejectReason string

const (
	ReasonAmbiguousTime      RejectReason = "ambiguous_time"
	ReasonUnknownTimezone    RejectReason = "unknown_timezone_abbreviation"
	ReasonInvalidDate        RejectReason = "invalid_date"
	ReasonRecurrenceConflict RejectReason = "recurrence_conflict"
	ReasonEndBeforeStart     RejectReason = "end_before_start"
)

// RejectionError is a typed refusal to guess: the input contained a
// contradiction or an ambiguity the engine is not allowed to resolve
// silently. Callers report the reason and retry with corrected input.
type RejectionError struct {
	Reason RejectReason
	Detail string
	Err    error
}

func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	}
	return string(e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// NewRejection builds a rejection with a formatted detail message
func NewRejection(reason RejectReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps a RejectionError from an error chain
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
