package submit

import (
	"errors"
	"fmt"
	"time"

	"shuffle.dev/shuffle/txn"
)

// Kind is a stable category of submission failure.
type Kind string

const (
	KindSubmissionRejected  Kind = "SubmissionRejected"
	KindExecutionFailed     Kind = "ExecutionFailed"
	KindConfirmationTimeout Kind = "ConfirmationTimeout"
)

// Error is the protocol's structured error. Status is set for
// KindExecutionFailed; Timeout for KindConfirmationTimeout.
type Error struct {
	Kind    Kind
	Ref     string
	Status  txn.Status
	Timeout time.Duration
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindSubmissionRejected:
		return fmt.Sprintf("submit: transaction %s rejected: %v", e.Ref, e.Cause)
	case KindExecutionFailed:
		return fmt.Sprintf("submit: transaction %s failed: %s", e.Ref, e.Status)
	case KindConfirmationTimeout:
		if e.Cause != nil {
			return fmt.Sprintf("submit: transaction %s not confirmed within %s: %v", e.Ref, e.Timeout, e.Cause)
		}
		return fmt.Sprintf("submit: transaction %s not confirmed within %s", e.Ref, e.Timeout)
	default:
		return fmt.Sprintf("submit: transaction %s: %v", e.Ref, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
