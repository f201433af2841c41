package bcs

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const KindDecode Kind = "Decode"

// Error is the package's structured error type.
//
// Offset is the byte position in the input at which decoding failed.
type Error struct {
	Kind    Kind
	Offset  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bcs: %s at offset %d", e.Message, e.Offset)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ErrTruncated is wrapped by decode errors caused by running out of input.
var ErrTruncated = errors.New("bcs: unexpected end of input")

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
