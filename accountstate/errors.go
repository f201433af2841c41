package accountstate

import "fmt"

// DecodingError reports malformed resource bytes at Path.
type DecodingError struct {
	Path  ResourcePath
	Cause error
}

func (e *DecodingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("accountstate: decode resource %s: %v", e.Path, e.Cause)
}

func (e *DecodingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
