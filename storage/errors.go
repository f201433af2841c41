package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
	// ErrCorrupt marks stored bytes that hash correctly but are not a
	// decodable signed transaction.
	ErrCorrupt = errors.New("storage: corrupt transaction")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
