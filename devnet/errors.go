package devnet

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every admission failure, so callers can tell a
// refused transaction from a ledger fault with errors.Is.
var ErrRejected = errors.New("devnet: transaction rejected")

var (
	ErrMalformed          = errors.New("malformed transaction")
	ErrWrongChain         = errors.New("wrong chain id")
	ErrExpired            = errors.New("transaction expired")
	ErrDuplicate          = errors.New("transaction already submitted")
	ErrUnknownSender      = errors.New("sender account does not exist")
	ErrAuthKeyMismatch    = errors.New("public key does not match account authentication key")
	ErrSequenceMismatch   = errors.New("unexpected sequence number")
	ErrUnknownTransaction = errors.New("devnet: unknown transaction")
	ErrUnknownAccount     = errors.New("devnet: unknown account")
	ErrAccountExists      = errors.New("devnet: account already exists")
)

// VM statuses carried by aborted transactions.
const (
	VMInsufficientBalance  = "INSUFFICIENT_BALANCE"
	VMAccountExists        = "ACCOUNT_ALREADY_EXISTS"
	VMAccountDoesNotExist  = "ACCOUNT_DOES_NOT_EXIST"
	VMInvalidAuthKey       = "INVALID_AUTH_KEY"
	VMUnsupportedOperation = "UNSUPPORTED_OPERATION"
	VMArithmeticError      = "ARITHMETIC_ERROR"
)

func reject(reason error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrRejected, reason)
	}
	return fmt.Errorf("%w: %w: %s", ErrRejected, reason, fmt.Sprintf(format, args...))
}
