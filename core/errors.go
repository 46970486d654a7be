package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a document (or one of its parents) does not exist,
	// and when an unauthorized read must not reveal that it does.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthenticated is returned when no valid principal could be resolved.
	ErrUnauthenticated = errors.New("authentication required")
)

// FieldError is used to indicate an error with a specific document field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError is returned when an authenticated principal is denied by policy.
// Reason carries the machine-distinguishable deny reason for observability and tests.
type AuthorizationError struct {
	Reason Reason
}

func NewAuthorizationError(reason Reason) error {
	return &AuthorizationError{Reason: reason}
}

func (err AuthorizationError) Error() string {
	return "permission denied: " + string(err.Reason)
}

// InvalidStateError is returned when an operation is not legal in the current
// state machine state (eg. writing to a closed or pending-locked conversation).
type InvalidStateError struct {
	Msg string
}

func NewInvalidStateError(msg string) error {
	return &InvalidStateError{Msg: msg}
}

func (err InvalidStateError) Error() string {
	return err.Msg
}

// IdempotencyConflictError is returned when a ledger entry reuses an idempotency key
// with a different payload. It is never silently coalesced.
type IdempotencyConflictError struct {
	WalletID string
	Key      string
}

func (err IdempotencyConflictError) Error() string {
	return fmt.Sprintf("idempotency key %q already applied to wallet %q with a different payload", err.Key, err.WalletID)
}

// InsufficientBalanceError is returned when a charge would drive a non-overdraft
// wallet negative. The operation has no partial effect.
type InsufficientBalanceError struct {
	WalletID string
	Balance  int64
	Amount   int64
}

func (err InsufficientBalanceError) Error() string {
	return fmt.Sprintf("wallet %q balance %d cannot absorb %d", err.WalletID, err.Balance, err.Amount)
}

type shutdown struct {
	message string
}

// NewShutdownError wraps a fatal store transport failure; it is the only error
// category that is not a recoverable outcome.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
