// Package apperrors defines the error taxonomy of the ledger engine.
// Callers classify failures with errors.Is against the sentinels and pull
// payloads out of the typed errors with errors.As.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/fintrust/corebank/pkg/money"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates an attempt to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a non-positive or otherwise malformed amount.
// Returned before any lock is taken; the store is never touched.
var ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)

// AccountNotFoundError reports that a referenced account does not exist.
type AccountNotFoundError struct {
	AccountNumber string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found", e.AccountNumber)
}

func (e *AccountNotFoundError) Unwrap() error { return ErrNotFound }

// AccountInactiveError reports that an account exists but is CLOSED and
// rejects all movement operations.
type AccountInactiveError struct {
	AccountNumber string
}

func (e *AccountInactiveError) Error() string {
	return fmt.Sprintf("account %s is not active", e.AccountNumber)
}

func (e *AccountInactiveError) Unwrap() error { return ErrValidation }

// InsufficientBalanceError reports a withdrawal or transfer that would breach
// the minimum-balance floor. It carries the amounts so callers can present a
// specific message.
type InsufficientBalanceError struct {
	Current   money.Money
	Requested money.Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, requested %s", e.Current, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrValidation }

// InvalidTransactionError reports an operation rejected by business policy:
// same-account transfer, amount over a policy ceiling, closing a non-zero
// account.
type InvalidTransactionError struct {
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction: %s", e.Reason)
}

func (e *InvalidTransactionError) Unwrap() error { return ErrValidation }

// OperationFailedError wraps a store failure that interrupted an otherwise
// valid operation. The unit of work was rolled back, so no partial state is
// observable and the caller may retry.
type OperationFailedError struct {
	Op    string
	Cause error
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *OperationFailedError) Unwrap() error { return e.Cause }
