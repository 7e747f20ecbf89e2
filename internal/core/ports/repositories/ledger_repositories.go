// Package repositories defines the persistence contracts the ledger engine
// depends on. Implementations live under internal/repositories; the engine
// only ever sees these interfaces.
package repositories

import (
	"context"
	"time"

	"github.com/fintrust/corebank/internal/core/domain"
	"github.com/fintrust/corebank/pkg/money"
)

// LedgerStore opens atomic units of work against the backing store.
type LedgerStore interface {
	// Begin starts a unit of work. Every read and write of one engine
	// operation happens inside a single LedgerTx.
	Begin(ctx context.Context) (LedgerTx, error)
}

// LedgerTx is one all-or-nothing unit of work. Locks acquired through
// LockAccount are held until Commit or Rollback; writes are not observable
// outside the transaction until Commit.
type LedgerTx interface {
	// LockAccount acquires the exclusive per-account lock (row-level or
	// equivalent) and returns the current record. Returns
	// apperrors.ErrNotFound via AccountNotFoundError when absent.
	LockAccount(ctx context.Context, accountNumber string) (*domain.Account, error)

	// UpdateBalance sets the account's balance to newBalance.
	UpdateBalance(ctx context.Context, accountNumber string, newBalance money.Money) error

	// UpdateStatus sets the account's lifecycle status.
	UpdateStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) error

	// AppendTransaction appends one ledger entry and returns the
	// store-assigned monotonic id, also set on entry.TransactionID.
	AppendTransaction(ctx context.Context, entry *domain.Transaction) (int64, error)

	// Commit makes every write of this unit of work durable.
	Commit(ctx context.Context) error

	// Rollback discards every write. Calling it after a successful Commit
	// is a no-op, so it is safe to defer.
	Rollback(ctx context.Context) error
}

// AccountRepository is the read side plus the account-opening write the
// engine performs outside any money movement.
type AccountRepository interface {
	FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) error
}

// TransactionRepository is the read side of the transaction log. The log
// itself is only ever written through a LedgerTx.
type TransactionRepository interface {
	// FindByAccount returns the account's entries newest-first, at most
	// limit rows (limit <= 0 means no cap).
	FindByAccount(ctx context.Context, accountNumber string, limit int) ([]domain.Transaction, error)

	// FindByDateRange returns the account's entries created within
	// [from, to], oldest-first.
	FindByDateRange(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.Transaction, error)
}
