// Package pgsql implements the ledger store ports on PostgreSQL. Each unit
// of work is a single database transaction; the exclusive per-account lock is
// a SELECT ... FOR UPDATE row lock, held until commit or rollback.
package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxLedgerStore implements portsrepo.LedgerStore on a pgx connection pool.
type PgxLedgerStore struct {
	BaseRepository
}

var _ portsrepo.LedgerStore = (*PgxLedgerStore)(nil)

// NewPgxLedgerStore creates the Postgres-backed ledger store.
func NewPgxLedgerStore(pool *pgxpool.Pool) *PgxLedgerStore {
	return &PgxLedgerStore{BaseRepository: BaseRepository{Pool: pool}}
}

// Begin opens a database transaction wrapped as a unit of work.
func (s *PgxLedgerStore) Begin(ctx context.Context) (portsrepo.LedgerTx, error) {
	tx, err := s.BaseRepository.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxLedgerTx{tx: tx}, nil
}

type pgxLedgerTx struct {
	tx pgx.Tx
}

func (t *pgxLedgerTx) LockAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		SELECT account_number, customer_id, balance, status, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE;
	`
	account, err := scanAccount(t.tx.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", accountNumber, err)
	}
	return account, nil
}

func (t *pgxLedgerTx) UpdateBalance(ctx context.Context, accountNumber string, newBalance money.Money) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE account_number = $1;
	`
	ct, err := t.tx.Exec(ctx, query, accountNumber, newBalance.Decimal())
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountNumber, err)
	}
	if ct.RowsAffected() == 0 {
		return &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
	}
	return nil
}

func (t *pgxLedgerTx) UpdateStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $2, updated_at = NOW()
		WHERE account_number = $1;
	`
	ct, err := t.tx.Exec(ctx, query, accountNumber, string(status))
	if err != nil {
		return fmt.Errorf("failed to update status for account %s: %w", accountNumber, err)
	}
	if ct.RowsAffected() == 0 {
		return &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
	}
	return nil
}

func (t *pgxLedgerTx) AppendTransaction(ctx context.Context, entry *domain.Transaction) (int64, error) {
	query := `
		INSERT INTO transactions (account_number, type, amount, balance_after, reference_account, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING transaction_id;
	`
	reference := sql.NullString{String: entry.ReferenceAccount, Valid: entry.ReferenceAccount != ""}

	var id int64
	err := t.tx.QueryRow(ctx, query,
		entry.AccountNumber,
		string(entry.Type),
		entry.Amount.Decimal(),
		entry.BalanceAfter.Decimal(),
		reference,
		entry.Description,
		entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction for account %s: %w", entry.AccountNumber, err)
	}
	entry.TransactionID = id
	return id, nil
}

func (t *pgxLedgerTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgxLedgerTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

type accountRow interface {
	Scan(dest ...any) error
}

func scanAccount(row accountRow) (*domain.Account, error) {
	var (
		account domain.Account
		balance decimal.Decimal
		status  string
	)
	err := row.Scan(
		&account.AccountNumber,
		&account.CustomerID,
		&balance,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Balance = money.New(balance)
	account.Status = domain.AccountStatus(status)
	return &account, nil
}
