package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxTransactionRepository is the read side of the transaction log. Writes
// only ever happen through a unit of work (pgxLedgerTx).
type PgxTransactionRepository struct {
	BaseRepository
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

// NewPgxTransactionRepository creates a new repository for ledger entries.
func NewPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// FindByAccount returns the account's entries newest-first, capped at limit
// when limit > 0.
func (r *PgxTransactionRepository) FindByAccount(ctx context.Context, accountNumber string, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, account_number, type, amount, balance_after, reference_account, description, created_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY transaction_id DESC
	`
	args := []any{accountNumber}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountNumber, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// FindByDateRange returns the account's entries created within [from, to],
// oldest-first.
func (r *PgxTransactionRepository) FindByDateRange(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, account_number, type, amount, balance_after, reference_account, description, created_at
		FROM transactions
		WHERE account_number = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY transaction_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, accountNumber, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s by date range: %w", accountNumber, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var entries []domain.Transaction
	for rows.Next() {
		var (
			entry        domain.Transaction
			txnType      string
			amount       decimal.Decimal
			balanceAfter decimal.Decimal
			reference    sql.NullString
		)
		err := rows.Scan(
			&entry.TransactionID,
			&entry.AccountNumber,
			&txnType,
			&amount,
			&balanceAfter,
			&reference,
			&entry.Description,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		entry.Type = domain.TransactionType(txnType)
		entry.Amount = money.New(amount)
		entry.BalanceAfter = money.New(balanceAfter)
		if reference.Valid {
			entry.ReferenceAccount = reference.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return entries, nil
}
