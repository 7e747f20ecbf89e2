package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxAccountRepository is the read side and lifecycle writer for accounts.
type PgxAccountRepository struct {
	BaseRepository
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// NewPgxAccountRepository creates a new repository for account data.
func NewPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// FindByNumber retrieves an account by its account number.
func (r *PgxAccountRepository) FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `
		SELECT account_number, customer_id, balance, status, created_at, updated_at
		FROM accounts
		WHERE account_number = $1;
	`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountNumber, err)
	}
	return account, nil
}

// CreateAccount inserts a new account record.
func (r *PgxAccountRepository) CreateAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, customer_id, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountNumber,
		account.CustomerID,
		account.Balance.Decimal(),
		string(account.Status),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountNumber)
		}
		return fmt.Errorf("failed to create account %s: %w", account.AccountNumber, err)
	}
	return nil
}
