package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/fintrust/corebank/internal/core/validation"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/google/uuid"
)

const miniStatementSize = 5

// LedgerService is the transactional money-movement engine. It validates,
// applies and records balance changes as atomic units of work against the
// ledger store. It holds no mutable state beyond its policy limits, so one
// instance is safely shared by concurrent callers; all mutual exclusion is
// delegated to the store's per-account locks.
type LedgerService struct {
	store        portsrepo.LedgerStore
	accountRepo  portsrepo.AccountRepository
	txnRepo      portsrepo.TransactionRepository
	limits       validation.Limits
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	store portsrepo.LedgerStore,
	accountRepo portsrepo.AccountRepository,
	txnRepo portsrepo.TransactionRepository,
	limits validation.Limits,
) *LedgerService {
	return &LedgerService{
		store:       store,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		limits:      limits,
	}
}

// Limits exposes the policy limits the engine was configured with.
func (s *LedgerService) Limits() validation.Limits {
	return s.limits
}

func checkAccountNumber(accountNumber string) error {
	if !validation.IsValidAccountNumber(accountNumber) {
		return &apperrors.InvalidTransactionError{
			Reason: fmt.Sprintf("malformed account number %q", accountNumber),
		}
	}
	return nil
}

// lockActive acquires the row lock for accountNumber inside tx and verifies
// the account accepts movement operations.
func lockActive(ctx context.Context, tx portsrepo.LedgerTx, accountNumber string) (*domain.Account, error) {
	account, err := tx.LockAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, &apperrors.AccountInactiveError{AccountNumber: accountNumber}
	}
	return account, nil
}

// wrapStoreErr classifies a failure that surfaced inside a unit of work.
// Business rejections pass through untouched; anything else is a store
// failure, already rolled back, so it is wrapped as retryable.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
		return err
	}
	return &apperrors.OperationFailedError{Op: op, Cause: err}
}

// Deposit credits amount to the account and appends the DEPOSIT entry, both
// in one unit of work. It returns the created ledger entry.
func (s *LedgerService) Deposit(ctx context.Context, accountNumber string, amount money.Money) (*domain.Transaction, error) {
	if err := checkAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if !s.limits.IsValidAmount(amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if !s.limits.IsDepositAllowed(amount) {
		return nil, &apperrors.InvalidTransactionError{
			Reason: fmt.Sprintf("deposit amount %s exceeds the %s limit", amount, s.limits.MaxTransfer),
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, &apperrors.OperationFailedError{Op: "deposit", Cause: err}
	}
	defer tx.Rollback(ctx)

	account, err := lockActive(ctx, tx, accountNumber)
	if err != nil {
		return nil, wrapStoreErr("deposit", err)
	}

	newBalance := account.Balance.Add(amount)
	if err := tx.UpdateBalance(ctx, accountNumber, newBalance); err != nil {
		return nil, wrapStoreErr("deposit", err)
	}

	entry := domain.Transaction{
		AccountNumber: accountNumber,
		Type:          domain.TypeDeposit,
		Amount:        amount,
		BalanceAfter:  newBalance,
		Description:   "Cash deposit",
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := tx.AppendTransaction(ctx, &entry); err != nil {
		return nil, wrapStoreErr("deposit", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &apperrors.OperationFailedError{Op: "deposit", Cause: err}
	}

	slog.InfoContext(ctx, "deposit applied",
		slog.String("account_number", accountNumber),
		slog.String("amount", amount.Amount()),
		slog.Int64("transaction_id", entry.TransactionID),
	)
	return &entry, nil
}

// Withdraw debits amount from the account, enforcing the single-withdrawal
// ceiling and the minimum-balance floor against the balance read under lock.
func (s *LedgerService) Withdraw(ctx context.Context, accountNumber string, amount money.Money) (*domain.Transaction, error) {
	if err := checkAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if !s.limits.IsValidAmount(amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if amount.GreaterThan(s.limits.MaxWithdrawal) {
		return nil, &apperrors.InvalidTransactionError{
			Reason: fmt.Sprintf("withdrawal amount %s exceeds the %s limit", amount, s.limits.MaxWithdrawal),
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, &apperrors.OperationFailedError{Op: "withdrawal", Cause: err}
	}
	defer tx.Rollback(ctx)

	account, err := lockActive(ctx, tx, accountNumber)
	if err != nil {
		return nil, wrapStoreErr("withdrawal", err)
	}

	if !s.limits.IsWithdrawalAllowed(account.Balance, amount) {
		return nil, &apperrors.InsufficientBalanceError{
			Current:   account.Balance,
			Requested: amount,
		}
	}

	newBalance := account.Balance.Sub(amount)
	if err := tx.UpdateBalance(ctx, accountNumber, newBalance); err != nil {
		return nil, wrapStoreErr("withdrawal", err)
	}

	entry := domain.Transaction{
		AccountNumber: accountNumber,
		Type:          domain.TypeWithdrawal,
		Amount:        amount,
		BalanceAfter:  newBalance,
		Description:   "Cash withdrawal",
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := tx.AppendTransaction(ctx, &entry); err != nil {
		return nil, wrapStoreErr("withdrawal", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &apperrors.OperationFailedError{Op: "withdrawal", Cause: err}
	}

	slog.InfoContext(ctx, "withdrawal applied",
		slog.String("account_number", accountNumber),
		slog.String("amount", amount.Amount()),
		slog.Int64("transaction_id", entry.TransactionID),
	)
	return &entry, nil
}

// Transfer moves amount between two accounts atomically: two balance updates
// and two ledger entries commit together or not at all. Locks are acquired in
// lexicographic account-number order regardless of direction, so opposing
// concurrent transfers between the same pair cannot form a lock cycle.
func (s *LedgerService) Transfer(ctx context.Context, fromAccount, toAccount string, amount money.Money) (*domain.TransferResult, error) {
	if err := checkAccountNumber(fromAccount); err != nil {
		return nil, err
	}
	if err := checkAccountNumber(toAccount); err != nil {
		return nil, err
	}
	if fromAccount == toAccount {
		return nil, &apperrors.InvalidTransactionError{Reason: "cannot transfer to the same account"}
	}
	if !s.limits.IsValidAmount(amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if amount.GreaterThan(s.limits.MaxTransfer) {
		return nil, &apperrors.InvalidTransactionError{
			Reason: fmt.Sprintf("transfer amount %s exceeds the %s limit", amount, s.limits.MaxTransfer),
		}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, &apperrors.OperationFailedError{Op: "transfer", Cause: err}
	}
	defer tx.Rollback(ctx)

	// Fixed total lock order: lexicographically smaller account number first.
	first, second := fromAccount, toAccount
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Account, 2)
	for _, number := range []string{first, second} {
		account, err := lockActive(ctx, tx, number)
		if err != nil {
			return nil, wrapStoreErr("transfer", err)
		}
		locked[number] = account
	}
	from, to := locked[fromAccount], locked[toAccount]

	if !s.limits.IsTransferAllowed(from.Balance, amount) {
		return nil, &apperrors.InsufficientBalanceError{
			Current:   from.Balance,
			Requested: amount,
		}
	}

	newFromBalance := from.Balance.Sub(amount)
	newToBalance := to.Balance.Add(amount)

	if err := tx.UpdateBalance(ctx, fromAccount, newFromBalance); err != nil {
		return nil, wrapStoreErr("transfer", err)
	}
	if err := tx.UpdateBalance(ctx, toAccount, newToBalance); err != nil {
		return nil, wrapStoreErr("transfer", err)
	}

	now := time.Now().UTC()
	out := domain.Transaction{
		AccountNumber:    fromAccount,
		Type:             domain.TypeTransferOut,
		Amount:           amount,
		BalanceAfter:     newFromBalance,
		ReferenceAccount: toAccount,
		Description:      "Transfer to " + toAccount,
		CreatedAt:        now,
	}
	in := domain.Transaction{
		AccountNumber:    toAccount,
		Type:             domain.TypeTransferIn,
		Amount:           amount,
		BalanceAfter:     newToBalance,
		ReferenceAccount: fromAccount,
		Description:      "Transfer from " + fromAccount,
		CreatedAt:        now,
	}
	if _, err := tx.AppendTransaction(ctx, &out); err != nil {
		return nil, wrapStoreErr("transfer", err)
	}
	if _, err := tx.AppendTransaction(ctx, &in); err != nil {
		return nil, wrapStoreErr("transfer", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &apperrors.OperationFailedError{Op: "transfer", Cause: err}
	}

	slog.InfoContext(ctx, "transfer applied",
		slog.String("from_account", fromAccount),
		slog.String("to_account", toAccount),
		slog.String("amount", amount.Amount()),
		slog.Int64("out_transaction_id", out.TransactionID),
		slog.Int64("in_transaction_id", in.TransactionID),
	)
	return &domain.TransferResult{Out: out, In: in}, nil
}

// CloseAccount flips an active, zero-balance account to CLOSED. Status is
// metadata, not a money movement, so no ledger entry is appended and history
// is never erased. The row lock is taken so a concurrent deposit cannot race
// the zero-balance check.
func (s *LedgerService) CloseAccount(ctx context.Context, accountNumber string) error {
	if err := checkAccountNumber(accountNumber); err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return &apperrors.OperationFailedError{Op: "close account", Cause: err}
	}
	defer tx.Rollback(ctx)

	account, err := tx.LockAccount(ctx, accountNumber)
	if err != nil {
		return wrapStoreErr("close account", err)
	}
	if account.Status == domain.StatusClosed {
		return &apperrors.InvalidTransactionError{Reason: "account is already closed"}
	}
	if !account.Balance.IsZero() {
		return &apperrors.InvalidTransactionError{Reason: "cannot close account with remaining balance"}
	}

	if err := tx.UpdateStatus(ctx, accountNumber, domain.StatusClosed); err != nil {
		return wrapStoreErr("close account", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return &apperrors.OperationFailedError{Op: "close account", Cause: err}
	}

	slog.InfoContext(ctx, "account closed", slog.String("account_number", accountNumber))
	return nil
}

// OpenAccount creates a new ACTIVE account with zero balance for the given
// customer. Account numbers are generated as "BA" plus ten digits derived
// from fresh UUID entropy, retried until unused.
func (s *LedgerService) OpenAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrValidation)
	}

	var accountNumber string
	for {
		accountNumber = generateAccountNumber()
		_, err := s.accountRepo.FindByNumber(ctx, accountNumber)
		if errors.Is(err, apperrors.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, &apperrors.OperationFailedError{Op: "open account", Cause: err}
		}
		// Collision; generate another number.
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountNumber: accountNumber,
		CustomerID:    customerID,
		Balance:       money.Zero(),
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		return nil, &apperrors.OperationFailedError{Op: "open account", Cause: err}
	}

	slog.InfoContext(ctx, "account opened",
		slog.String("account_number", accountNumber),
		slog.String("customer_id", customerID),
	)
	return &account, nil
}

// generateAccountNumber derives a "BA" + 10 digit number from UUID entropy.
func generateAccountNumber() string {
	id := uuid.New()
	n := int64(0)
	for _, b := range id[:8] {
		n = n<<8 | int64(b)
	}
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("BA%010d", n%10000000000)
}

// GetAccount returns the account record, or AccountNotFoundError.
func (s *LedgerService) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if err := checkAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	return s.accountRepo.FindByNumber(ctx, accountNumber)
}

// GetTransactionHistory returns the account's ledger entries newest-first,
// capped at limit when limit > 0.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, accountNumber string, limit int) ([]domain.Transaction, error) {
	if err := checkAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.FindByNumber(ctx, accountNumber); err != nil {
		return nil, err
	}
	return s.txnRepo.FindByAccount(ctx, accountNumber, limit)
}

// GetMiniStatement returns the account's five most recent ledger entries.
func (s *LedgerService) GetMiniStatement(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	return s.GetTransactionHistory(ctx, accountNumber, miniStatementSize)
}

// GetTransactionsByDateRange returns the account's entries created within
// [from, to], oldest-first.
func (s *LedgerService) GetTransactionsByDateRange(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.Transaction, error) {
	if err := checkAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date range end precedes start", apperrors.ErrValidation)
	}
	if _, err := s.accountRepo.FindByNumber(ctx, accountNumber); err != nil {
		return nil, err
	}
	return s.txnRepo.FindByDateRange(ctx, accountNumber, from, to)
}
