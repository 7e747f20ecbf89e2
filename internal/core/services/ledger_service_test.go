package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/fintrust/corebank/internal/core/services"
	"github.com/fintrust/corebank/internal/core/validation"
	"github.com/fintrust/corebank/pkg/money"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	acctA = "BA0000000001"
	acctB = "BA0000000002"
)

// --- Mock LedgerStore ---

type MockLedgerStore struct {
	mock.Mock
}

var _ portsrepo.LedgerStore = (*MockLedgerStore)(nil)

func (m *MockLedgerStore) Begin(ctx context.Context) (portsrepo.LedgerTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(portsrepo.LedgerTx), args.Error(1)
}

// --- Mock LedgerTx ---

type MockLedgerTx struct {
	mock.Mock
}

var _ portsrepo.LedgerTx = (*MockLedgerTx)(nil)

func (m *MockLedgerTx) LockAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerTx) UpdateBalance(ctx context.Context, accountNumber string, newBalance money.Money) error {
	args := m.Called(ctx, accountNumber, newBalance)
	return args.Error(0)
}

func (m *MockLedgerTx) UpdateStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) error {
	args := m.Called(ctx, accountNumber, status)
	return args.Error(0)
}

func (m *MockLedgerTx) AppendTransaction(ctx context.Context, entry *domain.Transaction) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLedgerTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepository = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindByAccount(ctx context.Context, accountNumber string, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountNumber, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByDateRange(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountNumber, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// --- Suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *MockLedgerStore
	tx       *MockLedgerTx
	accounts *MockAccountRepository
	txns     *MockTransactionRepository
	service  *services.LedgerService
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = new(MockLedgerStore)
	s.tx = new(MockLedgerTx)
	s.accounts = new(MockAccountRepository)
	s.txns = new(MockTransactionRepository)
	s.service = services.NewLedgerService(s.store, s.accounts, s.txns, validation.DefaultLimits())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func activeAccount(number, balance string) *domain.Account {
	return &domain.Account{
		AccountNumber: number,
		CustomerID:    "cust-1",
		Balance:       money.MustParse(balance),
		Status:        domain.StatusActive,
	}
}

func (s *LedgerServiceTestSuite) TestDepositInvalidAmountNeverTouchesStore() {
	_, err := s.service.Deposit(s.ctx, acctA, money.Zero())
	s.ErrorIs(err, apperrors.ErrInvalidAmount)

	_, err = s.service.Deposit(s.ctx, acctA, money.MustParse("-5.00"))
	s.ErrorIs(err, apperrors.ErrInvalidAmount)

	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDepositMalformedAccountNumber() {
	var invalidTxn *apperrors.InvalidTransactionError
	_, err := s.service.Deposit(s.ctx, "not-an-account", money.MustParse("10.00"))
	s.ErrorAs(err, &invalidTxn)
	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDepositOverSanityBound() {
	var invalidTxn *apperrors.InvalidTransactionError
	_, err := s.service.Deposit(s.ctx, acctA, money.MustParse("100000.01"))
	s.ErrorAs(err, &invalidTxn)
	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDepositAccountNotFound() {
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).
		Return(nil, &apperrors.AccountNotFoundError{AccountNumber: acctA})
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var notFound *apperrors.AccountNotFoundError
	_, err := s.service.Deposit(s.ctx, acctA, money.MustParse("10.00"))
	s.ErrorAs(err, &notFound)
	s.Equal(acctA, notFound.AccountNumber)
	s.ErrorIs(err, apperrors.ErrNotFound)

	s.tx.AssertCalled(s.T(), "Rollback", mock.Anything)
	s.tx.AssertNotCalled(s.T(), "Commit", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDepositInactiveAccount() {
	closed := activeAccount(acctA, "0.00")
	closed.Status = domain.StatusClosed

	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(closed, nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var inactive *apperrors.AccountInactiveError
	_, err := s.service.Deposit(s.ctx, acctA, money.MustParse("10.00"))
	s.ErrorAs(err, &inactive)
	s.tx.AssertNotCalled(s.T(), "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDepositHappyPath() {
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "500.00"), nil)
	s.tx.On("UpdateBalance", mock.Anything, acctA, money.MustParse("600.00")).Return(nil)
	s.tx.On("AppendTransaction", mock.Anything, mock.MatchedBy(func(e *domain.Transaction) bool {
		return e.Type == domain.TypeDeposit &&
			e.Amount.Equal(money.MustParse("100.00")) &&
			e.BalanceAfter.Equal(money.MustParse("600.00"))
	})).Return(int64(1), nil)
	s.tx.On("Commit", mock.Anything).Return(nil)
	s.tx.On("Rollback", mock.Anything).Return(nil) // deferred, after commit

	entry, err := s.service.Deposit(s.ctx, acctA, money.MustParse("100.00"))
	s.NoError(err)
	s.Equal(domain.TypeDeposit, entry.Type)
	s.Equal("600.00", entry.BalanceAfter.Amount())
	s.tx.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestDepositCommitFailureIsRetryable() {
	cause := errors.New("connection reset")
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "500.00"), nil)
	s.tx.On("UpdateBalance", mock.Anything, acctA, mock.Anything).Return(nil)
	s.tx.On("AppendTransaction", mock.Anything, mock.Anything).Return(int64(0), nil)
	s.tx.On("Commit", mock.Anything).Return(cause)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var opFailed *apperrors.OperationFailedError
	_, err := s.service.Deposit(s.ctx, acctA, money.MustParse("100.00"))
	s.ErrorAs(err, &opFailed)
	s.ErrorIs(err, cause)
}

func (s *LedgerServiceTestSuite) TestWithdrawInsufficientBalance() {
	// Balance 500.00, withdrawing 450.00 leaves 50.00, below the 100.00 floor.
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "500.00"), nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var insufficient *apperrors.InsufficientBalanceError
	_, err := s.service.Withdraw(s.ctx, acctA, money.MustParse("450.00"))
	s.ErrorAs(err, &insufficient)
	s.Equal("500.00", insufficient.Current.Amount())
	s.Equal("450.00", insufficient.Requested.Amount())

	s.tx.AssertNotCalled(s.T(), "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	s.tx.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything)
	s.tx.AssertNotCalled(s.T(), "Commit", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestWithdrawOverCeilingNeverTouchesStore() {
	var invalidTxn *apperrors.InvalidTransactionError
	_, err := s.service.Withdraw(s.ctx, acctA, money.MustParse("50000.01"))
	s.ErrorAs(err, &invalidTxn)
	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestWithdrawNegativeAmountIdempotentRejection() {
	for i := 0; i < 3; i++ {
		_, err := s.service.Withdraw(s.ctx, acctA, money.MustParse("-5.00"))
		s.ErrorIs(err, apperrors.ErrInvalidAmount)
	}
	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestTransferSameAccountRejected() {
	var invalidTxn *apperrors.InvalidTransactionError
	_, err := s.service.Transfer(s.ctx, acctA, acctA, money.MustParse("10.00"))
	s.ErrorAs(err, &invalidTxn)
	s.store.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestTransferLocksInLexicographicOrder() {
	var lockOrder []string
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			lockOrder = append(lockOrder, args.String(1))
		}).
		Return(activeAccount(acctA, "500.00"), nil).Once()
	s.tx.On("LockAccount", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			lockOrder = append(lockOrder, args.String(1))
		}).
		Return(activeAccount(acctB, "200.00"), nil).Once()
	s.tx.On("UpdateBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.tx.On("AppendTransaction", mock.Anything, mock.Anything).Return(int64(1), nil)
	s.tx.On("Commit", mock.Anything).Return(nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	// Transfer from the larger account number to the smaller one; the lock
	// requests must still go smaller-first.
	_, err := s.service.Transfer(s.ctx, acctB, acctA, money.MustParse("50.00"))
	s.NoError(err)
	s.Equal([]string{acctA, acctB}, lockOrder)
}

func (s *LedgerServiceTestSuite) TestTransferAppendFailureRollsBack() {
	cause := errors.New("disk full")
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "500.00"), nil)
	s.tx.On("LockAccount", mock.Anything, acctB).Return(activeAccount(acctB, "200.00"), nil)
	s.tx.On("UpdateBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.tx.On("AppendTransaction", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	s.tx.On("AppendTransaction", mock.Anything, mock.Anything).Return(int64(0), cause).Once()
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var opFailed *apperrors.OperationFailedError
	_, err := s.service.Transfer(s.ctx, acctA, acctB, money.MustParse("100.00"))
	s.ErrorAs(err, &opFailed)
	s.ErrorIs(err, cause)
	s.tx.AssertCalled(s.T(), "Rollback", mock.Anything)
	s.tx.AssertNotCalled(s.T(), "Commit", mock.Anything)
}

func (s *LedgerServiceTestSuite) TestTransferInactiveDestination() {
	closed := activeAccount(acctB, "200.00")
	closed.Status = domain.StatusClosed

	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "500.00"), nil)
	s.tx.On("LockAccount", mock.Anything, acctB).Return(closed, nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var inactive *apperrors.AccountInactiveError
	_, err := s.service.Transfer(s.ctx, acctA, acctB, money.MustParse("100.00"))
	s.ErrorAs(err, &inactive)
	s.Equal(acctB, inactive.AccountNumber)
	s.tx.AssertNotCalled(s.T(), "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestCloseAccountWithRemainingBalance() {
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "10.00"), nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	var invalidTxn *apperrors.InvalidTransactionError
	err := s.service.CloseAccount(s.ctx, acctA)
	s.ErrorAs(err, &invalidTxn)
	s.tx.AssertNotCalled(s.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestCloseAccountZeroBalance() {
	s.store.On("Begin", mock.Anything).Return(s.tx, nil)
	s.tx.On("LockAccount", mock.Anything, acctA).Return(activeAccount(acctA, "0.00"), nil)
	s.tx.On("UpdateStatus", mock.Anything, acctA, domain.StatusClosed).Return(nil)
	s.tx.On("Commit", mock.Anything).Return(nil)
	s.tx.On("Rollback", mock.Anything).Return(nil)

	s.NoError(s.service.CloseAccount(s.ctx, acctA))
	s.tx.AssertCalled(s.T(), "UpdateStatus", mock.Anything, acctA, domain.StatusClosed)
	// Status is metadata, not a money movement: no ledger entry.
	s.tx.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestOpenAccount() {
	s.accounts.On("FindByNumber", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, &apperrors.AccountNotFoundError{})
	s.accounts.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a domain.Account) bool {
		return a.Balance.IsZero() && a.Status == domain.StatusActive && a.CustomerID == "cust-42"
	})).Return(nil)

	account, err := s.service.OpenAccount(s.ctx, "cust-42")
	s.NoError(err)
	s.Regexp(`^BA[0-9]{10}$`, account.AccountNumber)
	s.True(validation.IsValidAccountNumber(account.AccountNumber))
}

func (s *LedgerServiceTestSuite) TestOpenAccountRequiresCustomer() {
	_, err := s.service.OpenAccount(s.ctx, "")
	s.ErrorIs(err, apperrors.ErrValidation)
	s.accounts.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestDateRangeValidation() {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err := s.service.GetTransactionsByDateRange(s.ctx, acctA, from, to)
	s.ErrorIs(err, apperrors.ErrValidation)
}
