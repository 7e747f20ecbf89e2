// Package memory provides the reference in-memory implementation of the
// ledger store ports. It mirrors the semantics of the Postgres store: an
// exclusive per-account lock scoped to a unit of work, writes staged until
// Commit, and monotonic never-reused transaction ids.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fintrust/corebank/internal/apperrors"
	"github.com/fintrust/corebank/internal/core/domain"
	portsrepo "github.com/fintrust/corebank/internal/core/ports/repositories"
	"github.com/fintrust/corebank/pkg/money"
)

type accountRecord struct {
	rowLock sync.Mutex // held from LockAccount to Commit/Rollback
	account domain.Account
}

// LedgerStore is an in-memory store implementing LedgerStore,
// AccountRepository and TransactionRepository.
type LedgerStore struct {
	mu       sync.RWMutex // guards the maps and committed state
	accounts map[string]*accountRecord
	log      []domain.Transaction
	nextID   atomic.Int64
}

var (
	_ portsrepo.LedgerStore           = (*LedgerStore)(nil)
	_ portsrepo.AccountRepository     = (*LedgerStore)(nil)
	_ portsrepo.TransactionRepository = (*LedgerStore)(nil)
)

// NewLedgerStore creates an empty in-memory store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[string]*accountRecord),
	}
}

// CreateAccount inserts a new account record.
func (s *LedgerStore) CreateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountNumber]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountNumber)
	}
	s.accounts[account.AccountNumber] = &accountRecord{account: account}
	return nil
}

// FindByNumber returns a copy of the committed account state.
func (s *LedgerStore) FindByNumber(_ context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[accountNumber]
	if !ok {
		return nil, &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
	}
	account := rec.account
	return &account, nil
}

// FindByAccount returns the account's entries newest-first, capped at limit
// when limit > 0.
func (s *LedgerStore) FindByAccount(_ context.Context, accountNumber string, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.Transaction
	for _, entry := range s.log {
		if entry.AccountNumber == accountNumber {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TransactionID > entries[j].TransactionID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// FindByDateRange returns the account's entries created within [from, to],
// oldest-first.
func (s *LedgerStore) FindByDateRange(_ context.Context, accountNumber string, from, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.Transaction
	for _, entry := range s.log {
		if entry.AccountNumber != accountNumber {
			continue
		}
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TransactionID < entries[j].TransactionID
	})
	return entries, nil
}

// Begin opens a unit of work.
func (s *LedgerStore) Begin(_ context.Context) (portsrepo.LedgerTx, error) {
	return &ledgerTx{
		store:    s,
		locked:   make(map[string]*accountRecord),
		balances: make(map[string]money.Money),
		statuses: make(map[string]domain.AccountStatus),
	}, nil
}

// ledgerTx stages writes until Commit. The per-account rowLock is acquired on
// LockAccount and released only by Commit or Rollback, which serializes the
// units of work touching an account exactly like a row-level database lock.
type ledgerTx struct {
	store    *LedgerStore
	order    []string // acquisition order, for release
	locked   map[string]*accountRecord
	balances map[string]money.Money
	statuses map[string]domain.AccountStatus
	entries  []domain.Transaction
	done     bool
}

func (t *ledgerTx) LockAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if t.done {
		return nil, fmt.Errorf("unit of work already finished")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if rec, ok := t.locked[accountNumber]; ok {
		return t.view(rec), nil
	}

	t.store.mu.RLock()
	rec, ok := t.store.accounts[accountNumber]
	t.store.mu.RUnlock()
	if !ok {
		return nil, &apperrors.AccountNotFoundError{AccountNumber: accountNumber}
	}

	rec.rowLock.Lock()
	t.locked[accountNumber] = rec
	t.order = append(t.order, accountNumber)
	return t.view(rec), nil
}

// view returns the account as seen by this unit of work: committed state,
// overlaid with its own staged writes.
func (t *ledgerTx) view(rec *accountRecord) *domain.Account {
	t.store.mu.RLock()
	account := rec.account
	t.store.mu.RUnlock()
	if b, ok := t.balances[account.AccountNumber]; ok {
		account.Balance = b
	}
	if st, ok := t.statuses[account.AccountNumber]; ok {
		account.Status = st
	}
	return &account
}

func (t *ledgerTx) requireLock(accountNumber string) error {
	if t.done {
		return fmt.Errorf("unit of work already finished")
	}
	if _, ok := t.locked[accountNumber]; !ok {
		return fmt.Errorf("account %s is not locked by this unit of work", accountNumber)
	}
	return nil
}

func (t *ledgerTx) UpdateBalance(_ context.Context, accountNumber string, newBalance money.Money) error {
	if err := t.requireLock(accountNumber); err != nil {
		return err
	}
	t.balances[accountNumber] = newBalance
	return nil
}

func (t *ledgerTx) UpdateStatus(_ context.Context, accountNumber string, status domain.AccountStatus) error {
	if err := t.requireLock(accountNumber); err != nil {
		return err
	}
	t.statuses[accountNumber] = status
	return nil
}

func (t *ledgerTx) AppendTransaction(_ context.Context, entry *domain.Transaction) (int64, error) {
	if err := t.requireLock(entry.AccountNumber); err != nil {
		return 0, err
	}
	// Ids are monotonic and never reused; a rollback leaves a gap.
	id := t.store.nextID.Add(1)
	entry.TransactionID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	t.entries = append(t.entries, *entry)
	return id, nil
}

func (t *ledgerTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("unit of work already finished")
	}
	if err := ctx.Err(); err != nil {
		// Cancellation before publication behaves exactly like an error.
		t.release()
		return err
	}

	t.store.mu.Lock()
	for number, balance := range t.balances {
		rec := t.locked[number]
		rec.account.Balance = balance
		rec.account.UpdatedAt = time.Now().UTC()
	}
	for number, status := range t.statuses {
		rec := t.locked[number]
		rec.account.Status = status
		rec.account.UpdatedAt = time.Now().UTC()
	}
	t.store.log = append(t.store.log, t.entries...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *ledgerTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

// release drops every row lock and marks the unit of work finished. Staged
// writes that were not committed are simply discarded.
func (t *ledgerTx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.locked[t.order[i]].rowLock.Unlock()
	}
	t.order = nil
	t.done = true
}
