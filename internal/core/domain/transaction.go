package domain

import (
	"time"

	"github.com/fintrust/corebank/pkg/money"
)

// TransactionType identifies the direction of a ledger entry. Amounts are
// always positive; direction is carried by the type, never by sign.
type TransactionType string

const (
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeWithdrawal  TransactionType = "WITHDRAWAL"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
)

// Transaction is one immutable ledger entry: a single directional money
// movement against a single account. Entries are appended exactly once and
// never updated or deleted.
type Transaction struct {
	TransactionID    int64           `json:"transactionID"` // Store-assigned, monotonic, never reused
	AccountNumber    string          `json:"accountNumber"`
	Type             TransactionType `json:"type"`
	Amount           money.Money     `json:"amount"`       // Always positive
	BalanceAfter     money.Money     `json:"balanceAfter"` // Account balance immediately after this entry
	ReferenceAccount string          `json:"referenceAccount,omitempty"` // Counterparty for TRANSFER_IN/OUT
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// IsCredit reports whether the entry increases the account balance.
func (t *Transaction) IsCredit() bool {
	return t.Type == TypeDeposit || t.Type == TypeTransferIn
}

// SignedAmount is the entry's effect on the balance: positive for credits,
// negative for debits. Folding SignedAmount over an account's entries in id
// order from zero reproduces its balance.
func (t *Transaction) SignedAmount() money.Money {
	if t.IsCredit() {
		return t.Amount
	}
	return money.Zero().Sub(t.Amount)
}

// TransferResult pairs the two entries produced by one transfer. Both were
// recorded in the same unit of work.
type TransferResult struct {
	Out Transaction `json:"out"`
	In  Transaction `json:"in"`
}
