// Package dto holds the request and response shapes of the HTTP surface.
// Amounts travel as plain decimal strings; the engine parses them into Money.
package dto

import (
	"time"

	"github.com/fintrust/corebank/internal/core/domain"
)

// OpenAccountRequest asks for a new account for an existing customer.
type OpenAccountRequest struct {
	CustomerID string `json:"customerID" binding:"required"`
}

// MovementRequest carries the amount of a deposit or withdrawal.
type MovementRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

// TransferRequest carries one account-to-account transfer.
type TransferRequest struct {
	FromAccount string `json:"fromAccount" binding:"required,acctnum"`
	ToAccount   string `json:"toAccount" binding:"required,acctnum"`
	Amount      string `json:"amount" binding:"required,amount"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountNumber string    `json:"accountNumber"`
	CustomerID    string    `json:"customerID"`
	Balance       string    `json:"balance"`
	Display       string    `json:"display"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToAccountResponse maps a domain account to its API shape.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: a.AccountNumber,
		CustomerID:    a.CustomerID,
		Balance:       a.Balance.Amount(),
		Display:       a.Balance.String(),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// TransactionResponse is the API shape of one ledger entry.
type TransactionResponse struct {
	TransactionID    int64     `json:"transactionID"`
	AccountNumber    string    `json:"accountNumber"`
	Type             string    `json:"type"`
	Amount           string    `json:"amount"`
	BalanceAfter     string    `json:"balanceAfter"`
	ReferenceAccount string    `json:"referenceAccount,omitempty"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ToTransactionResponse maps a domain ledger entry to its API shape.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    t.TransactionID,
		AccountNumber:    t.AccountNumber,
		Type:             string(t.Type),
		Amount:           t.Amount.Amount(),
		BalanceAfter:     t.BalanceAfter.Amount(),
		ReferenceAccount: t.ReferenceAccount,
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
	}
}

// ToTransactionResponses maps a slice of ledger entries.
func ToTransactionResponses(entries []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ToTransactionResponse(&entries[i]))
	}
	return responses
}

// TransferResponse pairs the two entries created by a transfer.
type TransferResponse struct {
	Out TransactionResponse `json:"out"`
	In  TransactionResponse `json:"in"`
}
