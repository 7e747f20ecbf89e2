package domain

import (
	"time"

	"github.com/fintrust/corebank/pkg/money"
)

// AccountStatus is the lifecycle state of an account. Closure is a status
// change, never a physical delete; history stays intact.
type AccountStatus string

const (
	StatusActive AccountStatus = "ACTIVE"
	StatusClosed AccountStatus = "CLOSED"
)

// Account represents a customer account within the core domain.
// Balance is mutated exclusively by the ledger engine.
type Account struct {
	AccountNumber string        `json:"accountNumber"` // Format AA0000000000 (2 uppercase letters + 10 digits)
	CustomerID    string        `json:"customerID"`    // Owning customer; foreign entity, not managed here
	Balance       money.Money   `json:"balance"`
	Status        AccountStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsActive reports whether the account accepts movement operations.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}
