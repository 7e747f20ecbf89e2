// Package validation holds the pure business-policy predicates of the
// ledger. Nothing here touches a store; the engine consults these before
// taking any lock.
package validation

import (
	"regexp"

	"github.com/fintrust/corebank/pkg/money"
)

var accountNumberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{10}$`)

// IsValidAccountNumber checks the canonical account number format:
// two uppercase letters followed by ten digits.
func IsValidAccountNumber(accountNumber string) bool {
	return accountNumberPattern.MatchString(accountNumber)
}

// Limits are the policy knobs of the engine. They come from configuration,
// not compiled constants, so deployments can tune them.
type Limits struct {
	MinBalance    money.Money // Floor an active account must keep after a debit
	MaxWithdrawal money.Money // Ceiling for a single withdrawal
	MaxTransfer   money.Money // Ceiling for a single transfer, and sanity bound for deposits
}

// DefaultLimits mirrors the stock policy: floor 100.00, single withdrawal up
// to 50,000.00, single transfer up to 100,000.00.
func DefaultLimits() Limits {
	return Limits{
		MinBalance:    money.MustParse("100.00"),
		MaxWithdrawal: money.MustParse("50000.00"),
		MaxTransfer:   money.MustParse("100000.00"),
	}
}

// IsValidAmount reports whether amount is strictly positive.
func (l Limits) IsValidAmount(amount money.Money) bool {
	return amount.IsPositive()
}

// IsWithdrawalAllowed reports whether withdrawing amount from balance keeps
// the account at or above the minimum-balance floor and within the single
// withdrawal ceiling.
func (l Limits) IsWithdrawalAllowed(balance, amount money.Money) bool {
	if !l.IsValidAmount(amount) {
		return false
	}
	if amount.GreaterThan(l.MaxWithdrawal) {
		return false
	}
	return balance.Sub(amount).Cmp(l.MinBalance) >= 0
}

// IsTransferAllowed reports whether transferring amount out of balance keeps
// the source at or above the floor and within the single transfer ceiling.
func (l Limits) IsTransferAllowed(balance, amount money.Money) bool {
	if !l.IsValidAmount(amount) {
		return false
	}
	if amount.GreaterThan(l.MaxTransfer) {
		return false
	}
	return balance.Sub(amount).Cmp(l.MinBalance) >= 0
}

// IsDepositAllowed reports whether amount is positive and within the upper
// sanity bound (the transfer ceiling).
func (l Limits) IsDepositAllowed(amount money.Money) bool {
	return l.IsValidAmount(amount) && amount.Cmp(l.MaxTransfer) <= 0
}
