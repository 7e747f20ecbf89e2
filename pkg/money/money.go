// Package money provides the fixed-point monetary amount used across the
// ledger. All amounts carry exactly two decimal places and every rounding in
// the system happens here, with half-up semantics, so that replaying a ledger
// always reconciles to the same balances.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable fixed-point amount with a scale of 2.
// The zero value is $0.00 and is ready to use.
type Money struct {
	amount decimal.Decimal
}

var (
	half = decimal.New(5, -1)
	one  = decimal.New(1, 0)
)

// round2 rounds to two decimal places, half-up: exact .005 halves move toward
// positive infinity regardless of sign.
func round2(d decimal.Decimal) decimal.Decimal {
	shifted := d.Shift(2)
	floor := shifted.Floor()
	if shifted.Sub(floor).Cmp(half) >= 0 {
		floor = floor.Add(one)
	}
	return floor.Shift(-2)
}

// New builds a Money from a decimal, rounding half-up to two places.
func New(d decimal.Decimal) Money {
	return Money{amount: round2(d)}
}

// Zero returns $0.00.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Parse parses a plain decimal string such as "123.45".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return New(d), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a float, rounding half-up to two places.
func FromFloat(f float64) Money {
	return New(decimal.NewFromFloat(f))
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return New(m.amount.Add(o.amount))
}

// Sub returns m - o. The result may be negative; callers enforce floors.
func (m Money) Sub(o Money) Money {
	return New(m.amount.Sub(o.amount))
}

// MulRate multiplies by an arbitrary-precision rate and rounds the product
// half-up to two places. Used for fee/interest style calculations.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return New(m.amount.Mul(rate))
}

// Cmp compares m and o: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

// Equal reports whether the two amounts are identical.
func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool {
	return m.amount.LessThan(o.amount)
}

// GreaterThan reports m > o.
func (m Money) GreaterThan(o Money) bool {
	return m.amount.GreaterThan(o.amount)
}

// IsPositive reports m > 0.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports m < 0.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsZero reports m == 0.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Decimal exposes the underlying decimal, already at scale 2, for
// persistence layers.
func (m Money) Decimal() decimal.Decimal {
	return m.amount.Round(2)
}

// Amount renders the plain numeric form with two decimals, e.g. "1234.50".
func (m Money) Amount() string {
	return m.amount.StringFixed(2)
}

// String renders the canonical display form: "$1,234.50". Negative amounts
// render as "-$1,234.50".
func (m Money) String() string {
	s := m.amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if m.amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// MarshalJSON encodes the amount as a JSON string, e.g. "1234.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Amount() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
