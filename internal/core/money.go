// Package core holds the domain model: users, expenses, budgets, and the
// money and date types they share.
//
// This file handles monetary amounts. Amounts are stored as integer cents so
// sums in SQL stay exact; the decimal package guards the boundary where JSON
// numbers enter and leave the system.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a positive amount in cents. Arithmetic and aggregation happen on
// cents; use Decimal only for formatting and boundary conversion.
type Money struct {
	Cents int64
}

var hundred = decimal.New(100, 0)

// MoneyFromDecimal converts a decimal amount to Money.
//
// The conversion is exact: amounts with more than two fractional digits are
// rejected rather than rounded, so every stored cent value round-trips to the
// decimal the client sent. Zero and negative amounts are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	if cents.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	big := cents.BigInt()
	if !big.IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: big.Int64()}, nil
}

// ParseMoney parses a decimal string ("4.5", "12.34") into Money.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().String()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders the amount as a plain JSON number ("4.5", not "4.50"),
// matching what the decimal package produces for the same value.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return ErrInvalidAmount
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
