// Package types provides common type aliases and utilities.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with exact decimal arithmetic.
// All amounts in the ledger are normalized to 2 fractional digits
// (cent precision); repeated partial-payment additions never drift.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits carried by Money values.
const MoneyScale int32 = 2

// MoneyFromString parses a decimal string into Money.
// Inputs with more than 2 fractional digits are rejected rather than
// rounded, so a caller can never smuggle sub-cent amounts into the ledger.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	if d.Exponent() < -MoneyScale {
		return decimal.Zero, fmt.Errorf("money %q exceeds %d fractional digits", s, MoneyScale)
	}
	return d, nil
}

// MustMoney parses a decimal string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MoneyFromCents creates Money from an integer count of minor units.
func MoneyFromCents(cents int64) Money {
	return decimal.New(cents, -MoneyScale)
}

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// MulInt multiplies a Money value by an integer quantity. Exact.
func MulInt(m Money, qty int64) Money {
	return m.Mul(decimal.NewFromInt(qty))
}

// DivInt divides a Money value by an integer divisor, producing a quotient
// truncated to cent precision plus the exact remainder, so that
// m == quotient*n + remainder. The remainder lets callers (the batch
// reconciler) allocate leftover cents deterministically instead of losing
// them to rounding.
func DivInt(m Money, n int64) (quotient, remainder Money) {
	return m.QuoRem(decimal.NewFromInt(n), MoneyScale)
}

// Cents returns the value as an integer count of minor units.
// The value must already be at cent precision.
func Cents(m Money) int64 {
	return m.Shift(MoneyScale).IntPart()
}
