// Package money provides fixed-point currency arithmetic for cart pricing.
//
// All amounts are decimal values with two fractional digits. Totals are
// rounded after every arithmetic step (each line multiplication and the final
// sum) rather than once at the end, so a many-line order never accumulates
// sub-penny drift.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be represented as a
// non-negative integer count of minor units.
var ErrInvalidAmount = errors.New("money: invalid amount")

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places using half-up rounding.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ToMinorUnits converts a decimal currency amount into an integer count of
// minor units (pence). It fails if the amount is negative or does not land on
// a whole number of minor units.
func ToMinorUnits(v decimal.Decimal) (int64, error) {
	if v.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, v)
	}
	minor := v.Mul(hundred)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not a whole number of minor units", ErrInvalidAmount, v)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts an integer count of minor units back into a decimal
// amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// LineTotal computes Round2(unitPrice × quantity) for a single line.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
