package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/money"
)

var (
	// ErrNotFound is returned when no active coupon matches the code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when the coupon is used outside its validity window.
	ErrExpired = errors.New("coupon expired")
	// ErrMinimumOrderNotMet indicates the order subtotal is below the coupon floor.
	ErrMinimumOrderNotMet = errors.New("coupon minimum order not met")
	// ErrUnknownKind indicates a rule whose discount type is not recognised.
	ErrUnknownKind = errors.New("coupon kind not recognised")
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	// KindPercentage discounts a percentage of the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a fixed amount, capped at the subtotal.
	KindFixed Kind = "fixed"
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	ID             string
	Code           string
	Kind           Kind
	Value          decimal.Decimal
	MinOrderAmount *decimal.Decimal
	MaxDiscount    *decimal.Decimal
	ValidFrom      time.Time
	ValidUntil     time.Time
	Active         bool
}

// Discount is the result of a successful evaluation.
type Discount struct {
	Amount decimal.Decimal
	Rule   Rule
}

// NormalizeCode canonicalises a coupon code for case-insensitive matching.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Evaluate validates the rule against an order subtotal at the provided
// instant and computes the discount. Evaluation is pure; attaching the result
// to a cart is a separate step. The validity window is closed at both bounds.
func Evaluate(r Rule, subtotal decimal.Decimal, now time.Time) (Discount, error) {
	if !r.Active {
		return Discount{}, ErrNotFound
	}
	if now.Before(r.ValidFrom) || now.After(r.ValidUntil) {
		return Discount{}, ErrExpired
	}
	if r.MinOrderAmount != nil && subtotal.LessThan(*r.MinOrderAmount) {
		return Discount{}, ErrMinimumOrderNotMet
	}

	var amount decimal.Decimal
	switch r.Kind {
	case KindPercentage:
		amount = money.Round2(subtotal.Mul(r.Value).Div(decimal.NewFromInt(100)))
		if r.MaxDiscount != nil && amount.GreaterThan(*r.MaxDiscount) {
			amount = *r.MaxDiscount
		}
	case KindFixed:
		amount = r.Value
	default:
		return Discount{}, ErrUnknownKind
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return Discount{Amount: amount, Rule: r}, nil
}
