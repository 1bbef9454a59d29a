package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PreviewResult describes the outcome of evaluating a coupon without
// attaching it to a cart.
type PreviewResult struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Service resolves coupon codes and evaluates them against order subtotals.
type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve looks up an active rule by code and evaluates it against the
// subtotal. The returned discount is what applyCoupon would lock in.
func (s *Service) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (Discount, error) {
	if s == nil || s.Store == nil {
		return Discount{}, errors.New("coupon service not configured")
	}
	if strings.TrimSpace(code) == "" {
		return Discount{}, fmt.Errorf("code is required: %w", ErrNotFound)
	}
	rule, err := s.Store.GetByCode(ctx, code)
	if err != nil {
		return Discount{}, err
	}
	return Evaluate(rule, subtotal, s.now())
}

// Preview performs a dry-run evaluation for the storefront coupon field.
func (s *Service) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (PreviewResult, error) {
	d, err := s.Resolve(ctx, code, subtotal)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{Code: d.Rule.Code, Discount: d.Amount}, nil
}
