package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rules map[string]Rule
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (Rule, error) {
	rule, ok := f.rules[NormalizeCode(code)]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

func newService(rules ...Rule) *Service {
	store := &fakeStore{rules: map[string]Rule{}}
	for _, r := range rules {
		store.rules[NormalizeCode(r.Code)] = r
	}
	return &Service{Store: store, Now: func() time.Time {
		return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func juneRule(kind Kind, value string) Rule {
	return Rule{
		Code:       "tenoff",
		Kind:       kind,
		Value:      dec(value),
		ValidFrom:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	svc := newService(juneRule(KindFixed, "5"))

	got, err := svc.Resolve(context.Background(), "  TENOFF ", dec("40"))
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(dec("5")))
}

func TestResolveUnknownCode(t *testing.T) {
	svc := newService()

	_, err := svc.Resolve(context.Background(), "nope", dec("40"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveEmptyCode(t *testing.T) {
	svc := newService(juneRule(KindFixed, "5"))

	_, err := svc.Resolve(context.Background(), "   ", dec("40"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewScenarioB(t *testing.T) {
	rule := juneRule(KindPercentage, "10")
	rule.MaxDiscount = decPtr("3.00")
	svc := newService(rule)

	got, err := svc.Preview(context.Background(), "tenoff", dec("34.97"))
	require.NoError(t, err)
	require.True(t, got.Discount.Equal(dec("3.00")), "expected min(round2(3.497), 3.00), got %s", got.Discount)
}

func TestPreviewScenarioC(t *testing.T) {
	rule := juneRule(KindPercentage, "10")
	rule.MinOrderAmount = decPtr("50")
	svc := newService(rule)

	_, err := svc.Preview(context.Background(), "tenoff", dec("34.97"))
	require.True(t, errors.Is(err, ErrMinimumOrderNotMet))
}
