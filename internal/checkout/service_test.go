package checkout

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/order"
	"github.com/craverscorner/food-ordering-website/internal/payment"
)

type fakeGateway struct {
	createCalls   int
	confirmCalls  int
	intent        payment.Intent
	createErr     error
	confirmResult payment.ConfirmResult
	confirmErr    error
}

func (f *fakeGateway) CreateIntent(context.Context, payment.IntentRequest) (payment.Intent, error) {
	f.createCalls++
	return f.intent, f.createErr
}

func (f *fakeGateway) ConfirmIntent(context.Context, string, payment.ConfirmRequest) (payment.ConfirmResult, error) {
	f.confirmCalls++
	return f.confirmResult, f.confirmErr
}

type fakeOrders struct {
	created []order.Order
	err     error
}

func (f *fakeOrders) Create(_ context.Context, o order.Order) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, o)
	return nil
}

type fakeClearer struct {
	cleared []cart.Identity
}

func (f *fakeClearer) Clear(_ context.Context, id cart.Identity) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func newOrchestrator(t *testing.T, gw *fakeGateway) (*Orchestrator, *fakeOrders, *fakeClearer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	orders := &fakeOrders{}
	clearer := &fakeClearer{}
	return &Orchestrator{
		Gateway:  gw,
		Attempts: &AttemptStore{R: client},
		Orders:   orders,
		Carts:    clearer,
		Currency: "gbp",
	}, orders, clearer
}

func testCart(t *testing.T) cart.Cart {
	t.Helper()
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "margherita", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.99")}))
	require.NoError(t, c.SetQuantity("margherita", 2))
	require.NoError(t, c.AddItem(cart.Line{ItemID: "garlic-bread", Name: "Garlic Bread", UnitPrice: decimal.RequireFromString("8.99")}))
	return c
}

func TestCreateIntentEmptyCartSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	orch, _, _ := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Zero(t, gw.createCalls)
}

func TestCreateIntentPricingGuards(t *testing.T) {
	gw := &fakeGateway{}
	orch, _, _ := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{
		Cart:     testCart(t),
		Discount: decimal.RequireFromString("100.00"),
	})
	require.ErrorIs(t, err, ErrDiscountExceedsSubtotal)

	_, err = orch.CreateIntent(context.Background(), CreateIntentInput{
		Cart:     testCart(t),
		Discount: decimal.RequireFromString("34.97"),
	})
	require.ErrorIs(t, err, ErrNonPositiveTotal)
	require.Zero(t, gw.createCalls)
}

func TestCreateIntentFreezesAmounts(t *testing.T) {
	gw := &fakeGateway{intent: payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x", Status: payment.StatusPending}}
	orch, _, _ := newOrchestrator(t, gw)

	attempt, err := orch.CreateIntent(context.Background(), CreateIntentInput{
		Cart:       testCart(t),
		Discount:   decimal.RequireFromString("3.00"),
		CouponCode: "save10",
		UserID:     "user-1",
		Identity:   cart.Identity{UserID: "user-1"},
	})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingConfirmation, attempt.State)
	require.EqualValues(t, 3497, attempt.Subtotal)
	require.EqualValues(t, 300, attempt.Discount)
	require.EqualValues(t, 3197, attempt.Total)

	stored, err := orch.Attempts.Get(context.Background(), "pi_1")
	require.NoError(t, err)
	require.Equal(t, attempt.Total, stored.Total)
	require.Len(t, stored.Lines, 2)
}

func TestConfirmSuccessRecordsOrderAndClearsCart(t *testing.T) {
	gw := &fakeGateway{
		intent:        payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmResult: payment.ConfirmResult{Status: payment.StatusSucceeded, Reference: "pi_1"},
	}
	orch, orders, clearer := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{
		Cart:     testCart(t),
		UserID:   "user-1",
		Identity: cart.Identity{UserID: "user-1"},
		Customer: CustomerInfo{Name: "Ada", Email: "ada@example.com"},
	})
	require.NoError(t, err)

	attempt, err := orch.Confirm(context.Background(), "pi_1_secret_x", "pm_card", CustomerInfo{})
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, attempt.State)
	require.Equal(t, "pi_1", attempt.Reference)

	require.Len(t, orders.created, 1)
	require.Equal(t, "ada@example.com", orders.created[0].Email)
	require.Equal(t, "34.97", orders.created[0].Total.StringFixed(2))
	require.Equal(t, order.StatusConfirmed, orders.created[0].Status)

	require.Equal(t, []cart.Identity{{UserID: "user-1"}}, clearer.cleared)
}

func TestConfirmDeclineLeavesCartIntact(t *testing.T) {
	gw := &fakeGateway{
		intent:        payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmResult: payment.ConfirmResult{Status: payment.StatusFailed, Reference: "pi_1", Message: "Your card was declined."},
	}
	orch, orders, clearer := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{
		Cart:     testCart(t),
		Identity: cart.Identity{SessionID: "sess-1"},
	})
	require.NoError(t, err)

	attempt, err := orch.Confirm(context.Background(), "pi_1_secret_x", "pm_card", CustomerInfo{})
	require.ErrorIs(t, err, ErrPaymentDeclined)
	require.Contains(t, err.Error(), "Your card was declined.")
	require.Equal(t, StateFailed, attempt.State)

	require.Empty(t, orders.created)
	require.Empty(t, clearer.cleared)
}

func TestConfirmTerminalAttemptRejected(t *testing.T) {
	gw := &fakeGateway{
		intent:        payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmResult: payment.ConfirmResult{Status: payment.StatusSucceeded, Reference: "pi_1"},
	}
	orch, _, _ := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{Cart: testCart(t)})
	require.NoError(t, err)
	_, err = orch.Confirm(context.Background(), "pi_1_secret_x", "pm_card", CustomerInfo{})
	require.NoError(t, err)

	_, err = orch.Confirm(context.Background(), "pi_1_secret_x", "pm_card", CustomerInfo{})
	require.ErrorIs(t, err, ErrAttemptTerminal)
	require.Equal(t, 1, gw.confirmCalls)
}

func TestConfirmUnknownAttempt(t *testing.T) {
	gw := &fakeGateway{}
	orch, _, _ := newOrchestrator(t, gw)

	_, err := orch.Confirm(context.Background(), "pi_missing_secret_x", "pm_card", CustomerInfo{})
	require.ErrorIs(t, err, ErrAttemptNotFound)
	require.Zero(t, gw.confirmCalls)
}

func TestConfirmGatewayErrorKeepsAttemptOpen(t *testing.T) {
	gw := &fakeGateway{
		intent:     payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmErr: payment.ErrUnavailable,
	}
	orch, _, _ := newOrchestrator(t, gw)

	_, err := orch.CreateIntent(context.Background(), CreateIntentInput{Cart: testCart(t)})
	require.NoError(t, err)

	_, err = orch.Confirm(context.Background(), "pi_1_secret_x", "pm_card", CustomerInfo{})
	require.ErrorIs(t, err, payment.ErrUnavailable)

	stored, err := orch.Attempts.Get(context.Background(), "pi_1")
	require.NoError(t, err)
	require.Equal(t, StateAwaitingConfirmation, stored.State)
}
