// Package checkout sequences pricing, payment-intent creation, and payment
// confirmation for a single checkout attempt.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/events"
	"github.com/craverscorner/food-ordering-website/internal/money"
	"github.com/craverscorner/food-ordering-website/internal/obs"
	"github.com/craverscorner/food-ordering-website/internal/order"
	"github.com/craverscorner/food-ordering-website/internal/payment"
)

// Attempt states. An attempt moves forward only; Succeeded and Failed are
// terminal, and a new attempt starts from a fresh totals snapshot.
const (
	StateIdle                 = "idle"
	StatePricing              = "pricing"
	StateIntentRequested      = "intent_requested"
	StateAwaitingConfirmation = "awaiting_confirmation"
	StateSucceeded            = "succeeded"
	StateFailed               = "failed"
)

var (
	ErrEmptyCart               = errors.New("checkout: cart is empty")
	ErrNonPositiveTotal        = errors.New("checkout: total must be positive")
	ErrDiscountExceedsSubtotal = errors.New("checkout: discount exceeds subtotal")
	ErrAttemptNotFound         = errors.New("checkout: attempt not found")
	ErrAttemptTerminal         = errors.New("checkout: attempt already completed")
	ErrPaymentDeclined         = errors.New("checkout: payment declined")
)

// CustomerInfo carries contact and delivery details collected at checkout.
type CustomerInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Attempt is the frozen snapshot taken at intent creation. All amounts are
// minor units; confirmation charges this snapshot regardless of later cart
// mutations.
type Attempt struct {
	IntentID     string        `json:"intentId"`
	ClientSecret string        `json:"clientSecret"`
	State        string        `json:"state"`
	Lines        []cart.Line   `json:"lines"`
	CouponCode   string        `json:"couponCode,omitempty"`
	Subtotal     int64         `json:"subtotal"`
	Discount     int64         `json:"discount"`
	Total        int64         `json:"total"`
	Currency     string        `json:"currency"`
	UserID       string        `json:"userId,omitempty"`
	Guest        bool          `json:"guest"`
	Customer     CustomerInfo  `json:"customer"`
	Identity     cart.Identity `json:"identity"`
	Reference    string        `json:"reference,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AttemptStore keeps in-flight attempts in redis, keyed by intent id.
type AttemptStore struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s *AttemptStore) key(intentID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "checkout:attempt:"
	}
	return prefix + intentID
}

func (s *AttemptStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *AttemptStore) Get(ctx context.Context, intentID string) (Attempt, error) {
	raw, err := s.R.Get(ctx, s.key(intentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	var a Attempt
	if err := json.Unmarshal(raw, &a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *AttemptStore) Put(ctx context.Context, a Attempt) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, s.key(a.IntentID), raw, s.ttl()).Err()
}

// OrderStore records confirmed orders.
type OrderStore interface {
	Create(ctx context.Context, o order.Order) error
}

// CartClearer empties the session cart after a successful payment.
type CartClearer interface {
	Clear(ctx context.Context, id cart.Identity) error
}

// Orchestrator drives a checkout attempt through its states.
type Orchestrator struct {
	Gateway  payment.Gateway
	Attempts *AttemptStore
	Orders   OrderStore
	Carts    CartClearer
	Events   *events.Bus
	Currency string
	Log      zerolog.Logger
}

// CreateIntentInput is a priced cart snapshot plus customer metadata. The
// discount is the already-evaluated amount attached to the cart; it is not
// re-fetched here.
type CreateIntentInput struct {
	Cart       cart.Cart
	Discount   decimal.Decimal
	CouponCode string
	UserID     string
	Guest      bool
	Customer   CustomerInfo
	Identity   cart.Identity
}

// CreateIntent prices the cart, opens a payment intent with the gateway, and
// freezes the attempt snapshot. The returned attempt awaits confirmation.
func (o *Orchestrator) CreateIntent(ctx context.Context, in CreateIntentInput) (Attempt, error) {
	if in.Cart.IsEmpty() {
		return Attempt{}, ErrEmptyCart
	}
	subtotal := in.Cart.Subtotal()
	discount := in.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return Attempt{}, ErrDiscountExceedsSubtotal
	}
	total := money.Round2(subtotal.Sub(discount))
	if !total.IsPositive() {
		return Attempt{}, ErrNonPositiveTotal
	}

	subtotalMinor, err := money.ToMinorUnits(subtotal)
	if err != nil {
		return Attempt{}, err
	}
	discountMinor, err := money.ToMinorUnits(discount)
	if err != nil {
		return Attempt{}, err
	}
	totalMinor, err := money.ToMinorUnits(total)
	if err != nil {
		return Attempt{}, err
	}

	metadata := map[string]string{"order_ref": uuid.NewString()}
	if in.CouponCode != "" {
		metadata["coupon_code"] = in.CouponCode
	}
	if in.UserID != "" {
		metadata["user_id"] = in.UserID
	}
	intent, err := o.Gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountMinorUnits: totalMinor,
		Currency:         o.Currency,
		ReceiptEmail:     in.Customer.Email,
		Metadata:         metadata,
	})
	if obs.PaymentIntentTotal != nil {
		result := "created"
		if err != nil {
			result = "error"
		}
		obs.PaymentIntentTotal.WithLabelValues(result).Inc()
	}
	if err != nil {
		return Attempt{}, err
	}

	attempt := Attempt{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		State:        StateAwaitingConfirmation,
		Lines:        in.Cart.Lines,
		CouponCode:   in.CouponCode,
		Subtotal:     subtotalMinor,
		Discount:     discountMinor,
		Total:        totalMinor,
		Currency:     o.Currency,
		UserID:       in.UserID,
		Guest:        in.Guest,
		Customer:     in.Customer,
		Identity:     in.Identity,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.Attempts.Put(ctx, attempt); err != nil {
		return Attempt{}, fmt.Errorf("checkout: store attempt: %w", err)
	}
	o.Log.Info().
		Str("intent_id", attempt.IntentID).
		Int64("amount", attempt.Total).
		Msg("payment intent created")
	return attempt, nil
}

// Confirm completes an awaiting attempt. Success records the order and clears
// the session cart; decline leaves the cart intact and returns
// ErrPaymentDeclined carrying the provider's message.
func (o *Orchestrator) Confirm(ctx context.Context, clientSecret, paymentMethodID string, customer CustomerInfo) (Attempt, error) {
	intentID, err := payment.IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return Attempt{}, err
	}
	attempt, err := o.Attempts.Get(ctx, intentID)
	if err != nil {
		return Attempt{}, err
	}
	if attempt.State != StateAwaitingConfirmation {
		return attempt, ErrAttemptTerminal
	}
	if customer.Name != "" {
		attempt.Customer = customer
	}

	result, err := o.Gateway.ConfirmIntent(ctx, clientSecret, payment.ConfirmRequest{
		PaymentMethodID: paymentMethodID,
		ReceiptEmail:    attempt.Customer.Email,
		Shipping: payment.ShippingInfo{
			Name:       attempt.Customer.Name,
			Line1:      attempt.Customer.Address,
			City:       attempt.Customer.City,
			PostalCode: attempt.Customer.PostalCode,
			Country:    "GB",
		},
	})
	if err != nil {
		if obs.PaymentConfirmTotal != nil {
			obs.PaymentConfirmTotal.WithLabelValues("error").Inc()
		}
		return attempt, err
	}

	if result.Status != payment.StatusSucceeded {
		attempt.State = StateFailed
		attempt.Reference = result.Reference
		if putErr := o.Attempts.Put(ctx, attempt); putErr != nil {
			o.Log.Warn().Err(putErr).Str("intent_id", attempt.IntentID).Msg("failed to store attempt state")
		}
		if obs.PaymentConfirmTotal != nil {
			obs.PaymentConfirmTotal.WithLabelValues("declined").Inc()
		}
		o.emit(ctx, events.TopicPaymentFailed, attempt.IntentID, map[string]any{
			"intentId": attempt.IntentID,
			"reason":   result.Message,
		})
		if result.Message != "" {
			return attempt, fmt.Errorf("%w: %s", ErrPaymentDeclined, result.Message)
		}
		return attempt, ErrPaymentDeclined
	}

	if obs.PaymentConfirmTotal != nil {
		obs.PaymentConfirmTotal.WithLabelValues("succeeded").Inc()
	}
	attempt.State = StateSucceeded
	attempt.Reference = result.Reference
	if putErr := o.Attempts.Put(ctx, attempt); putErr != nil {
		o.Log.Warn().Err(putErr).Str("intent_id", attempt.IntentID).Msg("failed to store attempt state")
	}

	o.finalize(ctx, attempt)
	return attempt, nil
}

// finalize records the order, clears the cart, and emits events. All steps
// are best effort; the charge has already happened.
func (o *Orchestrator) finalize(ctx context.Context, attempt Attempt) {
	if obs.OrdersTotal != nil {
		obs.OrdersTotal.Inc()
	}
	orderID := uuid.NewString()
	if o.Orders != nil {
		ord := order.Order{
			ID:           orderID,
			Email:        attempt.Customer.Email,
			CustomerName: attempt.Customer.Name,
			Items:        attempt.Lines,
			Subtotal:     money.FromMinorUnits(attempt.Subtotal),
			Discount:     money.FromMinorUnits(attempt.Discount),
			Total:        money.FromMinorUnits(attempt.Total),
			Currency:     attempt.Currency,
			Status:       order.StatusConfirmed,
			PaymentRef:   attempt.Reference,
		}
		if attempt.UserID != "" {
			ord.UserID = &attempt.UserID
		}
		if attempt.CouponCode != "" {
			ord.CouponCode = &attempt.CouponCode
		}
		if err := o.Orders.Create(ctx, ord); err != nil {
			o.Log.Error().Err(err).Str("intent_id", attempt.IntentID).Msg("failed to record order")
		}
	}
	if o.Carts != nil && attempt.Identity != (cart.Identity{}) {
		if err := o.Carts.Clear(ctx, attempt.Identity); err != nil {
			o.Log.Warn().Err(err).Str("intent_id", attempt.IntentID).Msg("failed to clear cart")
		}
	}
	o.emit(ctx, events.TopicPaymentSucceeded, attempt.IntentID, map[string]any{
		"intentId":  attempt.IntentID,
		"reference": attempt.Reference,
	})
	o.emit(ctx, events.TopicOrderCreated, orderID, map[string]any{
		"orderId": orderID,
		"email":   attempt.Customer.Email,
		"total":   money.FromMinorUnits(attempt.Total).StringFixed(2),
	})
}

func (o *Orchestrator) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if o.Events == nil {
		return
	}
	if _, err := o.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		o.Log.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}
