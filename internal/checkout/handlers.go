package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/common"
	"github.com/craverscorner/food-ordering-website/internal/money"
	"github.com/craverscorner/food-ordering-website/internal/payment"
)

var validate = validator.New()

// Handler exposes the payment endpoints consumed by the storefront client.
type Handler struct {
	Svc *Orchestrator
}

type checkoutItem struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=1"`
}

type createIntentRequest struct {
	Items           []checkoutItem `json:"items"`
	UserID          string         `json:"userId"`
	CouponID        string         `json:"couponId"`
	Subtotal        json.Number    `json:"subtotal"`
	Discount        json.Number    `json:"discount"`
	Total           json.Number    `json:"total"`
	IsGuestCheckout bool           `json:"isGuestCheckout"`
	UserInfo        CustomerInfo   `json:"userInfo"`
}

// CreateIntent handles POST /api/create-payment-intent. Amounts arrive as
// integer minor units and must be non-negative integers; anything else is a
// 500 with a plain error message, matching the storefront client contract.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "invalid request body")
		return
	}
	for _, field := range []json.Number{req.Subtotal, req.Discount, req.Total} {
		if !isNonNegativeInteger(field) {
			writeAPIError(w, http.StatusInternalServerError, "amounts must be non-negative integers")
			return
		}
	}
	discountMinor, _ := req.Discount.Int64()

	var c cart.Cart
	for _, item := range req.Items {
		if err := validate.Struct(item); err != nil {
			writeAPIError(w, http.StatusInternalServerError, "invalid cart item")
			return
		}
		if err := c.AddItem(cart.Line{ItemID: item.ID, Name: item.Name, UnitPrice: item.Price}); err != nil {
			writeAPIError(w, http.StatusInternalServerError, "invalid cart item")
			return
		}
		if err := c.SetQuantity(item.ID, item.Quantity); err != nil {
			writeAPIError(w, http.StatusInternalServerError, "invalid cart item")
			return
		}
	}

	attempt, err := h.Svc.CreateIntent(r.Context(), CreateIntentInput{
		Cart:       c,
		Discount:   money.FromMinorUnits(discountMinor),
		CouponCode: req.CouponID,
		UserID:     req.UserID,
		Guest:      req.IsGuestCheckout,
		Customer:   req.UserInfo,
		Identity:   identityFromRequest(r, req.UserID),
	})
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, createIntentErrorMessage(err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"clientSecret": attempt.ClientSecret})
}

type confirmRequest struct {
	PaymentMethodID string       `json:"paymentMethodId" validate:"required"`
	ClientSecret    string       `json:"clientSecret" validate:"required"`
	UserInfo        CustomerInfo `json:"userInfo"`
}

// ConfirmPayment handles POST /api/confirm-payment. A declined payment is a
// 400 with the provider's message; transport failures are 500s.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "paymentMethodId and clientSecret are required")
		return
	}

	attempt, err := h.Svc.Confirm(r.Context(), req.ClientSecret, req.PaymentMethodID, req.UserInfo)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentDeclined):
			writeAPIError(w, http.StatusBadRequest, declineMessage(err))
		case errors.Is(err, ErrAttemptTerminal):
			writeAPIError(w, http.StatusBadRequest, "payment attempt already completed")
		default:
			msg := gatewayErrorMessage(err)
			if msg == "" {
				msg = "payment confirmation failed"
			}
			writeAPIError(w, http.StatusInternalServerError, msg)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"paymentIntent": map[string]any{
			"id":        attempt.IntentID,
			"status":    attempt.State,
			"amount":    attempt.Total,
			"currency":  attempt.Currency,
			"reference": attempt.Reference,
		},
	})
}

// writeAPIError uses the flat {"error": "..."} shape these two endpoints
// have always returned, not the envelope used elsewhere.
func writeAPIError(w http.ResponseWriter, status int, message string) {
	common.JSON(w, status, map[string]any{"error": message})
}

func isNonNegativeInteger(n json.Number) bool {
	v, err := n.Int64()
	return err == nil && v >= 0
}

func identityFromRequest(r *http.Request, bodyUserID string) cart.Identity {
	if userID, ok := common.UserID(r.Context()); ok && userID != "" {
		return cart.Identity{UserID: userID}
	}
	if bodyUserID != "" {
		return cart.Identity{UserID: bodyUserID}
	}
	if session := r.Header.Get(cart.SessionHeader); session != "" {
		return cart.Identity{SessionID: session}
	}
	return cart.Identity{}
}

func createIntentErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "cart is empty"
	case errors.Is(err, ErrNonPositiveTotal):
		return "order total must be positive"
	case errors.Is(err, ErrDiscountExceedsSubtotal):
		return "discount exceeds subtotal"
	case errors.Is(err, money.ErrInvalidAmount):
		return "invalid amount"
	case errors.Is(err, payment.ErrInvalidResponse), errors.Is(err, payment.ErrUnavailable):
		return gatewayErrorMessage(err)
	default:
		return "failed to create payment intent"
	}
}

// gatewayErrorMessage unwraps the provider text from a gateway error so the
// client sees the upstream message, not a generic rewording of it.
func gatewayErrorMessage(err error) string {
	var sentinel error
	switch {
	case errors.Is(err, payment.ErrUnavailable):
		sentinel = payment.ErrUnavailable
	case errors.Is(err, payment.ErrInvalidResponse):
		sentinel = payment.ErrInvalidResponse
	default:
		return ""
	}
	if rest, ok := strings.CutPrefix(err.Error(), sentinel.Error()+": "); ok && strings.TrimSpace(rest) != "" {
		return rest
	}
	return err.Error()
}

func declineMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return "payment declined"
}
