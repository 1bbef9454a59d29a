package coupon

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// AdminHandler exposes coupon management endpoints for the admin console.
type AdminHandler struct {
	Store *PGStore
}

type couponPayload struct {
	Code           string           `json:"code"`
	DiscountType   string           `json:"discountType"`
	DiscountValue  decimal.Decimal  `json:"discountValue"`
	MinOrderAmount *decimal.Decimal `json:"minOrderAmount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	ValidFrom      time.Time        `json:"validFrom"`
	ValidUntil     time.Time        `json:"validUntil"`
	Active         *bool            `json:"active"`
}

func (p couponPayload) toRule() (Rule, error) {
	kind := Kind(strings.TrimSpace(p.DiscountType))
	switch kind {
	case KindPercentage, KindFixed:
	default:
		return Rule{}, errors.New("discountType must be percentage or fixed")
	}
	if p.DiscountValue.IsNegative() || p.DiscountValue.IsZero() {
		return Rule{}, errors.New("discountValue must be positive")
	}
	if kind == KindFixed && p.MaxDiscount != nil {
		return Rule{}, errors.New("maxDiscount only applies to percentage coupons")
	}
	if !p.ValidUntil.After(p.ValidFrom) {
		return Rule{}, errors.New("validUntil must be after validFrom")
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return Rule{
		Code:           p.Code,
		Kind:           kind,
		Value:          p.DiscountValue,
		MinOrderAmount: p.MinOrderAmount,
		MaxDiscount:    p.MaxDiscount,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
		Active:         active,
	}, nil
}

// List returns all coupon rules.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	rules, err := h.Store.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list coupons", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// Create inserts a new coupon rule.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	var payload couponPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.Code) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	rule, err := payload.toRule()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), rule)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update overwrites an existing coupon rule identified by code.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var payload couponPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rule, err := payload.toRule()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Store.Update(r.Context(), code, rule)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete removes a coupon rule by code.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), code); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"code": NormalizeCode(code)}})
}
