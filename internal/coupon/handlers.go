package coupon

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/craverscorner/food-ordering-website/internal/common"
	"github.com/craverscorner/food-ordering-website/internal/obs"
)

// Handler exposes the storefront coupon preview endpoint.
type Handler struct {
	Svc *Service
}

type previewRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Preview evaluates a coupon code against a subtotal without applying it, so
// the UI can show the discount before commit.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req previewRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		RenderEvaluationError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// RenderEvaluationError maps coupon evaluation failures to field-level API
// errors. Unknown errors fall through as internal.
func RenderEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		countRejection("not_found")
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrExpired):
		countRejection("expired")
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_EXPIRED", "coupon is not valid at this time", nil)
	case errors.Is(err, ErrMinimumOrderNotMet):
		countRejection("minimum_order")
		common.JSONError(w, http.StatusUnprocessableEntity, "MINIMUM_ORDER_NOT_MET", "order subtotal below coupon minimum", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate coupon", nil)
	}
}

func countRejection(reason string) {
	if obs.CouponRejectionsTotal != nil {
		obs.CouponRejectionsTotal.WithLabelValues(reason).Inc()
	}
}
