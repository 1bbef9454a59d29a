package cart

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craverscorner/food-ordering-website/internal/catalog"
	"github.com/craverscorner/food-ordering-website/internal/common"
	"github.com/craverscorner/food-ordering-website/internal/coupon"
)

// SessionHeader names the anonymous cart session header sent by the
// storefront for guests.
const SessionHeader = "X-Cart-Session"

// Handler exposes the cart session API.
type Handler struct {
	Svc *Service
}

type cartResponse struct {
	Cart   Cart   `json:"cart"`
	Totals Totals `json:"totals"`
}

func identityFromRequest(r *http.Request) (Identity, bool) {
	if userID, ok := common.UserID(r.Context()); ok {
		return Identity{UserID: userID}, true
	}
	if session := strings.TrimSpace(r.Header.Get(SessionHeader)); session != "" {
		return Identity{SessionID: session}, true
	}
	return Identity{}, false
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	id, ok := identityFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "missing cart session", nil)
	}
	return id, ok
}

func (h *Handler) render(w http.ResponseWriter, c Cart, t Totals) {
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse{Cart: c, Totals: t}})
}

func (h *Handler) renderErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidItem):
		common.JSONError(w, http.StatusBadRequest, "INVALID_ITEM", "item identifier is required", nil)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be at least 1", nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
	case errors.Is(err, coupon.ErrNotFound), errors.Is(err, coupon.ErrExpired), errors.Is(err, coupon.ErrMinimumOrderNotMet):
		coupon.RenderEvaluationError(w, err)
	default:
		common.RenderError(w, common.NewAppError("INTERNAL", "cart operation failed", http.StatusInternalServerError, err))
	}
}

// Get returns the current cart with totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	c, t, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// AddItem adds one unit of a menu item to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, t, err := h.Svc.AddItem(r.Context(), id, strings.TrimSpace(req.ItemID))
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// UpdateItem overwrites the quantity for a line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	c, t, err := h.Svc.SetQuantity(r.Context(), id, itemID, req.Quantity)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// RemoveItem deletes a line entirely.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	c, t, err := h.Svc.RemoveItem(r.Context(), id, chi.URLParam(r, "itemId"))
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Clear(r.Context(), id); err != nil {
		h.renderErr(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartResponse{}})
}

// ApplyCoupon validates a code against the cart and attaches it.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, t, err := h.Svc.ApplyCoupon(r.Context(), id, req.Code)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// RemoveCoupon detaches the applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	c, t, err := h.Svc.RemoveCoupon(r.Context(), id)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}

// Merge reconciles the guest session cart with the signed-in user's remote
// snapshot. Requires authentication.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required", nil)
		return
	}
	session := strings.TrimSpace(r.Header.Get(SessionHeader))
	c, t, err := h.Svc.Merge(r.Context(), userID, session)
	if err != nil {
		h.renderErr(w, err)
		return
	}
	h.render(w, c, t)
}
