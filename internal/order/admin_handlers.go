package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// AdminHandler provides kitchen-side order management.
type AdminHandler struct {
	Store *PGStore
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && statusRank(status) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown status filter", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, total, err := h.Store.List(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, Total: total},
	})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus advances an order through the kitchen pipeline. Transitions
// only move forward; equal or earlier states are rejected.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	target := req.Status
	if statusRank(target) == 0 || target == StatusConfirmed {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	current, err := h.Store.GetStatus(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if statusRank(current) >= statusRank(target) {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "cannot transition to equal or previous state", nil)
		return
	}
	if err := h.Store.UpdateStatus(r.Context(), orderID, target); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusRank(status string) int {
	switch status {
	case StatusConfirmed:
		return 1
	case StatusPreparing:
		return 2
	case StatusReady:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}
