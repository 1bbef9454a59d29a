package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// Handler serves public storefront reads.
type Handler struct {
	Svc *Service
}

// Menu lists available items, optionally filtered by ?category=.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.ListMenu(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load menu", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// MenuItem returns a single item by id.
func (h *Handler) MenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load menu item", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Categories lists the menu categories in display order.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.ListCategories(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load categories", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}
