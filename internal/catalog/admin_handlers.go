package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// AdminHandler exposes menu and category management for the admin console.
type AdminHandler struct {
	Svc *Service
}

func (h *AdminHandler) writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		err = common.NewAppError("NOT_FOUND", "not found", http.StatusNotFound, err)
	} else if _, ok := common.AsAppError(err); !ok {
		err = common.NewAppError("INTERNAL", "catalog operation failed", http.StatusInternalServerError, err)
	}
	common.RenderError(w, err)
}

// CreateMenuItem inserts a menu item.
func (h *AdminHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item MenuItem
	if err := common.DecodeJSON(r, &item); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(item.Name) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}
	if item.Price.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "price must not be negative", nil)
		return
	}
	created, err := h.Svc.CreateMenuItem(r.Context(), item)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// UpdateMenuItem overwrites a menu item by id.
func (h *AdminHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item MenuItem
	if err := common.DecodeJSON(r, &item); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	item.ID = chi.URLParam(r, "id")
	if item.Price.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "price must not be negative", nil)
		return
	}
	updated, err := h.Svc.UpdateMenuItem(r.Context(), item)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// DeleteMenuItem removes a menu item by id.
func (h *AdminHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory inserts a category.
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c Category
	if err := common.DecodeJSON(r, &c); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required", nil)
		return
	}
	created, err := h.Svc.CreateCategory(r.Context(), c)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// UpdateCategory overwrites a category by id.
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c Category
	if err := common.DecodeJSON(r, &c); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c.ID = chi.URLParam(r, "id")
	updated, err := h.Svc.UpdateCategory(r.Context(), c)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// DeleteCategory removes a category by id.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
