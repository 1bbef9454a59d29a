package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminWriteErrNotFound(t *testing.T) {
	h := &AdminHandler{}
	rec := httptest.NewRecorder()
	h.writeErr(rec, fmt.Errorf("get menu item: %w", ErrNotFound))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"not found"}}`, rec.Body.String())
}

func TestAdminWriteErrInternal(t *testing.T) {
	h := &AdminHandler{}
	rec := httptest.NewRecorder()
	h.writeErr(rec, errors.New("connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":{"code":"INTERNAL","message":"catalog operation failed"}}`, rec.Body.String())
}
