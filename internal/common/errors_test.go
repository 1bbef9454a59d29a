package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("row not found")
	appErr := NewAppError("NOT_FOUND", "menu item not found", http.StatusNotFound, cause)

	require.EqualError(t, appErr, "row not found")
	require.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("list menu: %w", appErr)
	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	require.Equal(t, "NOT_FOUND", got.Code)
	require.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestAsAppErrorPlainError(t *testing.T) {
	_, ok := AsAppError(errors.New("boom"))
	require.False(t, ok)
}

func TestRenderErrorUsesAppErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderError(rec, NewAppError("CONFLICT", "coupon code already exists", http.StatusConflict, nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"error":{"code":"CONFLICT","message":"coupon code already exists"}}`, rec.Body.String())
}

func TestRenderErrorFallsBackToInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderError(rec, errors.New("connection reset"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":{"code":"INTERNAL","message":"internal error"}}`, rec.Body.String())
}
