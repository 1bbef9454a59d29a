package checkout

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craverscorner/food-ordering-website/internal/payment"
)

func newHandler(t *testing.T, gw *fakeGateway) *Handler {
	t.Helper()
	orch, _, _ := newOrchestrator(t, gw)
	return &Handler{Svc: orch}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateIntentEndpoint(t *testing.T) {
	gw := &fakeGateway{intent: payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{
		"items": [
			{"id": "margherita", "name": "Margherita", "price": "12.99", "quantity": 2},
			{"id": "garlic-bread", "name": "Garlic Bread", "price": "8.99", "quantity": 1}
		],
		"subtotal": 3497, "discount": 0, "total": 3497,
		"isGuestCheckout": true,
		"userInfo": {"name": "Ada", "email": "ada@example.com"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"clientSecret":"pi_1_secret_x"}`, rec.Body.String())
}

func TestCreateIntentEndpointRejectsNonIntegerAmounts(t *testing.T) {
	gw := &fakeGateway{}
	h := newHandler(t, gw)

	for _, body := range []string{
		`{"items":[{"id":"a","price":"1.00","quantity":1}],"subtotal":34.97,"discount":0,"total":34.97}`,
		`{"items":[{"id":"a","price":"1.00","quantity":1}],"subtotal":-100,"discount":0,"total":100}`,
		`{"items":[{"id":"a","price":"1.00","quantity":1}],"discount":0,"total":100}`,
	} {
		rec := postJSON(t, h.CreateIntent, body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, body)
		require.Contains(t, rec.Body.String(), "error")
	}
	require.Zero(t, gw.createCalls)
}

func TestCreateIntentEndpointEmptyCart(t *testing.T) {
	gw := &fakeGateway{}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{"items":[],"subtotal":0,"discount":0,"total":0}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"cart is empty"}`, rec.Body.String())
	require.Zero(t, gw.createCalls)
}

func TestConfirmPaymentEndpointSuccess(t *testing.T) {
	gw := &fakeGateway{
		intent:        payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmResult: payment.ConfirmResult{Status: payment.StatusSucceeded, Reference: "pi_1"},
	}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{
		"items": [{"id": "margherita", "price": "12.99", "quantity": 1}],
		"subtotal": 1299, "discount": 0, "total": 1299
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ConfirmPayment, `{"paymentMethodId":"pm_card","clientSecret":"pi_1_secret_x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)
	require.Contains(t, rec.Body.String(), `"id":"pi_1"`)
}

func TestConfirmPaymentEndpointDecline(t *testing.T) {
	gw := &fakeGateway{
		intent:        payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmResult: payment.ConfirmResult{Status: payment.StatusFailed, Reference: "pi_1", Message: "Your card was declined."},
	}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{
		"items": [{"id": "margherita", "price": "12.99", "quantity": 1}],
		"subtotal": 1299, "discount": 0, "total": 1299
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ConfirmPayment, `{"paymentMethodId":"pm_card","clientSecret":"pi_1_secret_x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Your card was declined."}`, rec.Body.String())
}

func TestCreateIntentEndpointSurfacesGatewayMessage(t *testing.T) {
	gw := &fakeGateway{createErr: fmt.Errorf("%w: stripe says: upstream maintenance window", payment.ErrUnavailable)}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{
		"items": [{"id": "margherita", "price": "12.99", "quantity": 1}],
		"subtotal": 1299, "discount": 0, "total": 1299
	}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"stripe says: upstream maintenance window"}`, rec.Body.String())
}

func TestConfirmPaymentEndpointSurfacesGatewayMessage(t *testing.T) {
	gw := &fakeGateway{
		intent:     payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"},
		confirmErr: fmt.Errorf("%w: card network timeout", payment.ErrUnavailable),
	}
	h := newHandler(t, gw)

	rec := postJSON(t, h.CreateIntent, `{
		"items": [{"id": "margherita", "price": "12.99", "quantity": 1}],
		"subtotal": 1299, "discount": 0, "total": 1299
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ConfirmPayment, `{"paymentMethodId":"pm_card","clientSecret":"pi_1_secret_x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"card network timeout"}`, rec.Body.String())
}

func TestConfirmPaymentEndpointMissingFields(t *testing.T) {
	h := newHandler(t, &fakeGateway{})

	rec := postJSON(t, h.ConfirmPayment, `{"paymentMethodId":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
