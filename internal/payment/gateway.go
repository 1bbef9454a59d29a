// Package payment abstracts the hosted payment processor. The processor is
// an opaque external service: this package speaks its REST surface and
// normalises responses, nothing more.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the gateway could not be reached or answered
	// with a server error. The provider message is wrapped verbatim.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidResponse indicates the gateway answered without the handle
	// the checkout flow needs.
	ErrInvalidResponse = errors.New("invalid payment gateway response")
)

// Intent statuses as normalised from the provider.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// IntentRequest carries the amounts and metadata for opening a payment
// intent. Amounts are integer minor units.
type IntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	ReceiptEmail     string
	Metadata         map[string]string
}

// Intent is the gateway handle for an in-progress payment.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// ShippingInfo is forwarded to the gateway at confirmation time.
type ShippingInfo struct {
	Name       string
	Line1      string
	City       string
	PostalCode string
	Country    string
}

// ConfirmRequest carries the payment method and customer contact details for
// confirming an intent.
type ConfirmRequest struct {
	PaymentMethodID string
	ReceiptEmail    string
	Shipping        ShippingInfo
}

// ConfirmResult is the normalised confirmation outcome. Reference is the
// gateway's transaction identifier; Message carries the raw provider error
// text on declines.
type ConfirmResult struct {
	Status    string
	Reference string
	Message   string
}

// Gateway is the two-call surface the checkout orchestrator depends on.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	ConfirmIntent(ctx context.Context, clientSecret string, req ConfirmRequest) (ConfirmResult, error)
}
