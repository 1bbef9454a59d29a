package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/craverscorner/food-ordering-website/internal/resilience"
)

// Stripe implements Gateway against the Stripe payment-intents REST surface.
type Stripe struct {
	SecretKey string
	BaseURL   string
	HTTP      resilience.HTTPClient
}

const stripeDefaultBaseURL = "https://api.stripe.com"

func (s Stripe) baseURL() string {
	base := strings.TrimSpace(s.BaseURL)
	if base == "" {
		base = stripeDefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	LastError    *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for the given amount.
func (s Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinorUnits, 10))
	form.Set("currency", req.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent stripeIntent
	if err := s.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return Intent{}, err
	}
	if intent.ClientSecret == "" {
		return Intent{}, fmt.Errorf("%w: missing client secret", ErrInvalidResponse)
	}
	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret, Status: normalizeStatus(intent.Status)}, nil
}

// ConfirmIntent confirms a previously created intent. The intent id is
// recovered from the client secret handle.
func (s Stripe) ConfirmIntent(ctx context.Context, clientSecret string, req ConfirmRequest) (ConfirmResult, error) {
	intentID, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return ConfirmResult{}, err
	}
	form := url.Values{}
	form.Set("payment_method", req.PaymentMethodID)
	if req.ReceiptEmail != "" {
		form.Set("receipt_email", req.ReceiptEmail)
	}
	if req.Shipping.Name != "" {
		form.Set("shipping[name]", req.Shipping.Name)
		form.Set("shipping[address][line1]", req.Shipping.Line1)
		form.Set("shipping[address][city]", req.Shipping.City)
		form.Set("shipping[address][postal_code]", req.Shipping.PostalCode)
		form.Set("shipping[address][country]", req.Shipping.Country)
	}

	var intent stripeIntent
	err = s.post(ctx, "/v1/payment_intents/"+intentID+"/confirm", form, &intent)
	if err != nil {
		var decline *declineError
		if asDecline(err, &decline) {
			return ConfirmResult{Status: StatusFailed, Reference: intentID, Message: decline.message}, nil
		}
		return ConfirmResult{}, err
	}
	result := ConfirmResult{Status: normalizeStatus(intent.Status), Reference: intent.ID}
	if intent.LastError != nil {
		result.Status = StatusFailed
		result.Message = intent.LastError.Message
	}
	return result, nil
}

// IntentIDFromClientSecret recovers the intent identifier embedded in a
// client secret of the form "pi_xxx_secret_yyy".
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret")
	if !found || id == "" {
		return "", fmt.Errorf("%w: malformed client secret", ErrInvalidResponse)
	}
	return id, nil
}

func (s Stripe) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL()+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var provider stripeError
		if err := json.Unmarshal(body, &provider); err == nil && provider.Error.Message != "" {
			if provider.Error.Type == "card_error" {
				return &declineError{message: provider.Error.Message}
			}
			return fmt.Errorf("%w: %s", ErrInvalidResponse, provider.Error.Message)
		}
		return fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// declineError carries the provider's decline message through the transport
// layer so confirmations can report a terminal failure instead of an error.
type declineError struct {
	message string
}

func (e *declineError) Error() string { return e.message }

func asDecline(err error, target **declineError) bool {
	d, ok := err.(*declineError)
	if ok {
		*target = d
	}
	return ok
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return StatusSucceeded
	case "canceled":
		return StatusFailed
	default:
		return StatusPending
	}
}
