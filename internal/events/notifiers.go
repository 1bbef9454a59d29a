package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// LogNotifier writes every emitted event to the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Log.Info().
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("domain event")
	return nil
}

// EmailNotifier sends an order confirmation when an order is created. Other
// topics are ignored.
type EmailNotifier struct {
	Sender common.EmailSender
}

func (n EmailNotifier) Notify(_ context.Context, event Event) error {
	if n.Sender == nil || event.Topic != TopicOrderCreated {
		return nil
	}
	var payload struct {
		OrderID string `json:"orderId"`
		Email   string `json:"email"`
		Total   string `json:"total"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("events: decode order payload: %w", err)
	}
	if payload.Email == "" {
		return nil
	}
	subject := "Your order is confirmed"
	body := fmt.Sprintf("<p>Thanks for your order!</p><p>Order reference: %s</p><p>Total: £%s</p>", payload.OrderID, payload.Total)
	return n.Sender.Send(payload.Email, subject, body)
}
