package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

type fakeStore struct {
	inserted []Event
	err      error
}

func (f *fakeStore) Insert(_ context.Context, event Event) (Event, error) {
	if f.err != nil {
		return Event{}, f.err
	}
	event.OccurredAt = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f.inserted = append(f.inserted, event)
	return event, nil
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestBusEmitPersistsAndNotifies(t *testing.T) {
	store := &fakeStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, "ord_1", map[string]any{"total": "31.97"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.Len(t, store.inserted, 1)
	require.Len(t, notifier.events, 1)
	require.JSONEq(t, `{"total":"31.97"}`, string(notifier.events[0].Payload))
}

func TestBusEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &Bus{Store: &fakeStore{}}

	_, err := bus.Emit(context.Background(), "  ", "ord_1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), TopicOrderCreated, "", nil)
	require.Error(t, err)
}

func TestBusEmitNotifierFailureDoesNotDropEvent(t *testing.T) {
	store := &fakeStore{}
	bus := &Bus{Store: store, Notifiers: []Notifier{&recordingNotifier{err: errors.New("smtp down")}}}

	ev, err := bus.Emit(context.Background(), TopicPaymentFailed, "pi_1", []byte(`{"reason":"declined"}`))
	require.Error(t, err)
	require.NotEmpty(t, ev.ID)
	require.Len(t, store.inserted, 1)
}

func TestEmailNotifierSendsOrderConfirmation(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	notifier := EmailNotifier{Sender: outbox}

	err := notifier.Notify(context.Background(), Event{
		Topic:   TopicOrderCreated,
		Payload: []byte(`{"orderId":"ord_1","email":"ada@example.com","total":"31.97"}`),
	})
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "ada@example.com", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].HTML, "ord_1")

	err = notifier.Notify(context.Background(), Event{Topic: TopicPaymentFailed, Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)
}
