package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(EventBorrowCreated, func(e *Event) error {
		got = append(got, string(e.Payload))
		return nil
	})
	bus.Subscribe(EventBorrowCreated, func(e *Event) error {
		got = append(got, "second")
		return nil
	})

	err := bus.PublishJSON(EventBorrowCreated, map[string]int64{"book_id": 3})
	require.NoError(t, err)

	require.Len(t, got, 2, "every subscriber for the type runs")
	assert.JSONEq(t, `{"book_id":3}`, got[0])
	assert.Equal(t, "second", got[1])
}

func TestEventBusIgnoresUnrelatedTypes(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventUserBanned, func(e *Event) error {
		called = true
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventUserUnbanned, nil))
	assert.False(t, called)
}

func TestEventBusSetsTimestamp(t *testing.T) {
	bus := NewEventBus()

	var gotEvent *Event
	bus.Subscribe(EventPaymentConfirmed, func(e *Event) error {
		gotEvent = e
		return nil
	})

	bus.Publish(&Event{Type: EventPaymentConfirmed})
	require.NotNil(t, gotEvent)
	assert.False(t, gotEvent.CreatedAt.IsZero())
}

func TestNilBusPublishJSONIsSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBorrowCreated, nil))
}

func TestToastNotifier(t *testing.T) {
	bus := NewEventBus()

	var toasts []ToastPayload
	var types []string
	for _, eventType := range []string{EventToastSuccess, EventToastError} {
		et := eventType
		bus.Subscribe(et, func(e *Event) error {
			var p ToastPayload
			require.NoError(t, json.Unmarshal(e.Payload, &p))
			toasts = append(toasts, p)
			types = append(types, et)
			return nil
		})
	}

	notifier := NewToastNotifier(bus)
	notifier.Success("book borrowed")
	notifier.Error("could not borrow this book")

	require.Len(t, toasts, 2)
	assert.Equal(t, []string{EventToastSuccess, EventToastError}, types)
	assert.Equal(t, "book borrowed", toasts[0].Message)
	assert.Equal(t, "could not borrow this book", toasts[1].Message)
}
