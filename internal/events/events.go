package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventToastSuccess = "toast_success"
	EventToastError   = "toast_error"

	EventBorrowCreated        = "borrow_created"
	EventBorrowReturned       = "borrow_returned"
	EventReservationCreated   = "reservation_created"
	EventReservationCancelled = "reservation_cancelled"
	EventUserBanned           = "user_banned"
	EventUserUnbanned         = "user_unbanned"
	EventPaymentConfirmed     = "payment_confirmed"
)

// ToastPayload is what the toast events carry.
type ToastPayload struct {
	Message string `json:"message"`
}

// Event represents a lightweight in-process event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. The UI layer (here, the CLI)
// subscribes; services publish.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// ToastNotifier bridges the optimistic-mutation sink onto the bus, so any
// subscriber can render toasts without the services knowing about it.
type ToastNotifier struct {
	bus *EventBus
}

func NewToastNotifier(bus *EventBus) *ToastNotifier {
	return &ToastNotifier{bus: bus}
}

func (n *ToastNotifier) Success(msg string) {
	_ = n.bus.PublishJSON(EventToastSuccess, ToastPayload{Message: msg})
}

func (n *ToastNotifier) Error(msg string) {
	_ = n.bus.PublishJSON(EventToastError, ToastPayload{Message: msg})
}
