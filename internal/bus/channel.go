package bus

import "errors"

// Argument faults. These indicate programmer error and are returned to the
// caller immediately rather than being swallowed.
var (
	ErrEmptyEventType      = errors.New("event type must not be empty")
	ErrNilHandler          = errors.New("handler must not be nil")
	ErrPayloadTypeMismatch = errors.New("payload variant does not match event type")
)

// Handler consumes one event. A returned error (or a panic) is logged by the
// channel and never reaches the publisher or the other subscribers.
type Handler func(Event) error

// Channel is the process-wide publish/subscribe registry. Exactly one
// instance exists per running application; it is constructed once at startup
// and passed by reference to every module.
type Channel interface {
	// Subscribe registers handler for eventType and returns a release
	// function that removes exactly this registration. The release function
	// is idempotent. Registering the same handler twice creates two
	// independent subscriptions.
	Subscribe(eventType EventType, handler Handler) (func(), error)

	// Publish delivers event synchronously to every handler registered for
	// event.Type at the start of delivery, in registration order. No
	// registered handlers is a no-op. A zero Timestamp is stamped with the
	// current wall clock.
	Publish(event Event) error

	// UnsubscribeAll removes every handler registered for eventType.
	UnsubscribeAll(eventType EventType)

	// Clear removes every handler for every event type.
	Clear()

	// ActiveEventTypes reports the types that currently have at least one
	// handler, in sorted order.
	ActiveEventTypes() []EventType

	// ListenerCount reports the number of handlers registered for eventType.
	ListenerCount(eventType EventType) int
}

// Publisher is the narrow channel view handed to producers such as the
// persistent store, which announce events but never subscribe.
type Publisher interface {
	Publish(event Event) error
}
