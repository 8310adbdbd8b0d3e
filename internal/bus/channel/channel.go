// Package channel implements the process-wide event channel: a registry of
// event type to ordered subscriber list with synchronous, isolated delivery.
package channel

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"statebus/internal/bus"
	"statebus/internal/validator"
)

// Channel is the core bus.Channel implementation. Delivery runs to completion
// on the publisher's goroutine; the registry lock is never held while a
// handler runs, so handlers may publish, subscribe, or unsubscribe reentrantly.
type Channel struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[bus.EventType][]*subscription
}

// subscription has no identity beyond its pointer; the release handle removes
// it by identity, which keeps duplicate handler registrations independent.
type subscription struct {
	handler bus.Handler
}

func New(logger *zap.Logger) (*Channel, error) {
	c := Channel{
		logger: logger,
		subs:   make(map[bus.EventType][]*subscription),
	}

	if err := validator.Validate("channel", c.logger); err != nil {
		return nil, fmt.Errorf("failed to validate channel deps: %w", err)
	}

	return &c, nil
}

func (c *Channel) Subscribe(eventType bus.EventType, handler bus.Handler) (func(), error) {
	if eventType == "" {
		return nil, fmt.Errorf("failed to subscribe: %w", bus.ErrEmptyEventType)
	}
	if handler == nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", eventType, bus.ErrNilHandler)
	}

	sub := &subscription{handler: handler}

	c.mu.Lock()
	c.subs[eventType] = append(c.subs[eventType], sub)
	c.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.remove(eventType, sub)
		})
	}

	return release, nil
}

func (c *Channel) Publish(event bus.Event) error {
	if event.Type == "" {
		return fmt.Errorf("failed to publish: %w", bus.ErrEmptyEventType)
	}
	if event.Payload != nil && event.Payload.Kind() != event.Type {
		return fmt.Errorf("failed to publish %s event carrying %s payload: %w",
			event.Type, event.Payload.Kind(), bus.ErrPayloadTypeMismatch)
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	// Snapshot the subscriber list so handlers that subscribe or release
	// during delivery never affect the current pass.
	c.mu.Lock()
	snapshot := make([]*subscription, len(c.subs[event.Type]))
	copy(snapshot, c.subs[event.Type])
	c.mu.Unlock()

	for _, sub := range snapshot {
		c.dispatch(sub, event)
	}

	return nil
}

// dispatch invokes a single handler, containing its error or panic so one
// failing subscriber never blocks the rest of the delivery pass.
func (c *Channel) dispatch(sub *subscription, event bus.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked during delivery",
				zap.String("eventType", string(event.Type)),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sub.handler(event); err != nil {
		c.logger.Error("handler failed during delivery",
			zap.String("eventType", string(event.Type)),
			zap.String("source", event.Source),
			zap.Error(err),
		)
	}
}

func (c *Channel) UnsubscribeAll(eventType bus.EventType) {
	c.mu.Lock()
	delete(c.subs, eventType)
	c.mu.Unlock()
}

func (c *Channel) Clear() {
	c.mu.Lock()
	c.subs = make(map[bus.EventType][]*subscription)
	c.mu.Unlock()
}

func (c *Channel) ActiveEventTypes() []bus.EventType {
	c.mu.Lock()
	types := make([]bus.EventType, 0, len(c.subs))
	for t := range c.subs {
		types = append(types, t)
	}
	c.mu.Unlock()

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

func (c *Channel) ListenerCount(eventType bus.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subs[eventType])
}

// remove drops sub from the eventType list. Types with no remaining handlers
// leave the registry entirely so introspection never reports them.
func (c *Channel) remove(eventType bus.EventType, sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.subs[eventType]
	remaining := make([]*subscription, 0, len(current))
	for _, s := range current {
		if s != sub {
			remaining = append(remaining, s)
		}
	}

	if len(remaining) == 0 {
		delete(c.subs, eventType)
		return
	}
	c.subs[eventType] = remaining
}
