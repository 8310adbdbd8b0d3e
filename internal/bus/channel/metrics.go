package channel

import (
	"time"

	"statebus/internal/bus"
	"statebus/internal/bus/metrics"
)

// MetricsChannel wraps a bus.Channel with metrics collection
type MetricsChannel struct {
	channel  bus.Channel
	registry *metrics.Registry
}

// NewMetricsChannel creates a new instrumented channel
func NewMetricsChannel(channel bus.Channel, registry *metrics.Registry) bus.Channel {
	return &MetricsChannel{
		channel:  channel,
		registry: registry,
	}
}

// Subscribe implements bus.Channel.Subscribe with metrics collection. The
// returned release handle additionally records the unsubscription.
func (c *MetricsChannel) Subscribe(eventType bus.EventType, handler bus.Handler) (func(), error) {
	release, err := c.channel.Subscribe(eventType, handler)
	c.registry.RecordSubscribe(string(eventType), err)
	if err != nil {
		return nil, err
	}
	c.registry.SetActiveListeners(string(eventType), float64(c.channel.ListenerCount(eventType)))

	return func() {
		release()
		c.registry.RecordRelease(string(eventType))
		c.registry.SetActiveListeners(string(eventType), float64(c.channel.ListenerCount(eventType)))
	}, nil
}

// Publish implements bus.Channel.Publish with metrics collection
func (c *MetricsChannel) Publish(event bus.Event) error {
	listeners := c.channel.ListenerCount(event.Type)
	start := time.Now()

	err := c.channel.Publish(event)

	c.registry.RecordPublish(string(event.Type), listeners, time.Since(start), err)

	return err
}

// UnsubscribeAll implements bus.Channel.UnsubscribeAll with gauge updates
func (c *MetricsChannel) UnsubscribeAll(eventType bus.EventType) {
	c.channel.UnsubscribeAll(eventType)
	c.registry.SetActiveListeners(string(eventType), 0)
}

// Clear implements bus.Channel.Clear with gauge updates
func (c *MetricsChannel) Clear() {
	for _, t := range c.channel.ActiveEventTypes() {
		c.registry.SetActiveListeners(string(t), 0)
	}
	c.channel.Clear()
}

// ActiveEventTypes implements bus.Channel.ActiveEventTypes
func (c *MetricsChannel) ActiveEventTypes() []bus.EventType {
	return c.channel.ActiveEventTypes()
}

// ListenerCount implements bus.Channel.ListenerCount
func (c *MetricsChannel) ListenerCount(eventType bus.EventType) int {
	return c.channel.ListenerCount(eventType)
}
