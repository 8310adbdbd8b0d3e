package channel

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"statebus/internal/bus"
	"statebus/internal/bus/tracing"
)

// TracedChannel wraps a bus.Channel with tracing.
// Layer order: TracedChannel -> MetricsChannel -> Channel (real thing)
//
// Channel operations carry no context (delivery is synchronous and in
// process), so every span is a root span.
type TracedChannel struct {
	channel bus.Channel
	tracer  *tracing.Tracer
}

// NewTracedChannel creates a new traced channel that wraps a metrics channel
func NewTracedChannel(channel bus.Channel, tracer *tracing.Tracer) bus.Channel {
	return &TracedChannel{
		channel: channel,
		tracer:  tracer,
	}
}

// Subscribe implements bus.Channel.Subscribe
func (c *TracedChannel) Subscribe(eventType bus.EventType, handler bus.Handler) (func(), error) {
	return c.channel.Subscribe(eventType, handler)
}

// Publish implements bus.Channel.Publish with a span covering the full
// delivery pass.
func (c *TracedChannel) Publish(event bus.Event) error {
	ctx, span := c.tracer.StartSpan(context.Background(), "channel.publish")
	defer span.End()

	span.SetAttributes(c.tracer.ChannelAttributes(
		string(event.Type),
		c.channel.ListenerCount(event.Type),
	)...)

	err := c.channel.Publish(event)

	if err != nil {
		c.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(c.tracer.ErrorAttributes(err)...)

	return err
}

// UnsubscribeAll implements bus.Channel.UnsubscribeAll
func (c *TracedChannel) UnsubscribeAll(eventType bus.EventType) {
	c.channel.UnsubscribeAll(eventType)
}

// Clear implements bus.Channel.Clear
func (c *TracedChannel) Clear() {
	c.channel.Clear()
}

// ActiveEventTypes implements bus.Channel.ActiveEventTypes
func (c *TracedChannel) ActiveEventTypes() []bus.EventType {
	return c.channel.ActiveEventTypes()
}

// ListenerCount implements bus.Channel.ListenerCount
func (c *TracedChannel) ListenerCount(eventType bus.EventType) int {
	return c.channel.ListenerCount(eventType)
}
