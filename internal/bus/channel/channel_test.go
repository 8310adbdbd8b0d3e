package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"statebus/internal/bus"
)

func newChannel(t *testing.T) *Channel {
	t.Helper()

	c, err := New(zaptest.NewLogger(t))
	require.NoError(t, err)

	return c
}

func TestChannel_DeliversInRegistrationOrder(t *testing.T) {
	c := newChannel(t)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		_, err := c.Subscribe(bus.DataSync, func(bus.Event) error {
			order = append(order, name)
			return nil
		})
		require.NoError(t, err)
	}

	// Subscribers on unrelated types must not affect delivery.
	_, err := c.Subscribe(bus.ThemeChanged, func(bus.Event) error {
		order = append(order, "unrelated")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 1}, "test")))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestChannel_PublishWithoutSubscribersIsNoOp(t *testing.T) {
	c := newChannel(t)

	assert.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 1}, "test")))
}

func TestChannel_ReleaseIsIdempotent(t *testing.T) {
	c := newChannel(t)

	var calls int
	release, err := c.Subscribe(bus.TaskDeleted, func(bus.Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(bus.New(bus.TaskDeletedPayload{ID: "1"}, "test")))
	require.Equal(t, 1, calls)

	release()
	release()

	require.NoError(t, c.Publish(bus.New(bus.TaskDeletedPayload{ID: "2"}, "test")))
	assert.Equal(t, 1, calls, "handler must receive no events after release")
	assert.Equal(t, 0, c.ListenerCount(bus.TaskDeleted))
}

func TestChannel_ReleaseRemovesExactlyOneRegistration(t *testing.T) {
	c := newChannel(t)

	var calls int
	handler := func(bus.Event) error {
		calls++
		return nil
	}

	// The same handler registered twice is two independent subscriptions.
	release1, err := c.Subscribe(bus.DataSync, handler)
	require.NoError(t, err)
	_, err = c.Subscribe(bus.DataSync, handler)
	require.NoError(t, err)
	require.Equal(t, 2, c.ListenerCount(bus.DataSync))

	release1()
	require.Equal(t, 1, c.ListenerCount(bus.DataSync))

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 1}, "test")))
	assert.Equal(t, 1, calls)
}

func TestChannel_HandlerFaultsAreIsolated(t *testing.T) {
	c := newChannel(t)

	var delivered []string
	_, err := c.Subscribe(bus.TaskCreated, func(bus.Event) error {
		delivered = append(delivered, "failing")
		return errors.New("boom")
	})
	require.NoError(t, err)

	_, err = c.Subscribe(bus.TaskCreated, func(bus.Event) error {
		delivered = append(delivered, "panicking")
		panic("boom")
	})
	require.NoError(t, err)

	_, err = c.Subscribe(bus.TaskCreated, func(bus.Event) error {
		delivered = append(delivered, "healthy")
		return nil
	})
	require.NoError(t, err)

	err = c.Publish(bus.New(bus.TaskCreatedPayload{Task: bus.Task{ID: "1"}}, "test"))

	assert.NoError(t, err, "handler faults must not reach the publisher")
	assert.Equal(t, []string{"failing", "panicking", "healthy"}, delivered)
}

func TestChannel_SubscribeDuringDeliveryMissesCurrentPass(t *testing.T) {
	c := newChannel(t)

	var lateCalls int
	_, err := c.Subscribe(bus.DataSync, func(bus.Event) error {
		_, err := c.Subscribe(bus.DataSync, func(bus.Event) error {
			lateCalls++
			return nil
		})
		return err
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 1}, "test")))
	assert.Equal(t, 0, lateCalls, "subscriber added mid-delivery must not see the current event")

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 2}, "test")))
	assert.Equal(t, 1, lateCalls)
}

func TestChannel_ReleaseDuringDeliveryKeepsSnapshot(t *testing.T) {
	c := newChannel(t)

	var secondCalls int
	var releaseSecond func()

	_, err := c.Subscribe(bus.DataSync, func(bus.Event) error {
		releaseSecond()
		return nil
	})
	require.NoError(t, err)

	releaseSecond, err = c.Subscribe(bus.DataSync, func(bus.Event) error {
		secondCalls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 1}, "test")))
	assert.Equal(t, 1, secondCalls, "snapshot taken at delivery start must still include the released handler")

	require.NoError(t, c.Publish(bus.New(bus.DataSyncPayload{Timestamp: 2}, "test")))
	assert.Equal(t, 1, secondCalls)
}

func TestChannel_UnsubscribeAll(t *testing.T) {
	c := newChannel(t)

	var calls int
	for i := 0; i < 3; i++ {
		_, err := c.Subscribe(bus.ThemeChanged, func(bus.Event) error {
			calls++
			return nil
		})
		require.NoError(t, err)
	}

	c.UnsubscribeAll(bus.ThemeChanged)

	require.NoError(t, c.Publish(bus.New(bus.ThemeChangedPayload{Theme: bus.ThemeDark}, "test")))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, c.ListenerCount(bus.ThemeChanged))
}

func TestChannel_Clear(t *testing.T) {
	c := newChannel(t)

	for _, eventType := range []bus.EventType{bus.TaskCreated, bus.ThemeChanged, bus.DataSync} {
		_, err := c.Subscribe(eventType, func(bus.Event) error { return nil })
		require.NoError(t, err)
	}
	require.Len(t, c.ActiveEventTypes(), 3)

	c.Clear()

	assert.Empty(t, c.ActiveEventTypes())
}

func TestChannel_ActiveEventTypesExcludesEmptyTypes(t *testing.T) {
	c := newChannel(t)

	release, err := c.Subscribe(bus.TaskCreated, func(bus.Event) error { return nil })
	require.NoError(t, err)
	_, err = c.Subscribe(bus.DataSync, func(bus.Event) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []bus.EventType{bus.DataSync, bus.TaskCreated}, c.ActiveEventTypes())

	release()

	assert.Equal(t, []bus.EventType{bus.DataSync}, c.ActiveEventTypes(),
		"types with zero remaining handlers must not appear")
}

func TestChannel_ArgumentFaults(t *testing.T) {
	c := newChannel(t)

	_, err := c.Subscribe("", func(bus.Event) error { return nil })
	assert.ErrorIs(t, err, bus.ErrEmptyEventType)

	_, err = c.Subscribe(bus.TaskCreated, nil)
	assert.ErrorIs(t, err, bus.ErrNilHandler)

	err = c.Publish(bus.Event{})
	assert.ErrorIs(t, err, bus.ErrEmptyEventType)

	err = c.Publish(bus.Event{
		Type:    bus.TaskCreated,
		Payload: bus.ThemeChangedPayload{Theme: bus.ThemeLight},
	})
	assert.ErrorIs(t, err, bus.ErrPayloadTypeMismatch)
}

func TestChannel_StampsZeroTimestamp(t *testing.T) {
	c := newChannel(t)

	var got bus.Event
	_, err := c.Subscribe(bus.DataSync, func(e bus.Event) error {
		got = e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(bus.Event{
		Type:    bus.DataSync,
		Payload: bus.DataSyncPayload{Timestamp: 5},
		Source:  "test",
	}))

	assert.NotZero(t, got.Timestamp)
}

func TestChannel_TaskCreatedScenario(t *testing.T) {
	c := newChannel(t)

	event := bus.Event{
		Type: bus.TaskCreated,
		Payload: bus.TaskCreatedPayload{
			Task: bus.Task{ID: "1", Title: "Buy milk", Completed: false},
		},
		Timestamp: 1000,
		Source:    "test",
	}

	var got []bus.Event
	_, err := c.Subscribe(bus.TaskCreated, func(e bus.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Publish(event))

	require.Len(t, got, 1, "handler must be invoked exactly once")
	assert.Equal(t, event, got[0], "caller-supplied timestamp and source must be preserved")
}
