package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedadel0806/stratagem/pkg/channels/gochannel"
	"github.com/mohamedadel0806/stratagem/pkg/events"
	"github.com/mohamedadel0806/stratagem/pkg/models"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	logger := watermill.NopLogger{}

	pub, sub, err := gochannel.CreateTestChannel(logger)
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub, logger)
}

func TestPublishHandleRoundTrip(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ExecutionRequested, 1)

	bus.Handle(events.ExecutionRequestedEvent, func(_ context.Context, event any) error {
		requested, ok := event.(*events.ExecutionRequested)
		if ok {
			received <- requested
		}

		return nil
	})

	done := make(chan error, 1)

	go func() {
		done <- bus.Run(ctx)
	}()

	// Give the router a moment to attach its subscription.
	time.Sleep(100 * time.Millisecond)

	requested := &events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent),
		TenantID:    "tenant-1",
		WorkflowID:  "wf-1",
		EntityType:  models.EntityPolicy,
		EntityID:    "policy-1",
		ExecutionID: "exec-1",
		TriggerType: models.TriggerOnUpdate,
	}

	require.NoError(t, bus.Publish(ctx, "exec-1", requested))

	select {
	case got := <-received:
		assert.Equal(t, "exec-1", got.ExecutionID)
		assert.Equal(t, "tenant-1", got.TenantID)
		assert.Equal(t, models.EntityPolicy, got.EntityType)
	case <-time.After(5 * time.Second):
		t.Fatal("execution job never reached the handler")
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop after cancel")
	}
}

type unknownEvent struct{}

func (unknownEvent) GetType() events.EventType { return "execution.unknown" }

func TestUnknownEventTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan struct{}, 1)

	bus.Handle(events.ExecutionRequestedEvent, func(context.Context, any) error {
		handled <- struct{}{}

		return nil
	})

	go func() { _ = bus.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// An event type nobody subscribed to is dropped, not retried.
	require.NoError(t, bus.Publish(ctx, "exec-x", unknownEvent{}))

	requested := &events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent),
		ExecutionID: "exec-1",
	}
	require.NoError(t, bus.Publish(ctx, "exec-1", requested))

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("known event blocked behind the unknown one")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
