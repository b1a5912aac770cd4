package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mohamedadel0806/stratagem/pkg/mocks"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

func TestOutboxDrainClears(t *testing.T) {
	outbox := NewOutbox()
	outbox.Add(protocol.NotificationIntent{UserID: "alice", Kind: "approval_request"})
	outbox.Add(protocol.NotificationIntent{UserID: "bob", Kind: "approval_request"})

	drained := outbox.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, "alice", drained[0].UserID)

	assert.Empty(t, outbox.Drain())
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifier := &mocks.MockNotifier{}
	notifier.On("Notify", mock.Anything, "alice", mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	notifier.On("Notify", mock.Anything, "bob", mock.Anything, mock.Anything).
		Return(nil)

	outbox := NewOutbox()
	outbox.Add(protocol.NotificationIntent{UserID: "alice", Kind: "workflow_notification"})
	outbox.Add(protocol.NotificationIntent{UserID: "bob", Kind: "workflow_notification"})

	NewDispatcher(notifier, logger).Dispatch(context.Background(), outbox)

	// The failure for alice does not stop delivery to bob.
	notifier.AssertCalled(t, "Notify", mock.Anything, "bob", "workflow_notification", mock.Anything)
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestLogNotifierNeverFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifier := NewLogNotifier(logger)
	err := notifier.Notify(context.Background(), "alice", "task_assigned", map[string]any{"task_id": "t1"})
	assert.NoError(t, err)
}
