// Package notify decouples workflow state changes from notification delivery.
// The engine appends intents to an outbox during the action pipeline; the
// dispatcher drains it once the state change has persisted.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

// Outbox buffers notification intents recorded during one pipeline run.
type Outbox struct {
	mu      sync.Mutex
	intents []protocol.NotificationIntent
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(intent protocol.NotificationIntent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.intents = append(o.intents, intent)
}

// Drain returns and clears the buffered intents.
func (o *Outbox) Drain() []protocol.NotificationIntent {
	o.mu.Lock()
	defer o.mu.Unlock()

	intents := o.intents
	o.intents = nil

	return intents
}

// Dispatcher delivers drained intents through a Notifier. Delivery failures
// are logged and never propagate; workflow progress must not depend on the
// notification transport.
type Dispatcher struct {
	notifier protocol.Notifier
	logger   *slog.Logger
}

func NewDispatcher(notifier protocol.Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger.With("module", "notification_dispatcher"),
	}
}

// Dispatch delivers every intent in the outbox, best effort.
func (d *Dispatcher) Dispatch(ctx context.Context, outbox *Outbox) {
	for _, intent := range outbox.Drain() {
		err := d.notifier.Notify(ctx, intent.UserID, intent.Kind, intent.Payload)
		if err != nil {
			d.logger.ErrorContext(ctx, "Failed to deliver notification",
				"user_id", intent.UserID,
				"kind", intent.Kind,
				"error", err)
		}
	}
}

// LogNotifier is the default sink when no delivery transport is wired. It
// records each notification at info level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "log_notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, userID, kind string, payload map[string]any) error {
	n.logger.InfoContext(ctx, "Notification", "user_id", userID, "kind", kind, "payload", payload)

	return nil
}
