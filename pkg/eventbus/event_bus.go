// Package eventbus wraps the asynchronous execution job queue.
package eventbus

import (
	"context"

	"github.com/mohamedadel0806/stratagem/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventHandler processes one decoded queue job. A returned error makes the
// queue redeliver the job per the retry policy.
type EventHandler func(ctx context.Context, event any) error

// EventBus is the at-least-once execution job queue. Publish failures are
// surfaced to the caller so the orchestrator can fall back to synchronous
// execution.
type EventBus interface {
	GenerateID() string
	Publish(ctx context.Context, key string, event Event) error
	Handle(eventType events.EventType, handler EventHandler)
	// Run consumes jobs until the context is cancelled, applying the retry
	// and poison-queue policy. It blocks.
	Run(ctx context.Context) error
	Close() error
}
