package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/mohamedadel0806/stratagem/pkg/events"
)

const handlerName = "stratagem_execution_jobs"

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	logger        watermill.LoggerAdapter
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		logger:        logger,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) {
	eb.subscriptions[eventType] = handler
}

// Run consumes the execution job topic until ctx is cancelled. Failed jobs
// are retried five times with exponential backoff starting at two seconds;
// exhausted jobs are moved to the poison topic and retained.
func (eb *WatermillEventBus) Run(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{}, eb.logger)
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(eb.publisher, events.PoisonTopic)
	if err != nil {
		return fmt.Errorf("failed to create poison queue: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      4, // five attempts total
		InitialInterval: 2 * time.Second,
		Multiplier:      2,
		Logger:          eb.logger,
	}

	router.AddMiddleware(poisonQueue, retry.Middleware)
	router.AddNoPublisherHandler(handlerName, events.Topic, eb.subscriber, eb.handleMessage)

	return router.Run(ctx)
}

func (eb *WatermillEventBus) handleMessage(msg *message.Message) error {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	handler, exists := eb.subscriptions[eventType]
	if !exists {
		// Unknown event types are acked, not retried.
		return nil
	}

	var event any

	switch eventType {
	case events.ExecutionRequestedEvent:
		event = &events.ExecutionRequested{}
	default:
		return nil
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", eventType, err)
	}

	return handler(msg.Context(), event)
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
