// Package events defines the job payloads exchanged over the execution queue.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

type EventType string

const Topic = "stratagem.executions"

// PoisonTopic retains jobs whose retries are exhausted for inspection.
const PoisonTopic = "stratagem.executions.poison"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// ExecutionRequestedEvent asks a worker to run the action pipeline for
	// an already-created execution record.
	ExecutionRequestedEvent EventType = "execution.requested"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ExecutionRequested is the queue job payload for one workflow invocation.
type ExecutionRequested struct {
	BaseEvent

	TenantID    string             `json:"tenant_id"`
	WorkflowID  string             `json:"workflow_id"`
	EntityType  models.EntityType  `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	ExecutionID string             `json:"execution_id"`
	InputData   map[string]any     `json:"input_data,omitempty"`
	TriggeredBy string             `json:"triggered_by,omitempty"`
	TriggerType models.TriggerType `json:"trigger_type"`
}

func (e ExecutionRequested) GetType() EventType {
	return ExecutionRequestedEvent
}
