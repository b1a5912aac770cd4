package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow invocation.
type ExecutionStatus string

const (
	ExecutionStatusPending    ExecutionStatus = "pending"
	ExecutionStatusInProgress ExecutionStatus = "in_progress"
	ExecutionStatusCompleted  ExecutionStatus = "completed"
	ExecutionStatusFailed     ExecutionStatus = "failed"
	ExecutionStatusCancelled  ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transition.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// Execution is one concrete, stateful run of a workflow definition against a
// specific entity instance. Terminal status is set exactly once and never
// regresses.
type Execution struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	WorkflowID   string          `json:"workflow_id"  validate:"required"`
	EntityType   EntityType      `json:"entity_type"  validate:"required"`
	EntityID     string          `json:"entity_id"    validate:"required"`
	Status       ExecutionStatus `json:"status"`
	InputData    map[string]any  `json:"input_data,omitempty"`
	OutputData   map[string]any  `json:"output_data,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	AssignedToID string          `json:"assigned_to_id,omitempty"`
	TriggeredBy  string          `json:"triggered_by,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
