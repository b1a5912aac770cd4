package models

import "time"

// TaskStatus is the lifecycle state of a workflow-created task.
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Task is a work item created by the createTask action, linked back to the
// entity that triggered the workflow.
type Task struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Title       string     `json:"title"     validate:"required"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
