// Package models defines the core domain models for the governance workflow engine.
package models

import "time"

// WorkflowType classifies what a workflow definition is for.
type WorkflowType string

const (
	WorkflowTypeApproval         WorkflowType = "approval"
	WorkflowTypeNotification     WorkflowType = "notification"
	WorkflowTypeEscalation       WorkflowType = "escalation"
	WorkflowTypeStatusChange     WorkflowType = "status_change"
	WorkflowTypeDeadlineReminder WorkflowType = "deadline_reminder"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"   // Eligible for triggering
	WorkflowStatusInactive WorkflowStatus = "inactive" // Kept, never triggered
	WorkflowStatusArchived WorkflowStatus = "archived" // Historical
)

// TriggerType is the lifecycle event that causes workflow matching to run.
type TriggerType string

const (
	TriggerManual                TriggerType = "manual"
	TriggerOnCreate              TriggerType = "on_create"
	TriggerOnUpdate              TriggerType = "on_update"
	TriggerOnStatusChange        TriggerType = "on_status_change"
	TriggerOnDeadlineApproaching TriggerType = "on_deadline_approaching"
	TriggerOnDeadlinePassed      TriggerType = "on_deadline_passed"
	TriggerScheduled             TriggerType = "scheduled"
)

// ValidWorkflowType reports whether t is a member of the workflow type enum.
func ValidWorkflowType(t WorkflowType) bool {
	switch t {
	case WorkflowTypeApproval, WorkflowTypeNotification, WorkflowTypeEscalation,
		WorkflowTypeStatusChange, WorkflowTypeDeadlineReminder:
		return true
	default:
		return false
	}
}

// ValidWorkflowStatus reports whether s is a member of the status enum.
func ValidWorkflowStatus(s WorkflowStatus) bool {
	switch s {
	case WorkflowStatusActive, WorkflowStatusInactive, WorkflowStatusArchived:
		return true
	default:
		return false
	}
}

// ValidTriggerType reports whether t is a member of the trigger enum.
func ValidTriggerType(t TriggerType) bool {
	switch t {
	case TriggerManual, TriggerOnCreate, TriggerOnUpdate, TriggerOnStatusChange,
		TriggerOnDeadlineApproaching, TriggerOnDeadlinePassed, TriggerScheduled:
		return true
	default:
		return false
	}
}

// TaskSpec describes the task created by the createTask action. Its shape,
// including the required title, is enforced by the action directive schema
// rather than struct tags.
type TaskSpec struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
}

// ActionDirective is the structured action block of a workflow definition.
// Each non-empty field independently drives one action executor.
type ActionDirective struct {
	Approvers    []string  `json:"approvers,omitempty"`
	ChangeStatus string    `json:"change_status,omitempty"`
	AssignTo     string    `json:"assign_to,omitempty"`
	Notify       []string  `json:"notify,omitempty"`
	CreateTask   *TaskSpec `json:"create_task,omitempty"`
}

// IsEmpty reports whether the directive carries no actions at all.
func (a ActionDirective) IsEmpty() bool {
	return len(a.Approvers) == 0 && a.ChangeStatus == "" && a.AssignTo == "" &&
		len(a.Notify) == 0 && a.CreateTask == nil
}

// WorkflowDefinition is a stored template describing when (trigger +
// conditions) and what (actions) to do for a governed entity type.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"   validate:"required"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Type        WorkflowType   `json:"type"        validate:"required"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Trigger     TriggerType    `json:"trigger"     validate:"required"`
	EntityType  EntityType     `json:"entity_type" validate:"required"`

	// Conditions is the legacy flat equality map. Every key must equal the
	// snapshot value for the workflow to fire; an empty map always passes.
	Conditions map[string]any `json:"conditions,omitempty"`

	Actions ActionDirective `json:"actions"`

	// DaysBeforeDeadline applies to deadline_approaching triggers only.
	DaysBeforeDeadline int `json:"days_before_deadline,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the definition may be triggered.
func (w *WorkflowDefinition) IsActive() bool {
	return w.Status == WorkflowStatusActive
}

// MatchesConditions evaluates the legacy flat conditions map against an
// entity snapshot. Absence of conditions means always true.
func (w *WorkflowDefinition) MatchesConditions(snapshot map[string]any) bool {
	for field, expected := range w.Conditions {
		if !LooseEqual(snapshot[field], expected) {
			return false
		}
	}

	return true
}

// WithinDeadlineWindow reports whether a deadline-approaching event falls
// inside the definition's reminder window, using the days_until_deadline
// value the deadline poller puts on the snapshot. Definitions without a
// window, non-deadline triggers, and snapshots carrying no comparable value
// all pass.
func (w *WorkflowDefinition) WithinDeadlineWindow(snapshot map[string]any) bool {
	if w.Trigger != TriggerOnDeadlineApproaching || w.DaysBeforeDeadline <= 0 {
		return true
	}

	days, ok := toFloat(snapshot["days_until_deadline"])
	if !ok {
		return true
	}

	return days <= float64(w.DaysBeforeDeadline)
}
