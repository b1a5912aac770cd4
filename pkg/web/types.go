// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/mohamedadel0806/stratagem/pkg/models"

// CreateDefinitionRequest represents the request body for creating a workflow definition.
type CreateDefinitionRequest struct {
	TenantID           string                 `json:"tenant_id"             validate:"required"`
	Name               string                 `json:"name"                  validate:"required,min=3"`
	Description        string                 `json:"description"`
	Type               models.WorkflowType    `json:"type"                  validate:"required"`
	Status             models.WorkflowStatus  `json:"status"`
	Trigger            models.TriggerType     `json:"trigger"               validate:"required"`
	EntityType         models.EntityType      `json:"entity_type"           validate:"required"`
	Conditions         map[string]any         `json:"conditions,omitempty"`
	Actions            models.ActionDirective `json:"actions"`
	DaysBeforeDeadline int                    `json:"days_before_deadline,omitempty"`
	CreatedBy          string                 `json:"created_by"`
}

// UpdateDefinitionRequest represents the request body for updating a workflow definition.
// All fields are optional to support partial updates.
type UpdateDefinitionRequest struct {
	Name               *string                 `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description        *string                 `json:"description,omitempty"`
	Type               *models.WorkflowType    `json:"type,omitempty"`
	Status             *models.WorkflowStatus  `json:"status,omitempty"`
	Trigger            *models.TriggerType     `json:"trigger,omitempty"`
	EntityType         *models.EntityType      `json:"entity_type,omitempty"`
	Conditions         map[string]any          `json:"conditions,omitempty"`
	Actions            *models.ActionDirective `json:"actions,omitempty"`
	DaysBeforeDeadline *int                    `json:"days_before_deadline,omitempty"`
}

// CreateRuleRequest represents the request body for creating a trigger rule.
type CreateRuleRequest struct {
	TenantID   string             `json:"tenant_id"   validate:"required"`
	Name       string             `json:"name"        validate:"required,min=3"`
	EntityType models.EntityType  `json:"entity_type" validate:"required"`
	Trigger    models.TriggerType `json:"trigger"     validate:"required"`
	Predicates []models.Predicate `json:"predicates"`
	WorkflowID string             `json:"workflow_id" validate:"required"`
	Priority   int                `json:"priority"`
	Active     bool               `json:"active"`
}

// UpdateRuleRequest represents the request body for updating a trigger rule.
type UpdateRuleRequest struct {
	Name       *string             `json:"name,omitempty"        validate:"omitempty,min=3"`
	EntityType *models.EntityType  `json:"entity_type,omitempty"`
	Trigger    *models.TriggerType `json:"trigger,omitempty"`
	Predicates []models.Predicate  `json:"predicates,omitempty"`
	WorkflowID *string             `json:"workflow_id,omitempty"`
	Priority   *int                `json:"priority,omitempty"`
	Active     *bool               `json:"active,omitempty"`
}

// TriggerRequest represents the request body for manually triggering a workflow.
type TriggerRequest struct {
	TenantID    string            `json:"tenant_id"   validate:"required"`
	EntityType  models.EntityType `json:"entity_type" validate:"required"`
	EntityID    string            `json:"entity_id"   validate:"required"`
	Snapshot    map[string]any    `json:"snapshot,omitempty"`
	TriggeredBy string            `json:"triggered_by"`
	Async       bool              `json:"async"`
}

// EntityEventRequest represents an entity lifecycle event reported by the
// wider platform, which runs the full matching pipeline.
type EntityEventRequest struct {
	TenantID    string             `json:"tenant_id"   validate:"required"`
	EntityType  models.EntityType  `json:"entity_type" validate:"required"`
	EntityID    string             `json:"entity_id"   validate:"required"`
	Trigger     models.TriggerType `json:"trigger"     validate:"required"`
	Snapshot    map[string]any     `json:"snapshot,omitempty"`
	TriggeredBy string             `json:"triggered_by"`
}

// DecisionRequest represents the request body for deciding an approval step.
type DecisionRequest struct {
	UserID    string                `json:"user_id"   validate:"required"`
	Decision  models.ApprovalStatus `json:"decision"  validate:"required"`
	Comments  string                `json:"comments,omitempty"`
	Signature *models.Signature     `json:"signature,omitempty"`
}
