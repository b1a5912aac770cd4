package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow definition is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// actionDirectiveSchema is the authoritative shape of the actions block.
// Unknown keys are rejected so typos surface at write time instead of being
// silently ignored during execution.
var actionDirectiveSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"approvers": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "minLength": 1},
		},
		"change_status": map[string]any{"type": "string"},
		"assign_to":     map[string]any{"type": "string"},
		"notify": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "minLength": 1},
		},
		"create_task": map[string]any{
			"type":     "object",
			"required": []string{"title"},
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "minLength": 1},
				"description": map[string]any{"type": "string"},
				"priority":    map[string]any{"type": "string"},
				"due_date":    map[string]any{"type": "string"},
				"assignee_id": map[string]any{"type": "string"},
			},
		},
	},
}

// Definitions manages workflow definition lifecycle: validation, persistence
// and the delete guard.
type Definitions struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewDefinitions creates a new workflow definition service.
func NewDefinitions(persistence persistence.Persistence, validator *validator.Validate) *Definitions {
	return &Definitions{
		persistence: persistence,
		validator:   validator,
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Definitions) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and stores a new definition. The server owns the id and
// timestamps.
func (d *Definitions) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusActive
	}

	err := d.validate(workflow)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err = d.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow definition: %w", err)
	}

	return workflow, nil
}

// Update validates and stores changes to an existing definition. Identity and
// creation metadata are preserved from the stored record.
func (d *Definitions) Update(ctx context.Context, id string, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	existing, err := d.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = existing.ID
	workflow.TenantID = existing.TenantID
	workflow.CreatedBy = existing.CreatedBy
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if workflow.Status == "" {
		workflow.Status = existing.Status
	}

	err = d.validate(workflow)
	if err != nil {
		return nil, err
	}

	err = d.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow definition: %w", err)
	}

	return workflow, nil
}

// FetchByID retrieves a definition by its id.
func (d *Definitions) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return d.persistence.WorkflowByID(ctx, id)
}

// List retrieves definitions matching the filter.
func (d *Definitions) List(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 100
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return d.persistence.Workflows(ctx, filter)
}

// Delete removes a definition. A definition with pending or in-progress
// executions is protected; callers must wait for them to resolve.
func (d *Definitions) Delete(ctx context.Context, id string) error {
	_, err := d.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	open, err := d.persistence.CountOpenByWorkflow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count open executions: %w", err)
	}

	if open > 0 {
		return NewValidationError(
			"Delete",
			"WORKFLOW_IN_USE",
			fmt.Sprintf("workflow has %d open executions", open),
			ErrWorkflowHasOpenExecutions,
		)
	}

	return d.persistence.DeleteWorkflow(ctx, id)
}

// validate applies struct tags, enum membership and the action directive
// schema. All rejections map to 400s.
func (d *Definitions) validate(workflow *models.WorkflowDefinition) error {
	err := d.validator.Struct(workflow)
	if err != nil {
		return NewValidationError("validate", "INVALID_DEFINITION", err.Error(), ErrInvalidRequest)
	}

	if !models.ValidEntityType(workflow.EntityType) {
		return NewValidationError(
			"validate",
			"INVALID_ENTITY_TYPE",
			fmt.Sprintf("unknown entity type %q", workflow.EntityType),
			ErrInvalidEntityType,
		)
	}

	if !models.ValidWorkflowType(workflow.Type) {
		return NewValidationError(
			"validate",
			"INVALID_WORKFLOW_TYPE",
			fmt.Sprintf("unknown workflow type %q", workflow.Type),
			ErrInvalidWorkflowType,
		)
	}

	if !models.ValidWorkflowStatus(workflow.Status) {
		return NewValidationError(
			"validate",
			"INVALID_STATUS",
			fmt.Sprintf("unknown workflow status %q", workflow.Status),
			ErrInvalidStatus,
		)
	}

	if !models.ValidTriggerType(workflow.Trigger) {
		return NewValidationError(
			"validate",
			"INVALID_TRIGGER",
			fmt.Sprintf("unknown trigger type %q", workflow.Trigger),
			ErrInvalidTrigger,
		)
	}

	if workflow.Type == models.WorkflowTypeApproval && len(workflow.Actions.Approvers) == 0 {
		return NewValidationError(
			"validate",
			"APPROVERS_REQUIRED",
			"approval workflows must name at least one approver",
			ErrApproversRequired,
		)
	}

	return d.validateActions(workflow.Actions)
}

func (d *Definitions) validateActions(actions models.ActionDirective) error {
	schemaLoader := gojsonschema.NewGoLoader(actionDirectiveSchema)
	dataLoader := gojsonschema.NewGoLoader(actions)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate action directive: %w", err)
	}

	if !result.Valid() {
		var details []string
		for _, issue := range result.Errors() {
			details = append(details, issue.String())
		}

		return NewValidationError(
			"validateActions",
			"INVALID_ACTIONS",
			strings.Join(details, "; "),
			ErrInvalidActions,
		)
	}

	return nil
}
