package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// ErrRuleNotFound is returned when a trigger rule is not found.
var ErrRuleNotFound = persistence.ErrRuleNotFound

// Rules manages trigger rule lifecycle. Unknown predicate operators are
// rejected here, at write time, so the matcher never has to guess.
type Rules struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewRules creates a new trigger rule service.
func NewRules(persistence persistence.Persistence, validator *validator.Validate) *Rules {
	return &Rules{
		persistence: persistence,
		validator:   validator,
	}
}

// Create validates and stores a new rule.
func (r *Rules) Create(ctx context.Context, rule *models.TriggerRule) (*models.TriggerRule, error) {
	err := r.validate(ctx, rule)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule.ID = uuid.New().String()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.DeletedAt = nil

	err = r.persistence.SaveRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to save trigger rule: %w", err)
	}

	return rule, nil
}

// Update validates and stores changes to an existing rule.
func (r *Rules) Update(ctx context.Context, id string, rule *models.TriggerRule) (*models.TriggerRule, error) {
	existing, err := r.persistence.RuleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.ID = existing.ID
	rule.TenantID = existing.TenantID
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	rule.DeletedAt = nil

	err = r.validate(ctx, rule)
	if err != nil {
		return nil, err
	}

	err = r.persistence.SaveRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to update trigger rule: %w", err)
	}

	return rule, nil
}

// FetchByID retrieves a rule by its id.
func (r *Rules) FetchByID(ctx context.Context, id string) (*models.TriggerRule, error) {
	return r.persistence.RuleByID(ctx, id)
}

// List retrieves rules matching the filter, highest priority first.
func (r *Rules) List(ctx context.Context, filter persistence.RuleFilter) ([]*models.TriggerRule, error) {
	return r.persistence.Rules(ctx, filter)
}

// Delete soft-deletes a rule. Deleted rules never match again but stay
// queryable for audit.
func (r *Rules) Delete(ctx context.Context, id string) error {
	_, err := r.persistence.RuleByID(ctx, id)
	if err != nil {
		return err
	}

	return r.persistence.DeleteRule(ctx, id)
}

func (r *Rules) validate(ctx context.Context, rule *models.TriggerRule) error {
	err := r.validator.Struct(rule)
	if err != nil {
		return NewValidationError("validate", "INVALID_RULE", err.Error(), ErrInvalidRequest)
	}

	if !models.ValidEntityType(rule.EntityType) {
		return NewValidationError(
			"validate",
			"INVALID_ENTITY_TYPE",
			fmt.Sprintf("unknown entity type %q", rule.EntityType),
			ErrInvalidEntityType,
		)
	}

	if !models.ValidTriggerType(rule.Trigger) {
		return NewValidationError(
			"validate",
			"INVALID_TRIGGER",
			fmt.Sprintf("unknown trigger type %q", rule.Trigger),
			ErrInvalidTrigger,
		)
	}

	err = rule.Validate()
	if err != nil {
		return NewValidationError("validate", "INVALID_OPERATOR", err.Error(), ErrInvalidOperator)
	}

	if rule.WorkflowID == "" {
		return NewValidationError(
			"validate",
			"WORKFLOW_ID_REQUIRED",
			"rule must reference a workflow definition",
			ErrWorkflowIDRequired,
		)
	}

	_, err = r.persistence.WorkflowByID(ctx, rule.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return NewValidationError(
				"validate",
				"UNKNOWN_WORKFLOW",
				fmt.Sprintf("workflow definition %s does not exist", rule.WorkflowID),
				ErrWorkflowIDRequired,
			)
		}

		return fmt.Errorf("failed to resolve rule workflow: %w", err)
	}

	return nil
}
