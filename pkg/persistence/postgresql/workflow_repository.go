package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// WorkflowRepository handles workflow definition database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow definition repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
			id
		  , tenant_id
		  , name
		  , description
		  , type
		  , status
		  , trigger_type
		  , entity_type
		  , conditions
		  , actions
		  , days_before_deadline
		  , created_by
		  , created_at
		  , updated_at
`

// List returns definitions matching the filter, newest first.
func (r *WorkflowRepository) List(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	query := `SELECT` + workflowColumns + `FROM workflow_definitions WHERE 1=1`

	args := make([]any, 0, 4)

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}

	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}

	if filter.Trigger != "" {
		args = append(args, filter.Trigger)
		query += fmt.Sprintf(" AND trigger_type = $%d", len(args))
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow definitions: %w", err)
	}

	defer r.closeRows(ctx, rows)

	workflows := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow definitions: %w", err)
	}

	return workflows, nil
}

// GetByID returns a definition by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `SELECT` + workflowColumns + `FROM workflow_definitions WHERE id = $1`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to query workflow definition: %w", err)
	}

	return workflow, nil
}

// Save upserts a definition.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDefinition) error {
	now := time.Now().UTC()
	workflow.UpdatedAt = now

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	conditions, err := json.Marshal(workflow.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actions, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflow_definitions (
			id, tenant_id, name, description, type, status, trigger_type,
			entity_type, conditions, actions, days_before_deadline,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			trigger_type = EXCLUDED.trigger_type,
			entity_type = EXCLUDED.entity_type,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			days_before_deadline = EXCLUDED.days_before_deadline,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.TenantID, workflow.Name, workflow.Description,
		workflow.Type, workflow.Status, workflow.Trigger, workflow.EntityType,
		conditions, actions, workflow.DaysBeforeDeadline, workflow.CreatedBy,
		workflow.CreatedAt, workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow definition: %w", err)
	}

	return nil
}

// Delete removes a definition permanently.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow definition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		workflow    models.WorkflowDefinition
		description sql.NullString
		createdBy   sql.NullString
		conditions  []byte
		actions     []byte
	)

	err := row.Scan(
		&workflow.ID, &workflow.TenantID, &workflow.Name, &description,
		&workflow.Type, &workflow.Status, &workflow.Trigger, &workflow.EntityType,
		&conditions, &actions, &workflow.DaysBeforeDeadline, &createdBy,
		&workflow.CreatedAt, &workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Description = description.String
	workflow.CreatedBy = createdBy.String

	if len(conditions) > 0 {
		err = json.Unmarshal(conditions, &workflow.Conditions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
	}

	if len(actions) > 0 {
		err = json.Unmarshal(actions, &workflow.Actions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
	}

	return &workflow, nil
}
