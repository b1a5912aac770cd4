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

// ExecutionRepository handles execution database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
			id
		  , tenant_id
		  , workflow_id
		  , entity_type
		  , entity_id
		  , status
		  , input_data
		  , output_data
		  , error_message
		  , assigned_to_id
		  , triggered_by
		  , started_at
		  , completed_at
		  , created_at
		  , updated_at
`

// List returns executions matching the filter, newest first.
func (r *ExecutionRepository) List(ctx context.Context, filter persistence.ExecutionFilter) ([]*models.Execution, error) {
	query := `SELECT` + executionColumns + `FROM executions WHERE 1=1`

	args := make([]any, 0, 5)

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}

	if filter.WorkflowID != "" {
		args = append(args, filter.WorkflowID)
		query += fmt.Sprintf(" AND workflow_id = $%d", len(args))
	}

	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}

	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
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
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT` + executionColumns + `FROM executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to query execution: %w", err)
	}

	return execution, nil
}

// Save upserts an execution.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	now := time.Now().UTC()
	execution.UpdatedAt = now

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	inputData, err := json.Marshal(execution.InputData)
	if err != nil {
		return fmt.Errorf("failed to marshal input data: %w", err)
	}

	outputData, err := json.Marshal(execution.OutputData)
	if err != nil {
		return fmt.Errorf("failed to marshal output data: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, tenant_id, workflow_id, entity_type, entity_id, status,
			input_data, output_data, error_message, assigned_to_id,
			triggered_by, started_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			output_data = EXCLUDED.output_data,
			error_message = EXCLUDED.error_message,
			assigned_to_id = EXCLUDED.assigned_to_id,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.TenantID, execution.WorkflowID,
		execution.EntityType, execution.EntityID, execution.Status,
		inputData, outputData, nullString(execution.ErrorMessage),
		nullString(execution.AssignedToID), nullString(execution.TriggeredBy),
		execution.StartedAt, execution.CompletedAt,
		execution.CreatedAt, execution.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

// CountOpenByWorkflow counts non-terminal executions for a definition.
func (r *ExecutionRepository) CountOpenByWorkflow(ctx context.Context, workflowID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM executions
		WHERE workflow_id = $1 AND status IN ('pending', 'in_progress')
	`

	var count int

	err := r.db.QueryRowContext(ctx, query, workflowID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open executions: %w", err)
	}

	return count, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution    models.Execution
		inputData    []byte
		outputData   []byte
		errorMessage sql.NullString
		assignedTo   sql.NullString
		triggeredBy  sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&execution.ID, &execution.TenantID, &execution.WorkflowID,
		&execution.EntityType, &execution.EntityID, &execution.Status,
		&inputData, &outputData, &errorMessage, &assignedTo, &triggeredBy,
		&startedAt, &completedAt, &execution.CreatedAt, &execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.ErrorMessage = errorMessage.String
	execution.AssignedToID = assignedTo.String
	execution.TriggeredBy = triggeredBy.String

	if startedAt.Valid {
		execution.StartedAt = &startedAt.Time
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	if len(inputData) > 0 {
		err = json.Unmarshal(inputData, &execution.InputData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal input data: %w", err)
		}
	}

	if len(outputData) > 0 {
		err = json.Unmarshal(outputData, &execution.OutputData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal output data: %w", err)
		}
	}

	return &execution, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
