package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// TaskRepository handles workflow-created task database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Save upserts a task.
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.UpdatedAt = now

	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	query := `
		INSERT INTO tasks (
			id, tenant_id, title, description, priority, due_date,
			assignee_id, entity_type, entity_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			due_date = EXCLUDED.due_date,
			assignee_id = EXCLUDED.assignee_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.TenantID, task.Title, nullString(task.Description),
		nullString(task.Priority), task.DueDate, nullString(task.AssigneeID),
		task.EntityType, task.EntityID, task.Status,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// GetByID returns a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , title
		  , description
		  , priority
		  , due_date
		  , assignee_id
		  , entity_type
		  , entity_id
		  , status
		  , created_at
		  , updated_at
		FROM tasks
		WHERE id = $1
	`

	var (
		task        models.Task
		description sql.NullString
		priority    sql.NullString
		assigneeID  sql.NullString
		dueDate     sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.TenantID, &task.Title, &description, &priority,
		&dueDate, &assigneeID, &task.EntityType, &task.EntityID, &task.Status,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	task.Description = description.String
	task.Priority = priority.String
	task.AssigneeID = assigneeID.String

	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}

	return &task, nil
}
