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

// ApprovalRepository handles approval database operations.
type ApprovalRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewApprovalRepository creates a new approval repository.
func NewApprovalRepository(db *sql.DB, logger *slog.Logger) *ApprovalRepository {
	return &ApprovalRepository{db: db, logger: logger}
}

const approvalColumns = `
			id
		  , execution_id
		  , approver_id
		  , status
		  , comments
		  , step_order
		  , signature
		  , responded_at
		  , created_at
		  , updated_at
`

// GetByID returns an approval by its ID.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	query := `SELECT` + approvalColumns + `FROM approvals WHERE id = $1`

	approval, err := scanApproval(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrApprovalNotFound
		}

		return nil, fmt.Errorf("failed to query approval: %w", err)
	}

	return approval, nil
}

// ListByExecution returns all approvals of an execution ordered by step.
func (r *ApprovalRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.Approval, error) {
	query := `SELECT` + approvalColumns + `FROM approvals WHERE execution_id = $1 ORDER BY step_order ASC`

	return r.list(ctx, query, executionID)
}

// ListByApprover returns approvals assigned to a user, optionally filtered by
// status, newest first.
func (r *ApprovalRepository) ListByApprover(ctx context.Context, approverID string, status models.ApprovalStatus) ([]*models.Approval, error) {
	query := `SELECT` + approvalColumns + `FROM approvals WHERE approver_id = $1`
	args := []any{approverID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	return r.list(ctx, query, args...)
}

func (r *ApprovalRepository) list(ctx context.Context, query string, args ...any) ([]*models.Approval, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	approvals := make([]*models.Approval, 0)

	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}

		approvals = append(approvals, approval)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating approvals: %w", err)
	}

	return approvals, nil
}

// Save upserts an approval.
func (r *ApprovalRepository) Save(ctx context.Context, approval *models.Approval) error {
	now := time.Now().UTC()
	approval.UpdatedAt = now

	if approval.CreatedAt.IsZero() {
		approval.CreatedAt = now
	}

	var (
		signature []byte
		err       error
	)

	if approval.Signature != nil {
		signature, err = json.Marshal(approval.Signature)
		if err != nil {
			return fmt.Errorf("failed to marshal signature: %w", err)
		}
	}

	query := `
		INSERT INTO approvals (
			id, execution_id, approver_id, status, comments, step_order,
			signature, responded_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			comments = EXCLUDED.comments,
			signature = EXCLUDED.signature,
			responded_at = EXCLUDED.responded_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		approval.ID, approval.ExecutionID, approval.ApproverID,
		approval.Status, nullString(approval.Comments), approval.StepOrder,
		signature, approval.RespondedAt, approval.CreatedAt, approval.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}

	return nil
}

func scanApproval(row rowScanner) (*models.Approval, error) {
	var (
		approval    models.Approval
		comments    sql.NullString
		signature   []byte
		respondedAt sql.NullTime
	)

	err := row.Scan(
		&approval.ID, &approval.ExecutionID, &approval.ApproverID,
		&approval.Status, &comments, &approval.StepOrder, &signature,
		&respondedAt, &approval.CreatedAt, &approval.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	approval.Comments = comments.String

	if respondedAt.Valid {
		approval.RespondedAt = &respondedAt.Time
	}

	if len(signature) > 0 {
		approval.Signature = &models.Signature{}

		err = json.Unmarshal(signature, approval.Signature)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal signature: %w", err)
		}
	}

	return &approval, nil
}
