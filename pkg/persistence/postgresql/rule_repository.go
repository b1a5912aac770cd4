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

// RuleRepository handles trigger rule database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRuleRepository creates a new trigger rule repository.
func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

const ruleColumns = `
			id
		  , tenant_id
		  , name
		  , entity_type
		  , trigger_type
		  , predicates
		  , workflow_id
		  , priority
		  , active
		  , created_at
		  , updated_at
		  , deleted_at
`

// List returns rules matching the filter, highest priority first.
// Soft-deleted rules are always excluded.
func (r *RuleRepository) List(ctx context.Context, filter persistence.RuleFilter) ([]*models.TriggerRule, error) {
	query := `SELECT` + ruleColumns + `FROM trigger_rules WHERE deleted_at IS NULL`

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

	if filter.ActiveOnly {
		query += " AND active = TRUE"
	}

	query += " ORDER BY priority DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trigger rules: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	rules := make([]*models.TriggerRule, 0)

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trigger rule: %w", err)
		}

		rules = append(rules, rule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating trigger rules: %w", err)
	}

	return rules, nil
}

// GetByID returns a rule by its ID, excluding soft-deleted rules.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.TriggerRule, error) {
	query := `SELECT` + ruleColumns + `FROM trigger_rules WHERE id = $1 AND deleted_at IS NULL`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrRuleNotFound
		}

		return nil, fmt.Errorf("failed to query trigger rule: %w", err)
	}

	return rule, nil
}

// Save upserts a rule.
func (r *RuleRepository) Save(ctx context.Context, rule *models.TriggerRule) error {
	now := time.Now().UTC()
	rule.UpdatedAt = now

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	predicates, err := json.Marshal(rule.Predicates)
	if err != nil {
		return fmt.Errorf("failed to marshal predicates: %w", err)
	}

	query := `
		INSERT INTO trigger_rules (
			id, tenant_id, name, entity_type, trigger_type, predicates,
			workflow_id, priority, active, created_at, updated_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entity_type = EXCLUDED.entity_type,
			trigger_type = EXCLUDED.trigger_type,
			predicates = EXCLUDED.predicates,
			workflow_id = EXCLUDED.workflow_id,
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.TenantID, rule.Name, rule.EntityType, rule.Trigger,
		predicates, rule.WorkflowID, rule.Priority, rule.Active,
		rule.CreatedAt, rule.UpdatedAt, rule.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trigger rule: %w", err)
	}

	return nil
}

// Delete soft-deletes a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE trigger_rules
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete trigger rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrRuleNotFound
	}

	return nil
}

func scanRule(row rowScanner) (*models.TriggerRule, error) {
	var (
		rule       models.TriggerRule
		predicates []byte
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.EntityType, &rule.Trigger,
		&predicates, &rule.WorkflowID, &rule.Priority, &rule.Active,
		&rule.CreatedAt, &rule.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		rule.DeletedAt = &deletedAt.Time
	}

	if len(predicates) > 0 {
		err = json.Unmarshal(predicates, &rule.Predicates)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal predicates: %w", err)
		}
	}

	return &rule, nil
}
