// Package postgresql provides the PostgreSQL persistence implementation for
// the workflow engine.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	workflows  *WorkflowRepository
	rules      *RuleRepository
	executions *ExecutionRepository
	approvals  *ApprovalRepository
	tasks      *TaskRepository
}

// NewPersistence opens the database, runs migrations and wires repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:         database,
		logger:     logger,
		workflows:  NewWorkflowRepository(database, logger),
		rules:      NewRuleRepository(database, logger),
		executions: NewExecutionRepository(database, logger),
		approvals:  NewApprovalRepository(database, logger),
		tasks:      NewTaskRepository(database, logger),
	}, nil
}

// DB exposes the underlying handle for collaborators that share the
// connection pool (entity mutators).
func (p *Persistence) DB() *sql.DB {
	return p.db
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	return p.workflows.List(ctx, filter)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return p.workflows.GetByID(ctx, id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error {
	return p.workflows.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflows.Delete(ctx, id)
}

func (p *Persistence) Rules(ctx context.Context, filter persistence.RuleFilter) ([]*models.TriggerRule, error) {
	return p.rules.List(ctx, filter)
}

func (p *Persistence) RuleByID(ctx context.Context, id string) (*models.TriggerRule, error) {
	return p.rules.GetByID(ctx, id)
}

func (p *Persistence) SaveRule(ctx context.Context, rule *models.TriggerRule) error {
	return p.rules.Save(ctx, rule)
}

func (p *Persistence) DeleteRule(ctx context.Context, id string) error {
	return p.rules.Delete(ctx, id)
}

func (p *Persistence) Executions(ctx context.Context, filter persistence.ExecutionFilter) ([]*models.Execution, error) {
	return p.executions.List(ctx, filter)
}

func (p *Persistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	return p.executions.GetByID(ctx, id)
}

func (p *Persistence) SaveExecution(ctx context.Context, execution *models.Execution) error {
	return p.executions.Save(ctx, execution)
}

func (p *Persistence) CountOpenByWorkflow(ctx context.Context, workflowID string) (int, error) {
	return p.executions.CountOpenByWorkflow(ctx, workflowID)
}

func (p *Persistence) ApprovalByID(ctx context.Context, id string) (*models.Approval, error) {
	return p.approvals.GetByID(ctx, id)
}

func (p *Persistence) ApprovalsByExecution(ctx context.Context, executionID string) ([]*models.Approval, error) {
	return p.approvals.ListByExecution(ctx, executionID)
}

func (p *Persistence) ApprovalsByApprover(ctx context.Context, approverID string, status models.ApprovalStatus) ([]*models.Approval, error) {
	return p.approvals.ListByApprover(ctx, approverID, status)
}

func (p *Persistence) SaveApproval(ctx context.Context, approval *models.Approval) error {
	return p.approvals.Save(ctx, approval)
}

func (p *Persistence) SaveTask(ctx context.Context, task *models.Task) error {
	return p.tasks.Save(ctx, task)
}

func (p *Persistence) TaskByID(ctx context.Context, id string) (*models.Task, error) {
	return p.tasks.GetByID(ctx, id)
}
