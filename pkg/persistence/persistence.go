// Package persistence provides the data storage abstraction layer for
// workflow definitions, trigger rules, executions, approvals and tasks.
package persistence

import (
	"context"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// WorkflowFilter narrows definition lookups. Zero values mean "any".
type WorkflowFilter struct {
	TenantID   string
	EntityType models.EntityType
	Trigger    models.TriggerType
	Status     models.WorkflowStatus
	Limit      int
	Offset     int
}

// RuleFilter narrows trigger rule lookups. Soft-deleted rules are always
// excluded.
type RuleFilter struct {
	TenantID   string
	EntityType models.EntityType
	Trigger    models.TriggerType
	ActiveOnly bool
}

// ExecutionFilter narrows execution lookups.
type ExecutionFilter struct {
	TenantID   string
	WorkflowID string
	EntityType models.EntityType
	EntityID   string
	Status     models.ExecutionStatus
	Limit      int
	Offset     int
}

type WorkflowRepository interface {
	Workflows(ctx context.Context, filter WorkflowFilter) ([]*models.WorkflowDefinition, error)
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error
}

type RuleRepository interface {
	Rules(ctx context.Context, filter RuleFilter) ([]*models.TriggerRule, error)
	RuleByID(ctx context.Context, id string) (*models.TriggerRule, error)
	SaveRule(ctx context.Context, rule *models.TriggerRule) error
	DeleteRule(ctx context.Context, id string) error
}

type ExecutionRepository interface {
	Executions(ctx context.Context, filter ExecutionFilter) ([]*models.Execution, error)
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
	// CountOpenByWorkflow returns the number of non-terminal executions
	// referencing the given workflow definition.
	CountOpenByWorkflow(ctx context.Context, workflowID string) (int, error)
}

type ApprovalRepository interface {
	ApprovalByID(ctx context.Context, id string) (*models.Approval, error)
	ApprovalsByExecution(ctx context.Context, executionID string) ([]*models.Approval, error)
	ApprovalsByApprover(ctx context.Context, approverID string, status models.ApprovalStatus) ([]*models.Approval, error)
	SaveApproval(ctx context.Context, approval *models.Approval) error
}

type TaskRepository interface {
	SaveTask(ctx context.Context, task *models.Task) error
	TaskByID(ctx context.Context, id string) (*models.Task, error)
}

// Persistence aggregates every repository behind one backend handle.
type Persistence interface {
	WorkflowRepository
	RuleRepository
	ExecutionRepository
	ApprovalRepository
	TaskRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
