// Package memory provides an in-memory persistence implementation for tests
// and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

type Persistence struct {
	mu         sync.RWMutex
	workflows  map[string]*models.WorkflowDefinition
	rules      map[string]*models.TriggerRule
	executions map[string]*models.Execution
	approvals  map[string]*models.Approval
	tasks      map[string]*models.Task
}

func NewPersistence() *Persistence {
	return &Persistence{
		workflows:  make(map[string]*models.WorkflowDefinition),
		rules:      make(map[string]*models.TriggerRule),
		executions: make(map[string]*models.Execution),
		approvals:  make(map[string]*models.Approval),
		tasks:      make(map[string]*models.Task),
	}
}

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

func (p *Persistence) Close(_ context.Context) error { return nil }

func (p *Persistence) Workflows(_ context.Context, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.WorkflowDefinition, 0)

	for _, workflow := range p.workflows {
		if filter.TenantID != "" && workflow.TenantID != filter.TenantID {
			continue
		}

		if filter.EntityType != "" && workflow.EntityType != filter.EntityType {
			continue
		}

		if filter.Trigger != "" && workflow.Trigger != filter.Trigger {
			continue
		}

		if filter.Status != "" && workflow.Status != filter.Status {
			continue
		}

		copied := *workflow
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow, ok := p.workflows[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	copied := *workflow

	return &copied, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *workflow
	copied.UpdatedAt = time.Now().UTC()

	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}

	p.workflows[copied.ID] = &copied

	return nil
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.workflows[id]; !ok {
		return persistence.ErrWorkflowNotFound
	}

	delete(p.workflows, id)

	return nil
}

func (p *Persistence) Rules(_ context.Context, filter persistence.RuleFilter) ([]*models.TriggerRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.TriggerRule, 0)

	for _, rule := range p.rules {
		if rule.DeletedAt != nil {
			continue
		}

		if filter.TenantID != "" && rule.TenantID != filter.TenantID {
			continue
		}

		if filter.EntityType != "" && rule.EntityType != filter.EntityType {
			continue
		}

		if filter.Trigger != "" && rule.Trigger != filter.Trigger {
			continue
		}

		if filter.ActiveOnly && !rule.Active {
			continue
		}

		copied := *rule
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority > result[j].Priority
	})

	return result, nil
}

func (p *Persistence) RuleByID(_ context.Context, id string) (*models.TriggerRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rule, ok := p.rules[id]
	if !ok || rule.DeletedAt != nil {
		return nil, persistence.ErrRuleNotFound
	}

	copied := *rule

	return &copied, nil
}

func (p *Persistence) SaveRule(_ context.Context, rule *models.TriggerRule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *rule
	copied.UpdatedAt = time.Now().UTC()

	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}

	p.rules[copied.ID] = &copied

	return nil
}

func (p *Persistence) DeleteRule(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rule, ok := p.rules[id]
	if !ok || rule.DeletedAt != nil {
		return persistence.ErrRuleNotFound
	}

	now := time.Now().UTC()
	rule.DeletedAt = &now

	return nil
}

func (p *Persistence) Executions(_ context.Context, filter persistence.ExecutionFilter) ([]*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Execution, 0)

	for _, execution := range p.executions {
		if filter.TenantID != "" && execution.TenantID != filter.TenantID {
			continue
		}

		if filter.WorkflowID != "" && execution.WorkflowID != filter.WorkflowID {
			continue
		}

		if filter.EntityType != "" && execution.EntityType != filter.EntityType {
			continue
		}

		if filter.EntityID != "" && execution.EntityID != filter.EntityID {
			continue
		}

		if filter.Status != "" && execution.Status != filter.Status {
			continue
		}

		copied := *execution
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution, ok := p.executions[id]
	if !ok {
		return nil, persistence.ErrExecutionNotFound
	}

	copied := *execution

	return &copied, nil
}

func (p *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *execution
	copied.UpdatedAt = time.Now().UTC()

	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}

	p.executions[copied.ID] = &copied

	return nil
}

func (p *Persistence) CountOpenByWorkflow(_ context.Context, workflowID string) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0

	for _, execution := range p.executions {
		if execution.WorkflowID == workflowID && !execution.Status.IsTerminal() {
			count++
		}
	}

	return count, nil
}

func (p *Persistence) ApprovalByID(_ context.Context, id string) (*models.Approval, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	approval, ok := p.approvals[id]
	if !ok {
		return nil, persistence.ErrApprovalNotFound
	}

	copied := *approval

	return &copied, nil
}

func (p *Persistence) ApprovalsByExecution(_ context.Context, executionID string) ([]*models.Approval, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Approval, 0)

	for _, approval := range p.approvals {
		if approval.ExecutionID == executionID {
			copied := *approval
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StepOrder < result[j].StepOrder
	})

	return result, nil
}

func (p *Persistence) ApprovalsByApprover(_ context.Context, approverID string, status models.ApprovalStatus) ([]*models.Approval, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Approval, 0)

	for _, approval := range p.approvals {
		if approval.ApproverID != approverID {
			continue
		}

		if status != "" && approval.Status != status {
			continue
		}

		copied := *approval
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (p *Persistence) SaveApproval(_ context.Context, approval *models.Approval) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *approval
	copied.UpdatedAt = time.Now().UTC()

	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}

	p.approvals[copied.ID] = &copied

	return nil
}

func (p *Persistence) SaveTask(_ context.Context, task *models.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *task
	copied.UpdatedAt = time.Now().UTC()

	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = copied.UpdatedAt
	}

	p.tasks[copied.ID] = &copied

	return nil
}

// Tasks returns every stored task, newest first. Not part of the Persistence
// contract; used by tests and local tooling.
func (p *Persistence) Tasks(_ context.Context) ([]*models.Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*models.Task, 0, len(p.tasks))

	for _, task := range p.tasks {
		copied := *task
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (p *Persistence) TaskByID(_ context.Context, id string) (*models.Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	task, ok := p.tasks[id]
	if !ok {
		return nil, persistence.ErrTaskNotFound
	}

	copied := *task

	return &copied, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}

		items = items[offset:]
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
