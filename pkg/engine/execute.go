package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// ExecuteForExecution runs the action pipeline for an already-created
// execution record. Invoked by the queue worker and by the synchronous
// fallback path. Re-invocation for a terminal execution is a no-op, so
// at-least-once queue delivery is safe. A pipeline failure is recorded on the
// execution and returned so the queue's retry policy applies.
func (e *Engine) ExecuteForExecution(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := e.store.ExecutionByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With("execution_id", execution.ID, "workflow_id", execution.WorkflowID)

	if execution.Status.IsTerminal() {
		logger.InfoContext(ctx, "Execution already terminal, skipping", "status", execution.Status)

		return execution, nil
	}

	workflow, err := e.store.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsActive() {
		return nil, fmt.Errorf("workflow %s: %w", workflow.ID, ErrWorkflowInactive)
	}

	if execution.Status == models.ExecutionStatusPending {
		execution.Status = models.ExecutionStatusInProgress

		if execution.StartedAt == nil {
			now := time.Now().UTC()
			execution.StartedAt = &now
		}

		err = e.store.SaveExecution(ctx, execution)
		if err != nil {
			return nil, err
		}
	}

	// Approval workflows stop after spawning their steps; the decision
	// handler resumes them.
	if workflow.Type == models.WorkflowTypeApproval && len(workflow.Actions.Approvers) > 0 {
		err = e.runActions(ctx, workflow, execution, true)
		if err != nil {
			e.markFailed(ctx, execution, err)

			return nil, err
		}

		logger.InfoContext(ctx, "Approval steps created, awaiting decisions",
			"approvers", len(workflow.Actions.Approvers))

		return execution, nil
	}

	err = e.runActions(ctx, workflow, execution, false)
	if err != nil {
		e.markFailed(ctx, execution, err)

		return nil, err
	}

	e.markCompleted(ctx, execution)
	logger.InfoContext(ctx, "Execution completed")

	return execution, nil
}

// markFailed transitions the execution to failed exactly once.
func (e *Engine) markFailed(ctx context.Context, execution *models.Execution, cause error) {
	if execution.Status.IsTerminal() {
		return
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.ErrorMessage = cause.Error()
	execution.CompletedAt = &now

	err := e.store.SaveExecution(ctx, execution)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record execution failure",
			"execution_id", execution.ID, "error", err)
	}
}

// markCompleted transitions the execution to completed exactly once.
func (e *Engine) markCompleted(ctx context.Context, execution *models.Execution) {
	if execution.Status.IsTerminal() {
		return
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now

	err := e.store.SaveExecution(ctx, execution)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to record execution completion",
			"execution_id", execution.ID, "error", err)
	}
}
