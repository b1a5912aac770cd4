// Package assign sets the assignee on the execution being processed.
package assign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

type Executor struct {
	executions persistence.ExecutionRepository
}

func NewExecutor(executions persistence.ExecutionRepository) *Executor {
	return &Executor{executions: executions}
}

func (*Executor) ID() string {
	return "assign"
}

func (*Executor) Applicable(directive models.ActionDirective) bool {
	return directive.AssignTo != ""
}

// Execute assigns the CURRENT execution, threaded in via the action context.
// Re-querying "most recent execution for this entity" would race under
// concurrent executions.
func (e *Executor) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	execution, err := e.executions.ExecutionByID(ctx, actionCtx.Execution.ID)
	if err != nil {
		return fmt.Errorf("failed to load execution for assignment: %w", err)
	}

	execution.AssignedToID = actionCtx.Workflow.Actions.AssignTo

	err = e.executions.SaveExecution(ctx, execution)
	if err != nil {
		return fmt.Errorf("failed to assign execution: %w", err)
	}

	actionCtx.Execution.AssignedToID = execution.AssignedToID

	logger.Info("Assigned execution",
		"execution_id", execution.ID,
		"assigned_to", execution.AssignedToID)

	return nil
}
