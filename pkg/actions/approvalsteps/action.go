// Package approvalsteps creates the pending approval records for
// approval-type workflow definitions.
package approvalsteps

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

// NotificationKind sent to each approver when their step is created.
const NotificationKind = "approval_request"

type Executor struct {
	approvals persistence.ApprovalRepository
}

func NewExecutor(approvals persistence.ApprovalRepository) *Executor {
	return &Executor{approvals: approvals}
}

func (*Executor) ID() string {
	return "approval_steps"
}

func (*Executor) Applicable(directive models.ActionDirective) bool {
	return len(directive.Approvers) > 0
}

// Execute creates one pending approval per approver, all eagerly: stepOrder
// assigns ordering for display, not sequential gating.
func (e *Executor) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	// Only approval-type definitions spawn approval steps.
	if actionCtx.Workflow.Type != models.WorkflowTypeApproval {
		return nil
	}

	for index, approverID := range actionCtx.Workflow.Actions.Approvers {
		approval := &models.Approval{
			ID:          uuid.New().String(),
			ExecutionID: actionCtx.Execution.ID,
			ApproverID:  approverID,
			Status:      models.ApprovalStatusPending,
			StepOrder:   index + 1,
		}

		err := e.approvals.SaveApproval(ctx, approval)
		if err != nil {
			return fmt.Errorf("failed to create approval step for %s: %w", approverID, err)
		}

		actionCtx.Notify.Add(protocol.NotificationIntent{
			UserID: approverID,
			Kind:   NotificationKind,
			Payload: map[string]any{
				"approval_id":  approval.ID,
				"execution_id": actionCtx.Execution.ID,
				"workflow_id":  actionCtx.Workflow.ID,
				"entity_type":  actionCtx.Execution.EntityType,
				"entity_id":    actionCtx.Execution.EntityID,
				"step_order":   approval.StepOrder,
			},
		})

		logger.Info("Created approval step",
			"approval_id", approval.ID,
			"approver_id", approverID,
			"step_order", approval.StepOrder)
	}

	return nil
}
