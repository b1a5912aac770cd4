package engine

import (
	"context"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/notify"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

// Notification kinds sent to the workflow creator when an approval round
// resolves.
const (
	ApprovedNotificationKind = "workflow_approved"
	RejectedNotificationKind = "workflow_rejected"
)

// Decide records one approver's decision and re-derives the parent
// execution's aggregate state.
//
// Preconditions surface with specific semantics: a missing approval returns
// persistence.ErrApprovalNotFound, a wrong acting user ErrForbidden, a
// re-decision ErrAlreadyDecided. Anything unexpected wraps into a
// DecisionError. Once the decision is persisted it sticks: post-approval
// automation failures are recorded on the execution, never returned.
func (e *Engine) Decide(
	ctx context.Context,
	approvalID string,
	actingUserID string,
	decision models.ApprovalStatus,
	comments string,
	signature *models.Signature,
) error {
	approval, err := e.store.ApprovalByID(ctx, approvalID)
	if err != nil {
		return err
	}

	if approval.ApproverID != actingUserID {
		return ErrForbidden
	}

	if approval.Status != models.ApprovalStatusPending {
		return ErrAlreadyDecided
	}

	if !decision.IsDecision() {
		return ErrInvalidDecision
	}

	now := time.Now().UTC()
	approval.Status = decision
	approval.Comments = comments
	approval.RespondedAt = &now

	if signature != nil {
		if signature.SignedAt.IsZero() {
			signature.SignedAt = now
		}

		approval.Signature = signature
	}

	err = e.store.SaveApproval(ctx, approval)
	if err != nil {
		return &DecisionError{ApprovalID: approvalID, Err: err}
	}

	err = e.resolveExecution(ctx, approval)
	if err != nil {
		return &DecisionError{ApprovalID: approvalID, Err: err}
	}

	return nil
}

// resolveExecution aggregates the execution's approval set and completes or
// fails it. The read-modify-decide sequence is serialized per execution so
// two concurrent decisions cannot both fire the completion pipeline.
func (e *Engine) resolveExecution(ctx context.Context, decided *models.Approval) error {
	release, err := e.locker.Acquire(ctx, decided.ExecutionID)
	if err != nil {
		return err
	}
	defer release()

	execution, err := e.store.ExecutionByID(ctx, decided.ExecutionID)
	if err != nil {
		return err
	}

	if execution.Status.IsTerminal() {
		return nil
	}

	siblings, err := e.store.ApprovalsByExecution(ctx, decided.ExecutionID)
	if err != nil {
		return err
	}

	var rejected *models.Approval

	allApproved := true

	for _, sibling := range siblings {
		if sibling.Status == models.ApprovalStatusRejected {
			rejected = sibling
		}

		if sibling.Status != models.ApprovalStatusApproved {
			allApproved = false
		}
	}

	switch {
	case rejected != nil:
		e.finalizeRejected(ctx, execution, rejected)
	case allApproved:
		e.finalizeApproved(ctx, execution)
	default:
		// Mixed pending/approved: the execution keeps waiting.
	}

	return nil
}

// finalizeRejected fails the execution permanently. No further action
// execution occurs.
func (e *Engine) finalizeRejected(ctx context.Context, execution *models.Execution, rejected *models.Approval) {
	reason := "rejected by " + rejected.ApproverID
	if rejected.Comments != "" {
		reason += ": " + rejected.Comments
	}

	e.markFailed(ctx, execution, &rejectionError{reason: reason})
	e.notifyCreator(ctx, execution, RejectedNotificationKind, map[string]any{
		"execution_id": execution.ID,
		"rejected_by":  rejected.ApproverID,
		"reason":       rejected.Comments,
	})

	e.logger.InfoContext(ctx, "Execution rejected",
		"execution_id", execution.ID,
		"rejected_by", rejected.ApproverID)
}

// finalizeApproved runs the remaining non-approval actions and completes the
// execution. A pipeline failure is recorded on the execution but the
// approver's decision has already been persisted and is not disturbed.
func (e *Engine) finalizeApproved(ctx context.Context, execution *models.Execution) {
	workflow, err := e.store.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		e.markFailed(ctx, execution, err)

		return
	}

	err = e.runActions(ctx, workflow, execution, false)
	if err != nil {
		e.markFailed(ctx, execution, err)

		return
	}

	e.markCompleted(ctx, execution)
	e.notifyCreator(ctx, execution, ApprovedNotificationKind, map[string]any{
		"execution_id": execution.ID,
		"workflow_id":  workflow.ID,
	})

	e.logger.InfoContext(ctx, "Execution approved and completed", "execution_id", execution.ID)
}

// notifyCreator delivers a resolution notification to whoever created the
// workflow definition, best effort.
func (e *Engine) notifyCreator(ctx context.Context, execution *models.Execution, kind string, payload map[string]any) {
	workflow, err := e.store.WorkflowByID(ctx, execution.WorkflowID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load workflow for creator notification",
			"workflow_id", execution.WorkflowID, "error", err)

		return
	}

	if workflow.CreatedBy == "" {
		return
	}

	outbox := notify.NewOutbox()
	outbox.Add(protocol.NotificationIntent{
		UserID:  workflow.CreatedBy,
		Kind:    kind,
		Payload: payload,
	})
	e.dispatcher.Dispatch(ctx, outbox)
}

type rejectionError struct {
	reason string
}

func (r *rejectionError) Error() string {
	return r.reason
}
