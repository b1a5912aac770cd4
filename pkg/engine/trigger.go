package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedadel0806/stratagem/pkg/events"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// TriggerRequest describes one entity lifecycle event. The tenant id travels
// explicitly through every engine entry point.
type TriggerRequest struct {
	TenantID    string
	EntityType  models.EntityType
	EntityID    string
	Trigger     models.TriggerType
	Snapshot    map[string]any
	TriggeredBy string
	UseQueue    bool
}

// CheckAndTrigger gathers every workflow that should fire for a lifecycle
// event and starts one execution per unique workflow. Failures inside a
// workflow's pipeline are recorded on its execution and never surface here;
// the business operation that raised the event must not fail because a
// workflow did. The returned error covers lookup failures only.
func (e *Engine) CheckAndTrigger(ctx context.Context, req TriggerRequest) error {
	logger := e.logger.With(
		"tenant_id", req.TenantID,
		"entity_type", req.EntityType,
		"entity_id", req.EntityID,
		"trigger", req.Trigger,
	)

	// Explicit lookup: active definitions bound to (entityType, trigger).
	explicit, err := e.store.Workflows(ctx, persistence.WorkflowFilter{
		TenantID:   req.TenantID,
		EntityType: req.EntityType,
		Trigger:    req.Trigger,
		Status:     models.WorkflowStatusActive,
	})
	if err != nil {
		return fmt.Errorf("failed to load workflow definitions: %w", err)
	}

	// Rule matching resolves additional workflow ids for the same event.
	ruleHits, err := e.matcher.MatchWorkflows(ctx, req.TenantID, req.EntityType, req.Trigger, req.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to match trigger rules: %w", err)
	}

	// Dedup by workflow id: a workflow reached both ways fires once.
	candidates := make(map[string]*models.WorkflowDefinition, len(explicit))

	for _, workflow := range explicit {
		candidates[workflow.ID] = workflow
	}

	for _, workflowID := range ruleHits {
		if _, ok := candidates[workflowID]; ok {
			continue
		}

		workflow, err := e.store.WorkflowByID(ctx, workflowID)
		if err != nil {
			logger.ErrorContext(ctx, "Rule matched missing workflow", "workflow_id", workflowID, "error", err)

			continue
		}

		if !workflow.IsActive() {
			continue
		}

		candidates[workflow.ID] = workflow
	}

	triggered := 0

	for _, workflow := range candidates {
		// Legacy conditions gate, applied on top of whichever path
		// reached the workflow.
		if !workflow.MatchesConditions(req.Snapshot) {
			continue
		}

		// A reminder window narrows the poller's global lookahead per
		// definition.
		if !workflow.WithinDeadlineWindow(req.Snapshot) {
			continue
		}

		e.startExecution(ctx, workflow, req)
		triggered++
	}

	logger.InfoContext(ctx, "Workflow trigger check completed",
		"candidates", len(candidates),
		"triggered", triggered)

	return nil
}

// TriggerWorkflow starts one specific workflow for an entity, bypassing
// matching. Used by the manual trigger endpoint; the conditions gate still
// applies.
func (e *Engine) TriggerWorkflow(ctx context.Context, workflowID string, req TriggerRequest) error {
	workflow, err := e.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if !workflow.IsActive() {
		return ErrWorkflowInactive
	}

	if !workflow.MatchesConditions(req.Snapshot) {
		return nil
	}

	e.startExecution(ctx, workflow, req)

	return nil
}

// startExecution creates the execution record and hands it to the queue, or
// runs it inline when the queue is not wanted or unavailable.
func (e *Engine) startExecution(ctx context.Context, workflow *models.WorkflowDefinition, req TriggerRequest) {
	now := time.Now().UTC()

	execution := &models.Execution{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		WorkflowID:  workflow.ID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Status:      models.ExecutionStatusInProgress,
		InputData:   req.Snapshot,
		TriggeredBy: req.TriggeredBy,
		StartedAt:   &now,
	}

	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)

	err := e.store.SaveExecution(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create execution record", "error", err)

		return
	}

	if req.UseQueue && e.bus != nil {
		err = e.enqueue(ctx, workflow, execution, req)
		if err == nil {
			logger.InfoContext(ctx, "Execution enqueued")

			return
		}

		// Availability over decoupling: a dead broker must not lose
		// the trigger.
		logger.WarnContext(ctx, "Enqueue failed, executing synchronously", "error", err)
	}

	_, err = e.ExecuteForExecution(ctx, execution.ID)
	if err != nil {
		// Already recorded on the execution row.
		logger.ErrorContext(ctx, "Synchronous execution failed", "error", err)
	}
}

func (e *Engine) enqueue(ctx context.Context, workflow *models.WorkflowDefinition, execution *models.Execution, req TriggerRequest) error {
	event := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent),
		TenantID:    req.TenantID,
		WorkflowID:  workflow.ID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		ExecutionID: execution.ID,
		InputData:   req.Snapshot,
		TriggeredBy: req.TriggeredBy,
		TriggerType: req.Trigger,
	}

	return e.bus.Publish(ctx, execution.ID, event)
}
