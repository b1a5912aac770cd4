package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
	"github.com/mohamedadel0806/stratagem/pkg/lock"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/notify"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
	"github.com/mohamedadel0806/stratagem/pkg/rules"
)

// ApprovalStepsExecutorID matches the executor that spawns approval records.
// It runs alone at trigger time for approval workflows and is excluded from
// the post-approval pipeline.
const ApprovalStepsExecutorID = "approval_steps"

// Engine orchestrates workflow triggering, action execution and the approval
// state machine.
type Engine struct {
	store      persistence.Persistence
	matcher    *rules.Matcher
	registry   *registry.Registry
	bus        eventbus.EventBus // nil means synchronous-only
	dispatcher *notify.Dispatcher
	locker     lock.Locker
	logger     *slog.Logger
}

func NewEngine(
	store persistence.Persistence,
	matcher *rules.Matcher,
	reg *registry.Registry,
	bus eventbus.EventBus,
	notifier protocol.Notifier,
	locker lock.Locker,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		matcher:    matcher,
		registry:   reg,
		bus:        bus,
		dispatcher: notify.NewDispatcher(notifier, logger),
		locker:     locker,
		logger:     logger.With("module", "workflow_engine"),
	}
}

// runActions drives the action pipeline for one execution. When setupOnly is
// true only the approval-steps executor runs; otherwise every executor except
// approval-steps runs. Each applicable action runs regardless of sibling
// failures; failures are aggregated. Collected notifications are dispatched
// even on partial failure, so successful actions still notify.
func (e *Engine) runActions(
	ctx context.Context,
	workflow *models.WorkflowDefinition,
	execution *models.Execution,
	setupOnly bool,
) error {
	outbox := notify.NewOutbox()

	actionCtx := protocol.ActionContext{
		Workflow:  workflow,
		Execution: execution,
		Snapshot:  execution.InputData,
		Notify:    outbox,
	}

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"entity_type", execution.EntityType,
		"entity_id", execution.EntityID,
	)

	var failures []error

	for _, executor := range e.registry.Executors() {
		isSetup := executor.ID() == ApprovalStepsExecutorID
		if isSetup != setupOnly {
			continue
		}

		if !executor.Applicable(workflow.Actions) {
			continue
		}

		err := executor.Execute(ctx, actionCtx, logger)
		if err != nil {
			logger.ErrorContext(ctx, "Action executor failed", "action", executor.ID(), "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", executor.ID(), err))
		}
	}

	e.dispatcher.Dispatch(ctx, outbox)

	return errors.Join(failures...)
}
