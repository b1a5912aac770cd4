// Package statuschange overwrites the status of the entity that triggered
// the workflow.
package statuschange

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
)

type Executor struct {
	registry *registry.Registry
}

func NewExecutor(reg *registry.Registry) *Executor {
	return &Executor{registry: reg}
}

func (*Executor) ID() string {
	return "change_status"
}

func (*Executor) Applicable(directive models.ActionDirective) bool {
	return directive.ChangeStatus != ""
}

func (e *Executor) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	execution := actionCtx.Execution

	mutator, err := e.registry.Mutator(execution.EntityType)
	if err != nil {
		return err
	}

	newStatus := actionCtx.Workflow.Actions.ChangeStatus

	err = mutator.SetStatus(ctx, execution.TenantID, execution.EntityID, newStatus)
	if err != nil {
		return fmt.Errorf("failed to change %s %s status: %w", execution.EntityType, execution.EntityID, err)
	}

	logger.Info("Changed entity status",
		"entity_type", execution.EntityType,
		"entity_id", execution.EntityID,
		"new_status", newStatus)

	return nil
}
