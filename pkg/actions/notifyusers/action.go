// Package notifyusers fans a generic workflow notification out to the users
// listed in the action directive.
package notifyusers

import (
	"context"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

// NotificationKind for the generic fan-out.
const NotificationKind = "workflow_notification"

type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

func (*Executor) ID() string {
	return "notify"
}

func (*Executor) Applicable(directive models.ActionDirective) bool {
	return len(directive.Notify) > 0
}

func (e *Executor) Execute(_ context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	for _, userID := range actionCtx.Workflow.Actions.Notify {
		actionCtx.Notify.Add(protocol.NotificationIntent{
			UserID: userID,
			Kind:   NotificationKind,
			Payload: map[string]any{
				"workflow_id":   actionCtx.Workflow.ID,
				"workflow_name": actionCtx.Workflow.Name,
				"execution_id":  actionCtx.Execution.ID,
				"entity_type":   actionCtx.Execution.EntityType,
				"entity_id":     actionCtx.Execution.EntityID,
			},
		})
	}

	logger.Info("Queued workflow notifications", "recipients", len(actionCtx.Workflow.Actions.Notify))

	return nil
}
