// Package protocol defines the capability contracts between the execution
// orchestrator and its collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// NotificationIntent is an outbound notification recorded during the action
// pipeline and delivered after the state change persists.
type NotificationIntent struct {
	UserID  string         `json:"user_id"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NotificationSink collects intents during pipeline execution. Draining and
// delivery happen outside the pipeline.
type NotificationSink interface {
	Add(intent NotificationIntent)
}

// Notifier delivers a notification to a user. Fire-and-forget: failures are
// logged by the dispatcher and never block workflow progress.
type Notifier interface {
	Notify(ctx context.Context, userID, kind string, payload map[string]any) error
}

// ActionContext carries everything one action executor may touch.
type ActionContext struct {
	Workflow  *models.WorkflowDefinition
	Execution *models.Execution
	Snapshot  map[string]any
	Notify    NotificationSink
}

// ActionExecutor is a single side-effecting unit driven by one key of the
// workflow definition's action directive.
type ActionExecutor interface {
	ID() string
	// Applicable reports whether the directive carries this executor's key.
	Applicable(directive models.ActionDirective) bool
	Execute(ctx context.Context, actionCtx ActionContext, logger *slog.Logger) error
}

// EntityMutator is the per-entity-type capability the status-change executor
// dispatches through. Implementations own the entity storage; the engine
// never touches entity internals.
type EntityMutator interface {
	EntityType() models.EntityType
	SetStatus(ctx context.Context, tenantID, entityID, status string) error
}
