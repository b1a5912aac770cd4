// Package createtask creates a task entity linked to the triggering entity.
package createtask

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

// NotificationKind sent to the task assignee, when one exists.
const NotificationKind = "task_assigned"

type Executor struct {
	tasks persistence.TaskRepository
}

func NewExecutor(tasks persistence.TaskRepository) *Executor {
	return &Executor{tasks: tasks}
}

func (*Executor) ID() string {
	return "create_task"
}

func (*Executor) Applicable(directive models.ActionDirective) bool {
	return directive.CreateTask != nil
}

func (e *Executor) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	spec := actionCtx.Workflow.Actions.CreateTask
	execution := actionCtx.Execution

	assigneeID := spec.AssigneeID
	if assigneeID == "" {
		// Fall back to the directive-level assignee.
		assigneeID = actionCtx.Workflow.Actions.AssignTo
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		TenantID:    execution.TenantID,
		Title:       spec.Title,
		Description: spec.Description,
		Priority:    spec.Priority,
		DueDate:     spec.DueDate,
		AssigneeID:  assigneeID,
		EntityType:  execution.EntityType,
		EntityID:    execution.EntityID,
		Status:      models.TaskStatusOpen,
	}

	err := e.tasks.SaveTask(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if assigneeID != "" {
		actionCtx.Notify.Add(protocol.NotificationIntent{
			UserID: assigneeID,
			Kind:   NotificationKind,
			Payload: map[string]any{
				"task_id":     task.ID,
				"title":       task.Title,
				"entity_type": execution.EntityType,
				"entity_id":   execution.EntityID,
			},
		})
	}

	logger.Info("Created task", "task_id", task.ID, "assignee_id", assigneeID)

	return nil
}
