package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohamedadel0806/stratagem/pkg/actions/approvalsteps"
	"github.com/mohamedadel0806/stratagem/pkg/actions/assign"
	"github.com/mohamedadel0806/stratagem/pkg/actions/createtask"
	"github.com/mohamedadel0806/stratagem/pkg/actions/notifyusers"
	"github.com/mohamedadel0806/stratagem/pkg/actions/statuschange"
	"github.com/mohamedadel0806/stratagem/pkg/entities"
	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
	"github.com/mohamedadel0806/stratagem/pkg/lock"
	"github.com/mohamedadel0806/stratagem/pkg/mocks"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/notify"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/memory"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
	"github.com/mohamedadel0806/stratagem/pkg/rules"
)

type testEnv struct {
	store   *memory.Persistence
	mutator *entities.MemoryMutator
	engine  *Engine
}

func newTestEngine(t *testing.T, bus eventbus.EventBus) *testEnv {
	t.Helper()

	store := memory.NewPersistence()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewRegistry(logger)
	reg.RegisterExecutor(approvalsteps.NewExecutor(store))
	reg.RegisterExecutor(statuschange.NewExecutor(reg))
	reg.RegisterExecutor(assign.NewExecutor(store))
	reg.RegisterExecutor(notifyusers.NewExecutor())
	reg.RegisterExecutor(createtask.NewExecutor(store))

	mutator := entities.NewMemoryMutator(models.EntityPolicy)
	reg.RegisterMutator(mutator)

	matcher := rules.NewMatcher(store, logger)
	eng := NewEngine(store, matcher, reg, bus, notify.NewLogNotifier(logger), lock.NewLocalLocker(), logger)

	return &testEnv{store: store, mutator: mutator, engine: eng}
}

func saveWorkflow(t *testing.T, env *testEnv, workflow *models.WorkflowDefinition) {
	t.Helper()
	require.NoError(t, env.store.SaveWorkflow(context.Background(), workflow))
}

func saveRule(t *testing.T, env *testEnv, rule *models.TriggerRule) {
	t.Helper()
	require.NoError(t, env.store.SaveRule(context.Background(), rule))
}

func executionsFor(t *testing.T, env *testEnv, workflowID string) []*models.Execution {
	t.Helper()

	executions, err := env.store.Executions(context.Background(), persistence.ExecutionFilter{WorkflowID: workflowID})
	require.NoError(t, err)

	return executions
}

func policyUpdateRequest(snapshot map[string]any) TriggerRequest {
	return TriggerRequest{
		TenantID:    "tenant-1",
		EntityType:  models.EntityPolicy,
		EntityID:    "policy-1",
		Trigger:     models.TriggerOnUpdate,
		Snapshot:    snapshot,
		TriggeredBy: "user-1",
	}
}

func notificationWorkflow(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:         id,
		TenantID:   "tenant-1",
		Name:       "notify on update",
		Type:       models.WorkflowTypeNotification,
		Status:     models.WorkflowStatusActive,
		Trigger:    models.TriggerOnUpdate,
		EntityType: models.EntityPolicy,
		Actions:    models.ActionDirective{Notify: []string{"user-2"}},
	}
}

func TestCheckAndTriggerDeduplicatesWorkflows(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	// Reached both by the explicit binding and a matching rule.
	saveWorkflow(t, env, notificationWorkflow("wf-1"))
	saveRule(t, env, &models.TriggerRule{
		ID:         "rule-1",
		TenantID:   "tenant-1",
		Name:       "also wf-1",
		EntityType: models.EntityPolicy,
		Trigger:    models.TriggerOnUpdate,
		WorkflowID: "wf-1",
		Active:     true,
	})

	err := env.engine.CheckAndTrigger(ctx, policyUpdateRequest(nil))
	require.NoError(t, err)

	executions := executionsFor(t, env, "wf-1")
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusCompleted, executions[0].Status)
	assert.Equal(t, "user-1", executions[0].TriggeredBy)
}

func TestCheckAndTriggerConditionsGate(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-guarded")
	workflow.Conditions = map[string]any{"status": "draft"}
	saveWorkflow(t, env, workflow)

	err := env.engine.CheckAndTrigger(ctx, policyUpdateRequest(map[string]any{"status": "published"}))
	require.NoError(t, err)
	assert.Empty(t, executionsFor(t, env, "wf-guarded"))

	err = env.engine.CheckAndTrigger(ctx, policyUpdateRequest(map[string]any{"status": "draft"}))
	require.NoError(t, err)
	assert.Len(t, executionsFor(t, env, "wf-guarded"), 1)
}

func TestCheckAndTriggerSkipsInactiveRuleTarget(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-inactive")
	workflow.Status = models.WorkflowStatusInactive
	saveWorkflow(t, env, workflow)
	saveRule(t, env, &models.TriggerRule{
		ID:         "rule-inactive-target",
		TenantID:   "tenant-1",
		Name:       "points at inactive",
		EntityType: models.EntityPolicy,
		Trigger:    models.TriggerOnUpdate,
		WorkflowID: "wf-inactive",
		Active:     true,
	})

	err := env.engine.CheckAndTrigger(ctx, policyUpdateRequest(nil))
	require.NoError(t, err)
	assert.Empty(t, executionsFor(t, env, "wf-inactive"))
}

func TestCheckAndTriggerDeadlineWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-reminder")
	workflow.Type = models.WorkflowTypeDeadlineReminder
	workflow.Trigger = models.TriggerOnDeadlineApproaching
	workflow.DaysBeforeDeadline = 3
	saveWorkflow(t, env, workflow)

	deadlineRequest := func(days int) TriggerRequest {
		req := policyUpdateRequest(map[string]any{"days_until_deadline": days})
		req.Trigger = models.TriggerOnDeadlineApproaching
		req.TriggeredBy = "deadline-poller"

		return req
	}

	// The poller's lookahead reports the entity long before the reminder
	// window opens; the definition must not fire yet.
	require.NoError(t, env.engine.CheckAndTrigger(ctx, deadlineRequest(29)))
	assert.Empty(t, executionsFor(t, env, "wf-reminder"))

	require.NoError(t, env.engine.CheckAndTrigger(ctx, deadlineRequest(2)))
	assert.Len(t, executionsFor(t, env, "wf-reminder"), 1)
}

func TestStatusChangePipeline(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)
	env.mutator.Seed("policy-1", "draft")

	saveWorkflow(t, env, &models.WorkflowDefinition{
		ID:         "wf-status",
		TenantID:   "tenant-1",
		Name:       "auto archive",
		Type:       models.WorkflowTypeStatusChange,
		Status:     models.WorkflowStatusActive,
		Trigger:    models.TriggerOnUpdate,
		EntityType: models.EntityPolicy,
		Actions:    models.ActionDirective{ChangeStatus: "archived"},
	})

	err := env.engine.CheckAndTrigger(ctx, policyUpdateRequest(nil))
	require.NoError(t, err)

	executions := executionsFor(t, env, "wf-status")
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusCompleted, executions[0].Status)
	require.NotNil(t, executions[0].CompletedAt)

	status, ok := env.mutator.Status("policy-1")
	require.True(t, ok)
	assert.Equal(t, "archived", status)
}

func TestActionFailureIsolation(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)
	// policy-1 is not seeded, so change_status fails.

	saveWorkflow(t, env, &models.WorkflowDefinition{
		ID:         "wf-mixed",
		TenantID:   "tenant-1",
		Name:       "status and task",
		Type:       models.WorkflowTypeStatusChange,
		Status:     models.WorkflowStatusActive,
		Trigger:    models.TriggerOnUpdate,
		EntityType: models.EntityPolicy,
		Actions: models.ActionDirective{
			ChangeStatus: "archived",
			CreateTask:   &models.TaskSpec{Title: "Review policy", AssigneeID: "user-3"},
		},
	})

	// The trigger itself never fails because an action did.
	err := env.engine.CheckAndTrigger(ctx, policyUpdateRequest(nil))
	require.NoError(t, err)

	executions := executionsFor(t, env, "wf-mixed")
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusFailed, executions[0].Status)
	assert.Contains(t, executions[0].ErrorMessage, "change_status")

	// The sibling action still ran.
	tasks, err := env.store.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Review policy", tasks[0].Title)
}

func TestEnqueueFallsBackToSynchronous(t *testing.T) {
	ctx := context.Background()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	env := newTestEngine(t, bus)
	saveWorkflow(t, env, notificationWorkflow("wf-fallback"))

	req := policyUpdateRequest(nil)
	req.UseQueue = true

	err := env.engine.CheckAndTrigger(ctx, req)
	require.NoError(t, err)

	executions := executionsFor(t, env, "wf-fallback")
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusCompleted, executions[0].Status)
	bus.AssertExpectations(t)
}

func TestEnqueueLeavesExecutionForWorker(t *testing.T) {
	ctx := context.Background()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	env := newTestEngine(t, bus)
	saveWorkflow(t, env, notificationWorkflow("wf-queued"))

	req := policyUpdateRequest(nil)
	req.UseQueue = true

	err := env.engine.CheckAndTrigger(ctx, req)
	require.NoError(t, err)

	executions := executionsFor(t, env, "wf-queued")
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusInProgress, executions[0].Status)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestExecuteForExecutionTerminalIsNoop(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	saveWorkflow(t, env, notificationWorkflow("wf-done"))
	require.NoError(t, env.store.SaveExecution(ctx, &models.Execution{
		ID:         "exec-done",
		TenantID:   "tenant-1",
		WorkflowID: "wf-done",
		EntityType: models.EntityPolicy,
		EntityID:   "policy-1",
		Status:     models.ExecutionStatusCompleted,
	}))

	execution, err := env.engine.ExecuteForExecution(ctx, "exec-done")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
}

func TestExecuteForExecutionInactiveWorkflow(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-retired")
	workflow.Status = models.WorkflowStatusArchived
	saveWorkflow(t, env, workflow)
	require.NoError(t, env.store.SaveExecution(ctx, &models.Execution{
		ID:         "exec-retired",
		TenantID:   "tenant-1",
		WorkflowID: "wf-retired",
		EntityType: models.EntityPolicy,
		EntityID:   "policy-1",
		Status:     models.ExecutionStatusPending,
	}))

	_, err := env.engine.ExecuteForExecution(ctx, "exec-retired")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowInactive)
}

func TestTriggerWorkflowManual(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-manual")
	workflow.Trigger = models.TriggerManual
	workflow.Conditions = map[string]any{"status": "draft"}
	saveWorkflow(t, env, workflow)

	// Conditions gate still applies to manual triggers.
	req := policyUpdateRequest(map[string]any{"status": "published"})
	req.Trigger = models.TriggerManual
	require.NoError(t, env.engine.TriggerWorkflow(ctx, "wf-manual", req))
	assert.Empty(t, executionsFor(t, env, "wf-manual"))

	req.Snapshot = map[string]any{"status": "draft"}
	require.NoError(t, env.engine.TriggerWorkflow(ctx, "wf-manual", req))
	assert.Len(t, executionsFor(t, env, "wf-manual"), 1)
}

func TestTriggerWorkflowManualInactive(t *testing.T) {
	ctx := context.Background()
	env := newTestEngine(t, nil)

	workflow := notificationWorkflow("wf-manual-off")
	workflow.Status = models.WorkflowStatusInactive
	saveWorkflow(t, env, workflow)

	err := env.engine.TriggerWorkflow(ctx, "wf-manual-off", policyUpdateRequest(nil))
	assert.ErrorIs(t, err, ErrWorkflowInactive)
}
