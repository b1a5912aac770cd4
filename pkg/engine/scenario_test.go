package engine

import (
	"context"
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
	"github.com/mohamedadel0806/stratagem/pkg/lock"
	"github.com/mohamedadel0806/stratagem/pkg/mocks"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/memory"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
	"github.com/mohamedadel0806/stratagem/pkg/rules"
)

// Full pass through the platform's primary flow: a policy moves to review,
// two approvers sign off, the policy is marked approved and the creator is
// told about it.
func TestPolicyApprovalScenario(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewPersistence()
	notifier := &mocks.MockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	reg := registry.NewRegistry(logger)
	reg.RegisterExecutor(approvalsteps.NewExecutor(store))
	reg.RegisterExecutor(statuschange.NewExecutor(reg))
	reg.RegisterExecutor(assign.NewExecutor(store))
	reg.RegisterExecutor(notifyusers.NewExecutor())
	reg.RegisterExecutor(createtask.NewExecutor(store))

	policies := entities.NewMemoryMutator(models.EntityPolicy)
	policies.Seed("policy-42", "in_review")
	reg.RegisterMutator(policies)

	eng := NewEngine(store, rules.NewMatcher(store, logger), reg, nil,
		notifier, lock.NewLocalLocker(), logger)

	require.NoError(t, store.SaveWorkflow(ctx, &models.WorkflowDefinition{
		ID:         "wf-policy-approval",
		TenantID:   "acme",
		Name:       "Policy sign-off",
		Type:       models.WorkflowTypeApproval,
		Status:     models.WorkflowStatusActive,
		Trigger:    models.TriggerOnStatusChange,
		EntityType: models.EntityPolicy,
		Conditions: map[string]any{"status": "in_review"},
		CreatedBy:  "carol",
		Actions: models.ActionDirective{
			Approvers:    []string{"alice", "bob"},
			ChangeStatus: "approved",
			Notify:       []string{"carol"},
		},
	}))

	// The policy enters review.
	require.NoError(t, eng.CheckAndTrigger(ctx, TriggerRequest{
		TenantID:    "acme",
		EntityType:  models.EntityPolicy,
		EntityID:    "policy-42",
		Trigger:     models.TriggerOnStatusChange,
		Snapshot:    map[string]any{"status": "in_review"},
		TriggeredBy: "carol",
	}))

	executions, err := store.Executions(ctx, persistence.ExecutionFilter{WorkflowID: "wf-policy-approval"})
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, models.ExecutionStatusInProgress, executions[0].Status)

	approvals, err := store.ApprovalsByExecution(ctx, executions[0].ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)

	// Both approvers received a request.
	notifier.AssertCalled(t, "Notify", mock.Anything, "alice", approvalsteps.NotificationKind, mock.Anything)
	notifier.AssertCalled(t, "Notify", mock.Anything, "bob", approvalsteps.NotificationKind, mock.Anything)

	// Approvals arrive out of step order.
	require.NoError(t, eng.Decide(ctx, approvals[1].ID, "bob", models.ApprovalStatusApproved, "fine by me", nil))
	require.NoError(t, eng.Decide(ctx, approvals[0].ID, "alice", models.ApprovalStatusApproved, "", nil))

	final, err := store.ExecutionByID(ctx, executions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	status, _ := policies.Status("policy-42")
	assert.Equal(t, "approved", status)

	// Post-approval notify action plus the creator's resolution notice.
	notifier.AssertCalled(t, "Notify", mock.Anything, "carol", notifyusers.NotificationKind, mock.Anything)
	notifier.AssertCalled(t, "Notify", mock.Anything, "carol", ApprovedNotificationKind, mock.Anything)
}
