package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	workflow := &models.WorkflowDefinition{
		ID:         "wf-1",
		TenantID:   "tenant-1",
		Name:       "test workflow",
		Type:       models.WorkflowTypeNotification,
		Status:     models.WorkflowStatusActive,
		Trigger:    models.TriggerOnCreate,
		EntityType: models.EntityRisk,
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "test workflow", loaded.Name)
	assert.False(t, loaded.CreatedAt.IsZero())

	// Reads return copies; mutating one does not leak into the store.
	loaded.Name = "mutated"
	again, err := store.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "test workflow", again.Name)

	_, err = store.WorkflowByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowsFilter(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	save := func(id, tenant string, entityType models.EntityType, status models.WorkflowStatus) {
		require.NoError(t, store.SaveWorkflow(ctx, &models.WorkflowDefinition{
			ID:         id,
			TenantID:   tenant,
			Name:       id,
			Type:       models.WorkflowTypeNotification,
			Status:     status,
			Trigger:    models.TriggerOnCreate,
			EntityType: entityType,
		}))
	}

	save("wf-a", "t1", models.EntityPolicy, models.WorkflowStatusActive)
	save("wf-b", "t1", models.EntityRisk, models.WorkflowStatusActive)
	save("wf-c", "t2", models.EntityPolicy, models.WorkflowStatusInactive)

	active, err := store.Workflows(ctx, persistence.WorkflowFilter{
		TenantID: "t1",
		Status:   models.WorkflowStatusActive,
	})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	policies, err := store.Workflows(ctx, persistence.WorkflowFilter{EntityType: models.EntityPolicy})
	require.NoError(t, err)
	assert.Len(t, policies, 2)

	limited, err := store.Workflows(ctx, persistence.WorkflowFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRuleSoftDelete(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.SaveRule(ctx, &models.TriggerRule{
		ID:         "rule-1",
		TenantID:   "t1",
		Name:       "soft delete target",
		EntityType: models.EntityPolicy,
		Trigger:    models.TriggerOnUpdate,
		WorkflowID: "wf-1",
		Active:     true,
	}))

	require.NoError(t, store.DeleteRule(ctx, "rule-1"))

	_, err := store.RuleByID(ctx, "rule-1")
	assert.ErrorIs(t, err, persistence.ErrRuleNotFound)

	rules, err := store.Rules(ctx, persistence.RuleFilter{TenantID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, rules)

	err = store.DeleteRule(ctx, "rule-1")
	assert.ErrorIs(t, err, persistence.ErrRuleNotFound)
}

func TestRulesPriorityOrder(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	for id, priority := range map[string]int{"low": 1, "high": 10, "mid": 5} {
		require.NoError(t, store.SaveRule(ctx, &models.TriggerRule{
			ID:         id,
			TenantID:   "t1",
			Name:       id,
			EntityType: models.EntityPolicy,
			Trigger:    models.TriggerOnUpdate,
			WorkflowID: "wf-1",
			Active:     true,
			Priority:   priority,
		}))
	}

	rules, err := store.Rules(ctx, persistence.RuleFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "high", rules[0].ID)
	assert.Equal(t, "mid", rules[1].ID)
	assert.Equal(t, "low", rules[2].ID)
}

func TestCountOpenByWorkflow(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	save := func(id string, status models.ExecutionStatus) {
		require.NoError(t, store.SaveExecution(ctx, &models.Execution{
			ID:         id,
			TenantID:   "t1",
			WorkflowID: "wf-1",
			EntityType: models.EntityPolicy,
			EntityID:   "p1",
			Status:     status,
		}))
	}

	save("e1", models.ExecutionStatusPending)
	save("e2", models.ExecutionStatusInProgress)
	save("e3", models.ExecutionStatusCompleted)
	save("e4", models.ExecutionStatusFailed)
	save("e5", models.ExecutionStatusCancelled)

	count, err := store.CountOpenByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountOpenByWorkflow(ctx, "wf-other")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestApprovalsByExecutionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	for _, approval := range []*models.Approval{
		{ID: "a2", ExecutionID: "e1", ApproverID: "bob", Status: models.ApprovalStatusPending, StepOrder: 2},
		{ID: "a1", ExecutionID: "e1", ApproverID: "alice", Status: models.ApprovalStatusPending, StepOrder: 1},
		{ID: "a3", ExecutionID: "e2", ApproverID: "carol", Status: models.ApprovalStatusPending, StepOrder: 1},
	} {
		require.NoError(t, store.SaveApproval(ctx, approval))
	}

	approvals, err := store.ApprovalsByExecution(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, "alice", approvals[0].ApproverID)
	assert.Equal(t, "bob", approvals[1].ApproverID)
}

func TestApprovalsByApproverStatusFilter(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence()

	require.NoError(t, store.SaveApproval(ctx, &models.Approval{
		ID: "a1", ExecutionID: "e1", ApproverID: "alice", Status: models.ApprovalStatusPending,
	}))
	require.NoError(t, store.SaveApproval(ctx, &models.Approval{
		ID: "a2", ExecutionID: "e2", ApproverID: "alice", Status: models.ApprovalStatusApproved,
	}))

	pending, err := store.ApprovalsByApprover(ctx, "alice", models.ApprovalStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a1", pending[0].ID)

	all, err := store.ApprovalsByApprover(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
