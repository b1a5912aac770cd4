package deadline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/lock"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/notify"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/memory"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
	"github.com/mohamedadel0806/stratagem/pkg/rules"
)

type fakeSource struct {
	items []Item
	err   error
}

func (s *fakeSource) DueBefore(context.Context, time.Time) ([]Item, error) {
	return s.items, s.err
}

func newPollerEnv(t *testing.T) (*memory.Persistence, *engine.Engine) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewPersistence()

	eng := engine.NewEngine(store, rules.NewMatcher(store, logger), registry.NewRegistry(logger),
		nil, notify.NewLogNotifier(logger), lock.NewLocalLocker(), logger)

	return store, eng
}

func deadlineWorkflow(id string, trigger models.TriggerType) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:         id,
		TenantID:   "tenant-1",
		Name:       id,
		Type:       models.WorkflowTypeNotification,
		Status:     models.WorkflowStatusActive,
		Trigger:    trigger,
		EntityType: models.EntityTask,
	}
}

func taskItem(id string, deadline time.Time) Item {
	return Item{
		TenantID:   "tenant-1",
		EntityType: models.EntityTask,
		EntityID:   id,
		Deadline:   deadline,
	}
}

func executionsFor(t *testing.T, store *memory.Persistence, workflowID string) []*models.Execution {
	t.Helper()

	executions, err := store.Executions(context.Background(), persistence.ExecutionFilter{WorkflowID: workflowID})
	require.NoError(t, err)

	return executions
}

func TestScanPicksTriggerByDeadline(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, eng := newPollerEnv(t)

	require.NoError(t, store.SaveWorkflow(ctx, deadlineWorkflow("wf-approaching", models.TriggerOnDeadlineApproaching)))
	require.NoError(t, store.SaveWorkflow(ctx, deadlineWorkflow("wf-passed", models.TriggerOnDeadlinePassed)))

	source := &fakeSource{items: []Item{
		taskItem("task-soon", time.Now().UTC().Add(48*time.Hour)),
		taskItem("task-overdue", time.Now().UTC().Add(-24*time.Hour)),
	}}

	NewPoller(eng, []Source{source}, 7*24*time.Hour, logger).Scan(ctx)

	approaching := executionsFor(t, store, "wf-approaching")
	require.Len(t, approaching, 1)
	assert.Equal(t, "task-soon", approaching[0].EntityID)

	passed := executionsFor(t, store, "wf-passed")
	require.Len(t, passed, 1)
	assert.Equal(t, "task-overdue", passed[0].EntityID)
}

func TestScanDeduplicatesAcrossSources(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, eng := newPollerEnv(t)

	require.NoError(t, store.SaveWorkflow(ctx, deadlineWorkflow("wf-approaching", models.TriggerOnDeadlineApproaching)))

	deadline := time.Now().UTC().Add(24 * time.Hour)
	first := &fakeSource{items: []Item{taskItem("task-1", deadline)}}
	second := &fakeSource{items: []Item{taskItem("task-1", deadline)}}

	NewPoller(eng, []Source{first, second}, 7*24*time.Hour, logger).Scan(ctx)

	// Two sources reported the same entity; one round fires one trigger.
	assert.Len(t, executionsFor(t, store, "wf-approaching"), 1)
}

func TestScanSurvivesSourceFailure(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, eng := newPollerEnv(t)

	require.NoError(t, store.SaveWorkflow(ctx, deadlineWorkflow("wf-approaching", models.TriggerOnDeadlineApproaching)))

	broken := &fakeSource{err: errors.New("relation does not exist")}
	working := &fakeSource{items: []Item{taskItem("task-1", time.Now().UTC().Add(24 * time.Hour))}}

	NewPoller(eng, []Source{broken, working}, 7*24*time.Hour, logger).Scan(ctx)

	assert.Len(t, executionsFor(t, store, "wf-approaching"), 1)
}

func TestScanEnrichesSnapshot(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, eng := newPollerEnv(t)

	require.NoError(t, store.SaveWorkflow(ctx, deadlineWorkflow("wf-approaching", models.TriggerOnDeadlineApproaching)))

	deadline := time.Now().UTC().Add(72 * time.Hour)
	source := &fakeSource{items: []Item{{
		TenantID:   "tenant-1",
		EntityType: models.EntityTask,
		EntityID:   "task-1",
		Deadline:   deadline,
		Snapshot:   map[string]any{"title": "renew certificate"},
	}}}

	NewPoller(eng, []Source{source}, 7*24*time.Hour, logger).Scan(ctx)

	executions := executionsFor(t, store, "wf-approaching")
	require.Len(t, executions, 1)

	input := executions[0].InputData
	assert.Equal(t, "renew certificate", input["title"])
	assert.Equal(t, deadline.Format(time.RFC3339), input["deadline"])
	assert.Equal(t, 2, input["days_until_deadline"])
}
