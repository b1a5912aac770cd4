package entities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

func TestMemoryMutatorSetStatus(t *testing.T) {
	ctx := context.Background()
	mutator := NewMemoryMutator(models.EntityPolicy)
	mutator.Seed("policy-1", "draft")

	require.NoError(t, mutator.SetStatus(ctx, "tenant-1", "policy-1", "approved"))

	status, ok := mutator.Status("policy-1")
	require.True(t, ok)
	assert.Equal(t, "approved", status)
}

func TestMemoryMutatorUnknownEntity(t *testing.T) {
	mutator := NewMemoryMutator(models.EntityRisk)

	err := mutator.SetStatus(context.Background(), "tenant-1", "risk-404", "closed")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestEntityTablesCoverAllEntityTypes(t *testing.T) {
	tables := EntityTables()

	for _, entityType := range models.KnownEntityTypes() {
		assert.Contains(t, tables, entityType)
	}
}
