// Package entities provides EntityMutator implementations for the governed
// entity tables. The engine dispatches status changes through these instead
// of switching on entity type inline.
package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// ErrEntityNotFound indicates the target entity row does not exist.
var ErrEntityNotFound = errors.New("entity not found")

// SQLMutator updates the status column of one governed entity table. The
// entity tables are owned by the wider platform; the engine only ever touches
// their status.
type SQLMutator struct {
	db         *sql.DB
	entityType models.EntityType
	table      string
}

// NewSQLMutator creates a mutator for one entity table. The table name comes
// from the fixed entity registry, never from user input.
func NewSQLMutator(db *sql.DB, entityType models.EntityType, table string) *SQLMutator {
	return &SQLMutator{db: db, entityType: entityType, table: table}
}

func (m *SQLMutator) EntityType() models.EntityType {
	return m.entityType
}

func (m *SQLMutator) SetStatus(ctx context.Context, tenantID, entityID, status string) error {
	query := fmt.Sprintf(
		`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2 AND tenant_id = $3`,
		m.table,
	)

	result, err := m.db.ExecContext(ctx, query, status, entityID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", m.entityType, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%s %s: %w", m.entityType, entityID, ErrEntityNotFound)
	}

	return nil
}

// EntityTables maps each governed entity type to its table.
func EntityTables() map[models.EntityType]string {
	return map[models.EntityType]string{
		models.EntityPolicy:                "policies",
		models.EntitySOP:                   "sops",
		models.EntityRisk:                  "risks",
		models.EntityAsset:                 "assets",
		models.EntitySupplier:              "suppliers",
		models.EntityComplianceRequirement: "compliance_requirements",
		models.EntityTask:                  "tasks",
	}
}

// MemoryMutator is an in-process mutator for tests and local development.
type MemoryMutator struct {
	mu         sync.RWMutex
	entityType models.EntityType
	statuses   map[string]string // entityID -> status
}

func NewMemoryMutator(entityType models.EntityType) *MemoryMutator {
	return &MemoryMutator{
		entityType: entityType,
		statuses:   make(map[string]string),
	}
}

func (m *MemoryMutator) EntityType() models.EntityType {
	return m.entityType
}

// Seed registers an entity so later SetStatus calls succeed.
func (m *MemoryMutator) Seed(entityID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[entityID] = status
}

func (m *MemoryMutator) Status(entityID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[entityID]

	return status, ok
}

func (m *MemoryMutator) SetStatus(_ context.Context, _, entityID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.statuses[entityID]; !ok {
		return fmt.Errorf("%s %s: %w", m.entityType, entityID, ErrEntityNotFound)
	}

	m.statuses[entityID] = status

	return nil
}
