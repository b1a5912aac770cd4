package deadline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mohamedadel0806/stratagem/pkg/models"
)

// SQLSource scans one governed entity table for rows whose deadline column
// falls inside the poll window. Table and column names come from the fixed
// wiring in the scheduler, never from user input.
type SQLSource struct {
	db         *sql.DB
	entityType models.EntityType
	table      string
	column     string
}

func NewSQLSource(db *sql.DB, entityType models.EntityType, table, column string) *SQLSource {
	return &SQLSource{
		db:         db,
		entityType: entityType,
		table:      table,
		column:     column,
	}
}

func (s *SQLSource) DueBefore(ctx context.Context, cutoff time.Time) ([]Item, error) {
	query := fmt.Sprintf(
		`SELECT id, tenant_id, %s FROM %s WHERE %s IS NOT NULL AND %s <= $1`,
		s.column, s.table, s.column, s.column,
	)

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s deadlines: %w", s.table, err)
	}
	defer rows.Close()

	var items []Item

	for rows.Next() {
		var (
			id       string
			tenantID string
			deadline time.Time
		)

		err = rows.Scan(&id, &tenantID, &deadline)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s deadline row: %w", s.table, err)
		}

		items = append(items, Item{
			TenantID:   tenantID,
			EntityType: s.entityType,
			EntityID:   id,
			Deadline:   deadline,
		})
	}

	return items, rows.Err()
}
