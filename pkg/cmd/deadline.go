package cmd

import (
	"github.com/mohamedadel0806/stratagem/pkg/deadline"
	"github.com/mohamedadel0806/stratagem/pkg/entities"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
)

// deadlineColumns names the deadline-bearing column per governed entity
// table. Entity types absent here have no deadline semantics.
var deadlineColumns = map[models.EntityType]string{
	models.EntityTask:                  "due_date",
	models.EntityComplianceRequirement: "due_date",
	models.EntityPolicy:                "review_date",
	models.EntitySOP:                   "review_date",
	models.EntityRisk:                  "review_date",
}

// NewDeadlineSources builds the deadline scan sources for SQL-backed
// persistence. In-memory deployments get none; tests feed the poller their
// own sources.
func NewDeadlineSources(store persistence.Persistence) []deadline.Source {
	provider, ok := store.(dbProvider)
	if !ok {
		return nil
	}

	tables := entityTablesWithDeadlines()

	sources := make([]deadline.Source, 0, len(tables))
	for entityType, spec := range tables {
		sources = append(sources, deadline.NewSQLSource(provider.DB(), entityType, spec.table, spec.column))
	}

	return sources
}

type deadlineTable struct {
	table  string
	column string
}

func entityTablesWithDeadlines() map[models.EntityType]deadlineTable {
	tables := make(map[models.EntityType]deadlineTable)

	for entityType, column := range deadlineColumns {
		if table, ok := entities.EntityTables()[entityType]; ok {
			tables[entityType] = deadlineTable{table: table, column: column}
		}
	}

	return tables
}
