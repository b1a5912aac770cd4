// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"database/sql"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/actions/approvalsteps"
	"github.com/mohamedadel0806/stratagem/pkg/actions/assign"
	"github.com/mohamedadel0806/stratagem/pkg/actions/createtask"
	"github.com/mohamedadel0806/stratagem/pkg/actions/notifyusers"
	"github.com/mohamedadel0806/stratagem/pkg/actions/statuschange"
	"github.com/mohamedadel0806/stratagem/pkg/entities"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
)

// dbProvider is implemented by SQL-backed persistence, exposing the handle
// entity mutators share.
type dbProvider interface {
	DB() *sql.DB
}

// NewRegistry builds the action executor and entity mutator registry. The
// approval steps executor registers first; the engine relies on its id to
// split the setup pipeline from the post-approval one.
func NewRegistry(logger *slog.Logger, store persistence.Persistence) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterExecutor(approvalsteps.NewExecutor(store))
	reg.RegisterExecutor(statuschange.NewExecutor(reg))
	reg.RegisterExecutor(assign.NewExecutor(store))
	reg.RegisterExecutor(notifyusers.NewExecutor())
	reg.RegisterExecutor(createtask.NewExecutor(store))

	registerMutators(reg, store)

	return reg
}

func registerMutators(reg *registry.Registry, store persistence.Persistence) {
	provider, ok := store.(dbProvider)
	if !ok {
		for entityType := range entities.EntityTables() {
			reg.RegisterMutator(entities.NewMemoryMutator(entityType))
		}

		return
	}

	for entityType, table := range entities.EntityTables() {
		reg.RegisterMutator(entities.NewSQLMutator(provider.DB(), entityType, table))
	}
}
