// Package registry holds the compiled-in action executors and entity
// mutators, keyed for dispatch by the orchestrator.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	executors []protocol.ActionExecutor
	mutators  map[models.EntityType]protocol.EntityMutator
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		mutators: make(map[models.EntityType]protocol.EntityMutator),
	}
}

// RegisterExecutor appends an executor. Pipeline order follows registration
// order.
func (r *Registry) RegisterExecutor(executor protocol.ActionExecutor) {
	r.executors = append(r.executors, executor)
}

// Executors returns the registered executors in pipeline order.
func (r *Registry) Executors() []protocol.ActionExecutor {
	return r.executors
}

func (r *Registry) RegisterMutator(mutator protocol.EntityMutator) {
	r.mutators[mutator.EntityType()] = mutator
}

// Mutator looks up the capability for a governed entity type.
func (r *Registry) Mutator(entityType models.EntityType) (protocol.EntityMutator, error) {
	mutator, ok := r.mutators[entityType]
	if !ok {
		return nil, fmt.Errorf("no entity mutator registered for type %q", entityType)
	}

	return mutator, nil
}
