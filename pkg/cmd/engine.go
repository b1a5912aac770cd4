package cmd

import (
	"log/slog"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/eventbus"
	"github.com/mohamedadel0806/stratagem/pkg/lock"
	"github.com/mohamedadel0806/stratagem/pkg/notify"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/registry"
	"github.com/mohamedadel0806/stratagem/pkg/rules"
)

// NewEngine assembles the workflow engine with the default log-backed
// notification sink.
func NewEngine(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	bus eventbus.EventBus,
	locker lock.Locker,
) *engine.Engine {
	matcher := rules.NewMatcher(store, logger)
	notifier := notify.NewLogNotifier(logger)

	return engine.NewEngine(store, matcher, reg, bus, notifier, locker, logger)
}
