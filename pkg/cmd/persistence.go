package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/memory"
	"github.com/mohamedadel0806/stratagem/pkg/persistence/postgresql"
)

// NewPersistence creates the persistence backend from the database URL
// scheme. postgres:// wires the real store; memory:// keeps everything
// in-process for tests and local development.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgres persistence: %w", err))
		}

		return store
	case "memory":
		return memory.NewPersistence()
	default:
		panic("Unsupported persistence provider in database URL: " + databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return provider
}
