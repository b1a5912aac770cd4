package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/mohamedadel0806/stratagem/pkg/cmd"
	"github.com/mohamedadel0806/stratagem/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	cmdRoot := &cli.Command{
		Name:                  "stratagem-api",
		Usage:                 "Manage workflow definitions, rules, executions and approvals",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the cross-process execution lock",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Stratagem API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if eventBus == nil {
					return
				}

				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger, persistence)
			locker := cmd.NewLocker(command.String("redis-url"))
			engine := cmd.NewEngine(logger, persistence, registry, eventBus, locker)

			api := NewAPI(logger, persistence, engine)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmdRoot.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
