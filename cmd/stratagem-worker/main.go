package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"

	"github.com/mohamedadel0806/stratagem/pkg/cmd"
	"github.com/mohamedadel0806/stratagem/pkg/log"
	"github.com/mohamedadel0806/stratagem/pkg/otelhelper"
)

func main() {
	cmdRoot := &cli.Command{
		Name:                  "stratagem-worker",
		EnableShellCompletion: true,
		Usage:                 "Consume queued workflow execution jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("stratagem-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Stratagem Worker")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			if eventBus == nil {
				panic("stratagem-worker requires an event bus (kafka or gochannel)")
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger, persistence)
			locker := cmd.NewLocker(command.String("redis-url"))
			engine := cmd.NewEngine(logger, persistence, registry, eventBus, locker)

			tracer, err := otelhelper.NewTracer(ctx, "stratagem-worker")
			if err != nil {
				logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)

				tracer = otel.Tracer("stratagem-worker")
			}

			worker := NewWorkerManager(workerID, engine, eventBus, tracer, logger)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Worker stopped with error", "error", err)
			}

			return nil
		},
	}

	err := cmdRoot.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
