package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/mohamedadel0806/stratagem/pkg/cmd"
	"github.com/mohamedadel0806/stratagem/pkg/deadline"
	"github.com/mohamedadel0806/stratagem/pkg/log"
)

const defaultLookaheadDays = 7

func main() {
	cmdRoot := &cli.Command{
		Name:                  "stratagem-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Poll entity deadlines and trigger deadline workflows",
		Flags: []cli.Flag{
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
				Name:    "cron",
				Usage:   "Cron expression for the deadline scan",
				Value:   "0 * * * *",
				Sources: cli.EnvVars("DEADLINE_CRON"),
			},
			&cli.IntFlag{
				Name:    "lookahead-days",
				Usage:   "How many days ahead an approaching deadline is reported",
				Value:   defaultLookaheadDays,
				Sources: cli.EnvVars("DEADLINE_LOOKAHEAD_DAYS"),
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

			logger := log.WithModule("stratagem-scheduler")

			logger.InfoContext(ctx, "Initializing Stratagem Scheduler")

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

			sources := cmd.NewDeadlineSources(persistence)
			lookahead := time.Duration(command.Int("lookahead-days")) * 24 * time.Hour
			poller := deadline.NewPoller(engine, sources, lookahead, logger)

			err := poller.Start(ctx, command.String("cron"))
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down scheduler...")
			poller.Stop()

			return nil
		},
	}

	err := cmdRoot.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
