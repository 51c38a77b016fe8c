package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/zapflowhq/zapflow/pkg/cmd"
	"github.com/zapflowhq/zapflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "zapflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker to execute conversational workflows",
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
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the shared deadline index (in-process when empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "channel-endpoint",
				Usage:   "Outbound channel gateway webhook URL (log-only when empty)",
				Value:   "",
				Sources: cli.EnvVars("CHANNEL_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Listen address for the Prometheus metrics endpoint",
				Value:   ":9090",
				Sources: cli.EnvVars("METRICS_ADDR"),
			},
			&cli.DurationFlag{
				Name:    "sweep-interval",
				Usage:   "Timeout scheduler sweep interval",
				Value:   defaultSweepInterval,
				Sources: cli.EnvVars("SWEEP_INTERVAL"),
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

			logger := log.WithModule("zapflow-worker").With("workerId", workerID)

			logger.InfoContext(ctx, "Initializing worker")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			deadlines, err := cmd.NewDeadlineIndex(ctx, command.String("redis-url"))
			if err != nil {
				return err
			}

			worker := NewWorkerManager(WorkerConfig{
				ID:              workerID,
				Persistence:     persistence,
				EventBus:        eventBus,
				Deadlines:       deadlines,
				Registry:        cmd.NewRegistry(logger),
				ChannelEndpoint: command.String("channel-endpoint"),
				RedisURL:        command.String("redis-url"),
				MetricsAddr:     command.String("metrics-addr"),
				SweepInterval:   command.Duration("sweep-interval"),
				Logger:          logger,
			})

			return worker.Start(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
