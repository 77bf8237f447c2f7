package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/longytravel/simpleEA/pkg/cmd"
	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/log"
	"github.com/longytravel/simpleEA/pkg/settings"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "simpleea-api",
		Usage:                 "Serve the strategy evaluation run API",
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
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "notifications",
				Usage:   "Mirror run lifecycle events onto the Kafka notification bus",
				Sources: cli.EnvVars("SIMPLEEA_NOTIFICATIONS"),
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the evaluation settings file",
				Sources: cli.EnvVars("SIMPLEEA_SETTINGS"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing run API")

			cfg, err := settings.Load(command.String("settings"))
			if err != nil {
				return err
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var publisher eventbus.EventPublisher = eventBus

			if command.Bool("notifications") {
				notifications := cmd.NewNotificationBus(logger)
				defer func() {
					if err := notifications.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close notification bus", "error", err)
					}
				}()

				publisher = eventbus.NewFanoutPublisher(eventBus, notifications)
			}

			api := NewAPI(logger, persistence, publisher, cfg)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
