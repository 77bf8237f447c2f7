package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/longytravel/simpleEA/pkg/cmd"
	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/log"
	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/otelhelper"
	"github.com/longytravel/simpleEA/pkg/settings"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

func EvaluateCommand() *cli.Command {
	return &cli.Command{
		Name:    "evaluate",
		Aliases: []string{"e"},
		Usage:   "Run a strategy through the full gated evaluation pipeline",
		Flags: []cli.Flag{
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
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the evaluation settings file",
				Sources: cli.EnvVars("SIMPLEEA_SETTINGS"),
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (auto-generated if not provided)",
			},
			&cli.StringFlag{
				Name:     "strategy",
				Usage:    "Strategy name under evaluation",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Instrument the strategy was tested on",
			},
			&cli.StringFlag{
				Name:  "timeframe",
				Usage: "Chart timeframe the strategy was tested on",
			},
			&cli.StringFlag{
				Name:     "passes",
				Usage:    "Path to the optimization pass batch (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "trades",
				Usage:    "Path to the trade list for resampling (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "metrics",
				Usage:    "Path to the forward metrics bundle (JSON)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "multi-market-tested",
				Usage: "Number of additional instruments tested",
			},
			&cli.IntFlag{
				Name:  "multi-market-profitable",
				Usage: "Number of additional instruments that were profitable",
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Emit OTLP spans for each pipeline step",
				Sources: cli.EnvVars("SIMPLEEA_TRACING"),
			},
			&cli.BoolFlag{
				Name:    "notifications",
				Usage:   "Mirror run lifecycle events onto the Kafka notification bus",
				Sources: cli.EnvVars("SIMPLEEA_NOTIFICATIONS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("pipeline")

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

			manager := workflow.NewManager(persistence.StateRepository(), publisher, logger)
			pipeline := NewPipeline(logger, cfg, manager)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "simpleea-pipeline")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				pipeline.WithTracer(tracer)
			}

			inputs := Inputs{
				PassesPath:  command.String("passes"),
				TradesPath:  command.String("trades"),
				MetricsPath: command.String("metrics"),
			}

			if tested := command.Int("multi-market-tested"); tested > 0 {
				inputs.MultiMarket = &models.MultiMarketResult{
					Tested:     tested,
					Profitable: command.Int("multi-market-profitable"),
				}
			}

			state, err := pipeline.Evaluate(ctx, command.String("run-id"), models.RunMetadata{
				Strategy:  command.String("strategy"),
				Symbol:    command.String("symbol"),
				Timeframe: command.String("timeframe"),
			}, inputs)
			if err != nil {
				return err
			}

			return printVerdict(state)
		},
	}
}

// printVerdict writes the per-step outcome of a finished or stopped run.
func printVerdict(state *models.WorkflowState) error {
	fmt.Printf("run %s (%s)\n", state.RunID, state.Strategy)

	for _, step := range state.Steps {
		record := state.Record(step)
		if record == nil {
			continue
		}

		line := fmt.Sprintf("  %-14s %s", step, record.Status)
		if record.Error != "" {
			line += "  " + record.Error
		}

		fmt.Println(line)
	}

	if state.Completed() {
		if record := state.Record("scoring"); record != nil && record.Output != nil {
			fmt.Printf("score: %v (%v)\n", record.Output["value"], record.Output["category"])
		}
	}

	return nil
}
