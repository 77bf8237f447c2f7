package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/longytravel/simpleEA/pkg/cmd"
	"github.com/longytravel/simpleEA/pkg/log"
	"github.com/longytravel/simpleEA/pkg/web"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

func RunsCommand() *cli.Command {
	databaseFlag := &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL for persistence",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}

	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect and manage persisted evaluation runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all persisted runs, newest first",
				Flags: []cli.Flag{databaseFlag},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withManager(ctx, command, func(manager *workflow.Manager) error {
						states, err := manager.ListRuns(ctx)
						if err != nil {
							return err
						}

						for _, state := range states {
							fmt.Printf("%s  %-20s %-10s current=%s completed=%t\n",
								state.RunID, state.Strategy, state.Symbol, state.CurrentStep, state.Completed())
						}

						return nil
					})
				},
			},
			{
				Name:      "status",
				Usage:     "Show the full snapshot of one run",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{databaseFlag},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withManager(ctx, command, func(manager *workflow.Manager) error {
						state, err := manager.Load(ctx, command.Args().First())
						if err != nil {
							return err
						}

						return printJSON(state)
					})
				},
			},
			{
				Name:      "report",
				Usage:     "Show the assembled report for one run",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{databaseFlag},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withManager(ctx, command, func(manager *workflow.Manager) error {
						state, err := manager.Load(ctx, command.Args().First())
						if err != nil {
							return err
						}

						return printJSON(web.TransformRunReport(state, "scoring"))
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one run and its snapshot",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{databaseFlag},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withManager(ctx, command, func(manager *workflow.Manager) error {
						return manager.Delete(ctx, command.Args().First())
					})
				},
			},
		},
	}
}

// withManager builds a manager over the configured persistence for one
// command invocation and closes the store afterwards.
func withManager(ctx context.Context, command *cli.Command, fn func(*workflow.Manager) error) error {
	logger := log.WithModule("runs")

	store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(workflow.NewManager(store.StateRepository(), nil, logger))
}
