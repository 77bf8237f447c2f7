// Package main provides the simpleea command-line driver for evaluating
// trading strategies: robust pass selection, Monte Carlo resampling, scoring
// and run management.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/longytravel/simpleEA/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "simpleea",
		Usage:                 "Evaluate trading strategies through the gated pipeline",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			EvaluateCommand(),
			SelectCommand(),
			MonteCarloCommand(),
			ScoreCommand(),
			RunsCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
