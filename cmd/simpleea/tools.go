package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/longytravel/simpleEA/pkg/ingest"
	"github.com/longytravel/simpleEA/pkg/log"
	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/montecarlo"
	"github.com/longytravel/simpleEA/pkg/scoring"
	"github.com/longytravel/simpleEA/pkg/selector"
	"github.com/longytravel/simpleEA/pkg/settings"
)

// SelectCommand runs robust pass selection standalone and prints the result.
func SelectCommand() *cli.Command {
	return &cli.Command{
		Name:  "select",
		Usage: "Reconcile an optimization batch against its forward windows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "passes",
				Usage:    "Path to the optimization pass batch (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the evaluation settings file",
				Sources: cli.EnvVars("SIMPLEEA_SETTINGS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := settings.Load(command.String("settings"))
			if err != nil {
				return err
			}

			passes, err := ingest.LoadPasses(command.String("passes"))
			if err != nil {
				return err
			}

			sel := selector.New(selector.Config{
				MinForwardTrades: cfg.Selector.MinForwardTrades,
			}, log.WithModule("selector"))

			return printJSON(sel.Select(passes))
		},
	}
}

// MonteCarloCommand resamples a trade list standalone and prints the result.
func MonteCarloCommand() *cli.Command {
	return &cli.Command{
		Name:    "montecarlo",
		Aliases: []string{"mc"},
		Usage:   "Resample a trade list to estimate confidence and ruin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "trades",
				Usage:    "Path to the trade list (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the evaluation settings file",
				Sources: cli.EnvVars("SIMPLEEA_SETTINGS"),
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Base seed for reproducible resampling (0 uses the clock)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := settings.Load(command.String("settings"))
			if err != nil {
				return err
			}

			trades, err := ingest.LoadTrades(command.String("trades"))
			if err != nil {
				return err
			}

			seed := cfg.MonteCarlo.Seed
			if flagSeed := command.Int("seed"); flagSeed != 0 {
				s := int64(flagSeed)
				seed = &s
			}

			engine, err := montecarlo.NewEngine(montecarlo.Config{
				Iterations:         cfg.MonteCarlo.Iterations,
				StartingEquity:     cfg.MonteCarlo.StartingEquity,
				MaxDrawdownGatePct: cfg.MonteCarlo.MaxDrawdownGatePct,
				RuinThresholdPct:   cfg.MonteCarlo.RuinThresholdPct,
				Seed:               seed,
				Workers:            cfg.MonteCarlo.Workers,
			}, log.WithModule("montecarlo"))
			if err != nil {
				return err
			}

			result, err := engine.Run(ctx, trades)
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

// ScoreCommand scores a metrics bundle standalone and prints the result.
func ScoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Compute the composite score for a metrics bundle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "metrics",
				Usage:    "Path to the metrics bundle (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "trades",
				Usage: "Optional trade list; adds the Monte Carlo sub-score",
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the evaluation settings file",
				Sources: cli.EnvVars("SIMPLEEA_SETTINGS"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := settings.Load(command.String("settings"))
			if err != nil {
				return err
			}

			metrics, err := ingest.LoadMetrics(command.String("metrics"))
			if err != nil {
				return err
			}

			var mc *models.MonteCarloResult

			if tradesPath := command.String("trades"); tradesPath != "" {
				trades, err := ingest.LoadTrades(tradesPath)
				if err != nil {
					return err
				}

				engine, err := montecarlo.NewEngine(montecarlo.Config{
					Iterations:         cfg.MonteCarlo.Iterations,
					StartingEquity:     cfg.MonteCarlo.StartingEquity,
					MaxDrawdownGatePct: cfg.MonteCarlo.MaxDrawdownGatePct,
					RuinThresholdPct:   cfg.MonteCarlo.RuinThresholdPct,
					Seed:               cfg.MonteCarlo.Seed,
					Workers:            cfg.MonteCarlo.Workers,
				}, log.WithModule("montecarlo"))
				if err != nil {
					return err
				}

				if mc, err = engine.Run(ctx, trades); err != nil {
					return err
				}
			}

			score := scoring.NewEngine(cfg.Scoring).Score(metrics, mc, nil)

			return printJSON(score)
		},
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
