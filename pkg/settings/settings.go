// Package settings loads and validates the evaluation pipeline configuration.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/longytravel/simpleEA/pkg/gates"
	"github.com/longytravel/simpleEA/pkg/scoring"
)

// MonteCarloSettings configures the resampling step.
type MonteCarloSettings struct {
	Iterations         int     `json:"iterations"            validate:"required,min=1"`
	StartingEquity     float64 `json:"starting_equity"       validate:"required,gt=0"`
	MaxDrawdownGatePct float64 `json:"max_drawdown_gate_pct" validate:"min=0,max=100"`
	RuinThresholdPct   float64 `json:"ruin_threshold_pct"    validate:"min=0,max=100"`
	Seed               *int64  `json:"seed,omitempty"`
	Workers            int     `json:"workers"               validate:"min=0"`
}

// SelectorSettings configures robust pass selection.
type SelectorSettings struct {
	MinForwardTrades int `json:"min_forward_trades" validate:"min=0"`
}

// Settings is the full pipeline configuration. Everything here is explicit
// injected state; nothing in the pipeline reads configuration globally.
type Settings struct {
	Steps      []string           `json:"steps"       validate:"required,min=1,unique"`
	Gates      gates.Thresholds   `json:"gates"`
	Selector   SelectorSettings   `json:"selector"`
	MonteCarlo MonteCarloSettings `json:"monte_carlo"`
	Scoring    scoring.Weights    `json:"scoring"`
}

// Default returns the settings used when no file overrides them.
func Default() Settings {
	return Settings{
		Steps: []string{"compile", "optimization", "forward_pass", "monte_carlo", "scoring"},
		Gates: gates.Thresholds{
			MinProfitFactor:      1.5,
			MaxDrawdownPct:       30,
			MinTrades:            50,
			MinWinRatePct:        40,
			MinConfidenceLevel:   70,
			MaxProbabilityOfRuin: 5,
		},
		Selector: SelectorSettings{MinForwardTrades: 50},
		MonteCarlo: MonteCarloSettings{
			Iterations:         1000,
			StartingEquity:     10000,
			MaxDrawdownGatePct: 30,
			RuinThresholdPct:   50,
		},
		Scoring: scoring.DefaultWeights(),
	}
}

// Load reads settings from a JSON file layered over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Settings, error) {
	loaded := Default()

	if path == "" {
		return loaded, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(body, &loaded); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return Settings{}, err
	}

	return loaded, nil
}

// Save writes the settings as indented JSON.
func (s Settings) Save(path string) error {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Validate checks structural constraints on the settings.
func (s Settings) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	return nil
}
