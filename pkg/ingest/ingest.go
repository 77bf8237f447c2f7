// Package ingest loads externally produced optimization batches and trade
// lists from JSON files. The optimizer's and backtester's native report
// formats are parsed upstream; this package only accepts the exchange format.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/longytravel/simpleEA/pkg/models"
)

var passBatchSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []string{"pass"},
		"properties": map[string]any{
			"pass":       map[string]any{"type": "integer"},
			"parameters": map[string]any{"type": "object"},
			"in_sample":  metricsSchema,
			"forward":    metricsSchema,
		},
	},
}

var metricsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"net_profit":       map[string]any{"type": "number"},
		"profit_factor":    map[string]any{"type": "number", "minimum": 0},
		"max_drawdown_pct": map[string]any{"type": "number", "minimum": 0},
		"trade_count":      map[string]any{"type": "integer", "minimum": 0},
	},
}

var tradeListSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []string{"ordinal", "net_profit"},
		"properties": map[string]any{
			"ordinal":    map[string]any{"type": "integer", "minimum": 1},
			"net_profit": map[string]any{"type": "number"},
		},
	},
}

// LoadPasses reads an optimization batch from a JSON file. The file must match
// the exchange schema; per-record metric gaps are left to the selector's
// malformed-pass handling.
func LoadPasses(path string) ([]*models.OptimizationPass, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pass batch: %w", err)
	}

	if err := validateSchema(body, passBatchSchema); err != nil {
		return nil, fmt.Errorf("invalid pass batch %s: %w", path, err)
	}

	var passes []*models.OptimizationPass

	if err := json.Unmarshal(body, &passes); err != nil {
		return nil, fmt.Errorf("failed to decode pass batch: %w", err)
	}

	return passes, nil
}

// LoadTrades reads a trade list from a JSON file, preserving file order.
func LoadTrades(path string) ([]models.TradeRecord, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade list: %w", err)
	}

	if err := validateSchema(body, tradeListSchema); err != nil {
		return nil, fmt.Errorf("invalid trade list %s: %w", path, err)
	}

	var trades []models.TradeRecord

	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("failed to decode trade list: %w", err)
	}

	return trades, nil
}

// LoadMetrics reads a metrics bundle from a JSON file.
func LoadMetrics(path string) (models.MetricsBundle, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return models.MetricsBundle{}, fmt.Errorf("failed to read metrics: %w", err)
	}

	var metrics models.MetricsBundle

	if err := json.Unmarshal(body, &metrics); err != nil {
		return models.MetricsBundle{}, fmt.Errorf("failed to decode metrics: %w", err)
	}

	return metrics, nil
}

// validateSchema validates raw JSON against a schema.
func validateSchema(body []byte, schema map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("JSON schema validation failed: %s", strings.Join(messages, "; "))
	}

	return nil
}
