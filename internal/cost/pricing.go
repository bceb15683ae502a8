// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// PRICING
// =============================================================================

// Rate holds per-1K-token pricing for one model.
type Rate struct {
	InputPer1K  float64 `toml:"input_per_1k"`
	OutputPer1K float64 `toml:"output_per_1k"`
}

// fallbackModel is the rate applied to unknown model names. Benchmark
// targets are often ad hoc (local checkpoints, renamed deployments), so
// pricing lookups never fail; they assume a mid-range rate instead.
const fallbackModel = "gpt-3.5-turbo"

// defaultPricing is the built-in pricing table, per 1K tokens in USD.
// Snapshot of published API prices as of December 2024.
var defaultPricing = map[string]Rate{
	// OpenAI
	"gpt-3.5-turbo":       {0.0015, 0.002},
	"gpt-3.5-turbo-1106":  {0.001, 0.002},
	"gpt-4":               {0.03, 0.06},
	"gpt-4-turbo":         {0.01, 0.03},
	"gpt-4-turbo-preview": {0.01, 0.03},
	"gpt-4o":              {0.005, 0.015},
	"gpt-4o-mini":         {0.00015, 0.0006},

	// Anthropic
	"claude-3-haiku":    {0.00025, 0.00125},
	"claude-3-sonnet":   {0.003, 0.015},
	"claude-3-opus":     {0.015, 0.075},
	"claude-3-5-sonnet": {0.003, 0.015},

	// Google Gemini
	"gemini-pro":        {0.0005, 0.0015},
	"gemini-pro-vision": {0.0005, 0.0015},
	"gemini-1.5-pro":    {0.007, 0.021},
	"gemini-1.5-flash":  {0.00035, 0.00105},

	// Mock and local backends are free.
	"mock-gpt-3.5": {0, 0},
	"mock-gpt-4":   {0, 0},
	"local-model":  {0, 0},
	"ollama":       {0, 0},
}

// PricingTable maps model names to per-1K-token rates. Lookups for
// unknown models fall back to a mid-range default rather than failing.
type PricingTable struct {
	rates map[string]Rate
}

// DefaultPricing returns the built-in pricing table.
func DefaultPricing() *PricingTable {
	rates := make(map[string]Rate, len(defaultPricing))
	for model, rate := range defaultPricing {
		rates[model] = rate
	}
	return &PricingTable{rates: rates}
}

// LoadPricing returns the built-in table overlaid with rates from a
// TOML file:
//
//	[models."gpt-4o"]
//	input_per_1k = 0.0025
//	output_per_1k = 0.010
func LoadPricing(path string) (*PricingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var parsed struct {
		Models map[string]Rate `toml:"models"`
	}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	table := DefaultPricing()
	for model, rate := range parsed.Models {
		if rate.InputPer1K < 0 || rate.OutputPer1K < 0 {
			return nil, fmt.Errorf("negative rate for model %q in %s", model, path)
		}
		table.rates[model] = rate
	}
	return table, nil
}

// Rate returns the pricing for model, falling back to the default
// model's rate when the name is unknown. The bool reports whether the
// model was found directly.
func (t *PricingTable) Rate(model string) (Rate, bool) {
	if rate, ok := t.rates[model]; ok {
		return rate, true
	}
	return t.rates[fallbackModel], false
}

// Models returns the number of models in the table.
func (t *PricingTable) Models() int {
	return len(t.rates)
}
