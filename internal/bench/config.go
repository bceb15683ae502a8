// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bench

import (
	"fmt"

	"github.com/jeranaias/rigrun-bench/internal/cost"
	"github.com/jeranaias/rigrun-bench/internal/prompts"
)

// =============================================================================
// RUN CONFIGURATION
// =============================================================================

// Default token assumptions for the pre-flight cost estimate. These
// are deliberately model- and category-agnostic: long-form runs will
// under-estimate. The MaxCost override exists for exactly that case.
const (
	DefaultEstimateInputTokens  = 50
	DefaultEstimateOutputTokens = 100
)

// RunConfig is the immutable configuration for one benchmark run.
// Passed by value into the Runner.
type RunConfig struct {
	// Name labels the run in reports and output files. Empty means a
	// timestamped name is generated.
	Name string

	// Requests is the number of prompts to dispatch (>= 1).
	Requests int

	// Concurrency bounds in-flight requests; 1 means strictly
	// sequential dispatch in prompt order.
	Concurrency int

	// Category selects the built-in prompt pool. Ignored when
	// CustomPrompts is non-empty.
	Category prompts.Category

	// CustomPrompts, when set, are repeated cyclically until Requests
	// prompts are queued.
	CustomPrompts []string

	// AllowDuplicatePrompts permits template reuse when Requests
	// exceeds the category pool. DefaultRunConfig enables it.
	AllowDuplicatePrompts bool

	// BudgetTier selects the spend limits for the pre-flight gate.
	BudgetTier cost.Tier

	// MaxCost, when non-nil, overrides a failed pre-flight budget
	// check: the run proceeds and the rejection is only logged.
	MaxCost *float64

	// RequestsPerSecond throttles dispatch; 0 means unthrottled.
	RequestsPerSecond float64

	// EstimateInputTokens and EstimateOutputTokens feed the pre-flight
	// cost estimate; 0 selects the package defaults.
	EstimateInputTokens  int
	EstimateOutputTokens int

	// SaveResults hands the finished report to the configured writer.
	SaveResults bool
}

// DefaultRunConfig returns a sequential 10-request short-QA run on the
// development budget tier.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Requests:              10,
		Concurrency:           1,
		Category:              prompts.ShortQA,
		AllowDuplicatePrompts: true,
		BudgetTier:            cost.TierDevelopment,
	}
}

// Validate checks config bounds before any work starts.
func (c RunConfig) Validate() error {
	if c.Requests < 1 {
		return fmt.Errorf("requests must be >= 1, got %d", c.Requests)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if len(c.CustomPrompts) == 0 && !c.Category.Valid() {
		return fmt.Errorf("unknown prompt category: %q", c.Category)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be >= 0, got %f", c.RequestsPerSecond)
	}
	if c.EstimateInputTokens < 0 || c.EstimateOutputTokens < 0 {
		return fmt.Errorf("token estimates must be >= 0")
	}
	if c.MaxCost != nil && *c.MaxCost < 0 {
		return fmt.Errorf("max cost override must be >= 0, got %f", *c.MaxCost)
	}
	return nil
}

// estimateTokens returns the token assumptions for the pre-flight
// estimate, applying defaults for unset values.
func (c RunConfig) estimateTokens() (input, output int) {
	input, output = c.EstimateInputTokens, c.EstimateOutputTokens
	if input == 0 {
		input = DefaultEstimateInputTokens
	}
	if output == 0 {
		output = DefaultEstimateOutputTokens
	}
	return input, output
}
