// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jeranaias/rigrun-bench/internal/client"
	"github.com/jeranaias/rigrun-bench/internal/config"
	"github.com/jeranaias/rigrun-bench/internal/cost"
	"github.com/jeranaias/rigrun-bench/internal/prompts"
)

// buildClient constructs the inference client selected by config,
// with optional backend and model overrides from flags.
func buildClient(cfg *config.Config, backend, model string) (client.Client, error) {
	if backend == "" {
		backend = cfg.Backend
	}

	switch backend {
	case "mock":
		mockCfg := &client.MockConfig{SimulateLatency: false}
		if model != "" {
			mockCfg.Model = model
		}
		return client.NewMockClient(mockCfg), nil

	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai backend requires an API key (set OPENAI_API_KEY)")
		}
		openaiCfg := client.OpenAIConfig{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		}
		if model != "" {
			openaiCfg.Model = model
		}
		return client.NewOpenAIClient(openaiCfg), nil

	case "ollama":
		ollamaCfg := client.OllamaConfig{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Timeout: time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		}
		if model != "" {
			ollamaCfg.Model = model
		}
		c := client.NewOllamaClient(ollamaCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.CheckRunning(ctx); err != nil {
			return nil, fmt.Errorf("ollama backend unavailable at %s: %w", cfg.Ollama.URL, err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("unknown backend %q", backend)
}

// buildLedger constructs the cost ledger for a tier, wiring the
// pricing override and history store when configured. The returned
// cleanup closes the store.
func buildLedger(cfg *config.Config, tier string) (*cost.Ledger, func(), error) {
	if tier == "" {
		tier = cfg.Budget.Tier
	}
	parsed, err := cost.ParseTier(tier)
	if err != nil {
		return nil, nil, err
	}

	pricing := cost.DefaultPricing()
	if cfg.Budget.PricingFile != "" {
		pricing, err = cost.LoadPricing(cfg.Budget.PricingFile)
		if err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {}
	var store *cost.Store
	if cfg.Budget.HistoryDB != "" {
		store, err = cost.OpenStore(cfg.Budget.HistoryDB)
		if err != nil {
			// Persistence is best-effort; keep running in memory.
			log.Printf("could not open cost history at %s: %v", cfg.Budget.HistoryDB, err)
		} else {
			cleanup = func() { store.Close() }
		}
	}

	return cost.NewLedgerWithOptions(parsed, pricing, store), cleanup, nil
}

// buildGenerator constructs the prompt generator, merging a template
// file when configured.
func buildGenerator(cfg *config.Config) (*prompts.Generator, error) {
	var g *prompts.Generator
	if cfg.Prompts.Seed != 0 {
		g = prompts.NewGeneratorWithSeed(cfg.Prompts.Seed)
	} else {
		g = prompts.NewGenerator()
	}

	if cfg.Prompts.TemplateFile != "" {
		if err := g.LoadTemplates(cfg.Prompts.TemplateFile); err != nil {
			return nil, err
		}
	}
	return g, nil
}
