// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-bench/internal/config"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "rigrun-bench",
		Short: "LLM inference benchmark harness with cost tracking",
		Long: `rigrun-bench dispatches benchmark prompts against an inference
backend (OpenAI-compatible API, local Ollama, or a deterministic mock),
collects latency and token statistics, tracks spend against a budget
tier, and exposes Prometheus metrics.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Secrets like OPENAI_API_KEY commonly live in a local
			// .env during development. Missing file is fine.
			if _, err := os.Stat(".env"); err == nil {
				godotenv.Load()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.rigrun-bench/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the explicit --config path or the default chain.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromPath(cfgFile)
	}
	return config.Load()
}
