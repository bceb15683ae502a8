// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for rigrun-bench.
//
// Configuration is TOML with built-in defaults and environment
// variable overrides for secrets. Locations in order of precedence:
//   - explicit --config path
//   - ~/.rigrun-bench/config.toml
//   - built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-bench/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete rigrun-bench configuration.
type Config struct {
	// Backend selects the inference client: "mock", "openai", "ollama".
	Backend string `toml:"backend"`

	OpenAI  OpenAIConfig  `toml:"openai"`
	Ollama  OllamaConfig  `toml:"ollama"`
	Budget  BudgetConfig  `toml:"budget"`
	Output  OutputConfig  `toml:"output"`
	Server  ServerConfig  `toml:"server"`
	Prompts PromptsConfig `toml:"prompts"`
}

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	// APIKey is usually left empty here and supplied via the
	// OPENAI_API_KEY environment variable instead.
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	TimeoutSecs int    `toml:"timeout_secs"`
	MaxRetries  int    `toml:"max_retries"`
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	URL         string `toml:"url"`
	Model       string `toml:"model"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// BudgetConfig configures cost tracking.
type BudgetConfig struct {
	// Tier is "development", "demo", or "production".
	Tier string `toml:"tier"`
	// PricingFile optionally overrides the built-in pricing table.
	PricingFile string `toml:"pricing_file"`
	// HistoryDB is the SQLite cost history path; empty disables
	// persistence.
	HistoryDB string `toml:"history_db"`
}

// OutputConfig configures report persistence.
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// PromptsConfig configures prompt generation.
type PromptsConfig struct {
	// TemplateFile optionally merges extra YAML templates.
	TemplateFile string `toml:"template_file"`
	// Seed fixes the generator PRNG; 0 uses the default seed.
	Seed int64 `toml:"seed"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: "mock",
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			TimeoutSecs: 30,
			MaxRetries:  3,
		},
		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			Model:       "llama3.2:3b",
			TimeoutSecs: 120,
		},
		Budget: BudgetConfig{
			Tier: "development",
		},
		Output: OutputConfig{
			Dir:    "results",
			Format: "json",
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:9090",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the user configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-bench"), nil
}

// ConfigPath returns the default TOML config path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the user config file if present, otherwise returns
// defaults. Environment overrides apply in both cases.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		applyEnv(cfg)
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a TOML config from an explicit path, overlaying
// the built-in defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays secrets and endpoints from the environment.
func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		cfg.OpenAI.BaseURL = url
	}
	if url := os.Getenv("OLLAMA_HOST"); url != "" {
		cfg.Ollama.URL = url
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config as TOML to the default path, creating the
// config directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the config atomically to an explicit path.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// Config may hold an API key; keep it out of group/world reach.
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

var validBackends = map[string]bool{"mock": true, "openai": true, "ollama": true}
var validFormats = map[string]bool{"json": true, "csv": true, "markdown": true, "md": true}
var validTiers = map[string]bool{"development": true, "demo": true, "production": true}

// Validate checks field values, returning the first problem found.
func (c *Config) Validate() error {
	if !validBackends[c.Backend] {
		return fmt.Errorf("invalid backend %q (want mock, openai, or ollama)", c.Backend)
	}
	if !validTiers[c.Budget.Tier] {
		return fmt.Errorf("invalid budget tier %q (want development, demo, or production)", c.Budget.Tier)
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format %q (want json, csv, or markdown)", c.Output.Format)
	}
	if c.OpenAI.TimeoutSecs < 0 || c.Ollama.TimeoutSecs < 0 {
		return fmt.Errorf("timeouts must be >= 0")
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}
	return nil
}
