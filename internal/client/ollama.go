// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultOllamaBaseURL is the local Ollama daemon.
	// Note: Uses explicit IPv4 address instead of localhost to avoid
	// IPv6 resolution issues on Windows.
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"

	// DefaultOllamaModel is used when no model is configured.
	DefaultOllamaModel = "llama3.2:3b"
)

// ErrOllamaNotRunning indicates the daemon is unreachable.
var ErrOllamaNotRunning = errors.New("Ollama is not running")

// =============================================================================
// CONFIGURATION
// =============================================================================

// OllamaConfig holds configuration for the Ollama backend.
type OllamaConfig struct {
	// BaseURL of the Ollama API (default: DefaultOllamaBaseURL).
	BaseURL string

	// Model to run (default: DefaultOllamaModel).
	Model string

	// Timeout per request. Local generation can be slow on CPU, so
	// the default is generous (120s).
	Timeout time.Duration
}

// =============================================================================
// OLLAMA CLIENT
// =============================================================================

// OllamaClient runs prompts against a local Ollama daemon via
// /api/generate. It is safe for concurrent use.
type OllamaClient struct {
	config     OllamaConfig
	httpClient *http.Client
}

// NewOllamaClient creates a client for a local Ollama daemon.
func NewOllamaClient(config OllamaConfig) *OllamaClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultOllamaBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &OllamaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.config.Model
}

// CheckRunning verifies the daemon is reachable.
func (c *OllamaClient) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrOllamaNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from Ollama: %s", resp.Status)
	}
	return nil
}

// ListModels returns the names of locally available models.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrOllamaNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list models: %s", resp.Status)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit runs one prompt through /api/generate (non-streaming).
// Ollama reports exact token counts in prompt_eval_count/eval_count;
// when they are missing a word-count estimate is used instead so cost
// accounting never sees a successful outcome with zero tokens.
func (c *OllamaClient) Submit(ctx context.Context, prompt string) *Outcome {
	start := time.Now()

	reqBody := generateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.7,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Failure(c.config.Model, fmt.Sprintf("failed to marshal request: %v", err), time.Since(start).Seconds())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Failure(c.config.Model, fmt.Sprintf("failed to create request: %v", err), time.Since(start).Seconds())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Failure(c.config.Model, fmt.Sprintf("request timeout after %s", c.config.Timeout), time.Since(start).Seconds())
		}
		return Failure(c.config.Model, fmt.Sprintf("network error: %v", err), time.Since(start).Seconds())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Failure(c.config.Model,
			fmt.Sprintf("Ollama API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			time.Since(start).Seconds())
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failure(c.config.Model, fmt.Sprintf("failed to decode response: %v", err), time.Since(start).Seconds())
	}

	inputTokens := result.PromptEvalCount
	outputTokens := result.EvalCount
	if inputTokens == 0 {
		inputTokens = estimateTokens(prompt)
	}
	if outputTokens == 0 {
		outputTokens = estimateTokens(result.Response)
	}

	return &Outcome{
		Response:     result.Response,
		Latency:      time.Since(start).Seconds(),
		Success:      true,
		Model:        c.config.Model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
	}
}

// estimateTokens approximates a token count when the backend does not
// report one. Rough heuristic: ~1.3 tokens per word.
func estimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}
