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
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultOpenAIBaseURL is the default API endpoint. Any
	// OpenAI-compatible gateway works by overriding BaseURL.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-3.5-turbo"

	// openaiRetryBaseDelay is the base delay for exponential backoff.
	openaiRetryBaseDelay = 500 * time.Millisecond

	// openaiRetryMaxDelay caps the backoff delay.
	openaiRetryMaxDelay = 10 * time.Second

	// maxResponseSize limits response bodies to prevent memory
	// exhaustion from a misbehaving gateway (1MB).
	maxResponseSize = 1 * 1024 * 1024
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d)", e.Status)
}

// ErrRateLimited indicates the backend returned 429.
var ErrRateLimited = errors.New("rate limit exceeded")

// =============================================================================
// CONFIGURATION
// =============================================================================

// OpenAIConfig holds configuration for the OpenAI-compatible backend.
type OpenAIConfig struct {
	// APIKey is sent as a Bearer token.
	APIKey string

	// BaseURL of the API (default: DefaultOpenAIBaseURL).
	BaseURL string

	// Model to request (default: DefaultOpenAIModel).
	Model string

	// Timeout per HTTP request (default: 30s).
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3).
	MaxRetries int
}

// =============================================================================
// OPENAI CLIENT
// =============================================================================

// OpenAIClient talks to an OpenAI-compatible chat completions API.
// It is safe for concurrent use.
type OpenAIClient struct {
	config     OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a client for an OpenAI-compatible backend.
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultOpenAIBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	return &OpenAIClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends one prompt through chat completions. Transient failures
// (429, 5xx, timeouts) are retried with exponential backoff; the final
// error, if any, is reported inside the Outcome.
func (c *OpenAIClient) Submit(ctx context.Context, prompt string) *Outcome {
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		// Apply backoff delay after the first attempt
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Failure(c.config.Model, ctx.Err().Error(), time.Since(start).Seconds())
			case <-time.After(backoffDelay(attempt)):
			}
		}

		resp, err := c.doRequest(ctx, prompt)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			break
		}

		outcome := &Outcome{
			Latency:      time.Since(start).Seconds(),
			Success:      true,
			Model:        c.config.Model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		if len(resp.Choices) > 0 {
			outcome.Response = resp.Choices[0].Message.Content
		}
		if outcome.TotalTokens == 0 {
			outcome.TotalTokens = outcome.InputTokens + outcome.OutputTokens
		}
		return outcome
	}

	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	return Failure(c.config.Model, lastErr.Error(), time.Since(start).Seconds())
}

// doRequest performs a single chat completion round trip.
func (c *OpenAIClient) doRequest(ctx context.Context, prompt string) (*chatResponse, error) {
	reqBody := chatRequest{
		Model:    c.config.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp)
	}

	var result chatResponse
	limited := io.LimitReader(resp.Body, maxResponseSize)
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// parseAPIError converts a non-2xx response into a typed error.
func parseAPIError(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w (status 429)", ErrRateLimited)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return &APIError{Status: resp.StatusCode, Message: parsed.Error.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: resp.Status}
}

// isRetryable reports whether an error should trigger another attempt.
// Rate limits, timeouts, and 5xx responses are retryable; context
// cancellation and client-side errors are not.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}

	return false
}

// backoffDelay returns the exponential backoff delay for an attempt:
// 500ms, 1s, 2s, ... capped at openaiRetryMaxDelay.
func backoffDelay(attempt int) time.Duration {
	delay := openaiRetryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > openaiRetryMaxDelay {
		delay = openaiRetryMaxDelay
	}
	return delay
}
