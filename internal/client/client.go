// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import "context"

// =============================================================================
// CLIENT CAPABILITY
// =============================================================================

// Client is the capability every inference backend must satisfy.
//
// Submit sends a single prompt and blocks until an Outcome is
// available. Implementations must encode all failures (timeouts, HTTP
// errors, rate limits) inside the returned Outcome rather than
// panicking; retry and backoff policy is the backend's own concern and
// opaque to callers.
type Client interface {
	// Submit runs one prompt to completion. The returned Outcome is
	// never nil.
	Submit(ctx context.Context, prompt string) *Outcome

	// Model returns the model name this client targets. Used for
	// pricing lookups and metric labels.
	Model() string
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of one dispatched prompt.
//
// RequestID and Prompt are zero/empty when an Outcome leaves a backend;
// the engine assigns them before aggregation. After dispatch completes
// an Outcome is read-only.
type Outcome struct {
	RequestID int    `json:"request_id"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`

	// Latency is the wall time of the call in seconds. Always
	// populated, including on failure.
	Latency float64 `json:"latency"`

	// Success and Error are mutually exclusive: exactly one of
	// (Success with empty Error) or (!Success with non-empty Error)
	// holds.
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Model string `json:"model"`

	// Token counts are 0 on failure. TotalTokens = InputTokens +
	// OutputTokens when present.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Failure builds a failed Outcome for the given model and error
// message with the measured latency. Token counts stay zero.
func Failure(model, errMsg string, latency float64) *Outcome {
	return &Outcome{
		Latency: latency,
		Success: false,
		Error:   errMsg,
		Model:   model,
	}
}
