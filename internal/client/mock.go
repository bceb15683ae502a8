// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"hash/fnv"
	"strings"
	"time"
)

// =============================================================================
// MOCK CLIENT
// =============================================================================

// MockConfig holds configuration for the mock backend.
type MockConfig struct {
	// Model name to report (default: "mock-gpt-3.5").
	Model string

	// ErrorRate is the fraction of prompts that fail, in [0,1].
	// Which prompts fail is a pure function of the prompt text, so
	// repeated runs produce identical outcomes.
	ErrorRate float64

	// SimulateLatency sleeps for a latency derived from the prompt
	// length. Disabled in tests for speed.
	SimulateLatency bool

	// LatencyScale multiplies the simulated sleep (default 1.0).
	// Set below 1 to compress wall time while keeping the reported
	// latency model realistic.
	LatencyScale float64
}

// MockClient simulates an inference backend without any network or
// model. All behavior is a deterministic function of the prompt text:
// the same prompt always yields the same response, token counts, and
// success/failure decision. Safe for concurrent use.
type MockClient struct {
	config MockConfig
}

// NewMockClient creates a deterministic mock backend. A nil config
// uses defaults (no simulated errors, no sleeping).
func NewMockClient(config *MockConfig) *MockClient {
	cfg := MockConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Model == "" {
		cfg.Model = "mock-gpt-3.5"
	}
	if cfg.LatencyScale == 0 {
		cfg.LatencyScale = 1.0
	}
	return &MockClient{config: cfg}
}

// Model returns the simulated model name.
func (c *MockClient) Model() string {
	return c.config.Model
}

// =============================================================================
// CANNED RESPONSES
// =============================================================================

var mockShortResponses = []string{
	"Paris is the capital of France.",
	"Gravity is the force that attracts objects toward the center of the Earth.",
	"15 + 27 = 42",
	"Three popular programming languages are Python, JavaScript, and Java.",
	"Jupiter is the largest planet in our solar system.",
	"A hexagon has six sides.",
	"The chemical symbol for gold is Au.",
	"The four seasons are spring, summer, autumn, and winter.",
}

var mockLongResponses = []string{
	"Climate change represents one of the most significant challenges facing global agriculture today. Rising temperatures and shifting precipitation patterns are affecting crop yields worldwide, and adaptation will require drought-resistant varieties, precision agriculture, and sustainable practices that build soil resilience.",
	"The Renaissance marked a profound transformation in European culture, art, and science. Humanistic philosophy, linear perspective, and empirical observation emerged together, bridging medieval and modern thinking.",
	"Machine learning enables computers to improve from experience without explicit programming. Supervised, unsupervised, and reinforcement approaches power applications from image recognition to autonomous vehicles, while bias and transparency remain open challenges.",
}

var mockCodeResponses = []string{
	"def example_function(x):\n    return x * 2\n",
	"const validateEmail = (email) => {\n    const regex = /^[^\\s@]+@[^\\s@]+\\.[^\\s@]+$/;\n    return regex.test(email);\n};",
	"class Stack:\n    def __init__(self):\n        self.items = []\n\n    def push(self, item):\n        self.items.append(item)\n\n    def pop(self):\n        return self.items.pop() if self.items else None",
}

var mockErrors = []string{
	"Rate limit exceeded: mock rate limit for testing",
	"Request timeout: mock timeout error",
	"API error: mock API error for testing",
	"Network error: mock network issue",
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit simulates one inference call. Latency is modeled from the
// prompt length (0.5s base plus 2s per 1000 chars); the failure
// decision and response selection hash the prompt text.
func (c *MockClient) Submit(ctx context.Context, prompt string) *Outcome {
	start := time.Now()
	h := promptHash(prompt)

	latency := 0.5 + float64(len(prompt))/1000*2.0

	if c.config.SimulateLatency {
		sleep := time.Duration(latency * c.config.LatencyScale * float64(time.Second))
		select {
		case <-ctx.Done():
			return Failure(c.config.Model, ctx.Err().Error(), time.Since(start).Seconds())
		case <-time.After(sleep):
		}
		latency = time.Since(start).Seconds()
	}

	// Deterministic failure schedule: the low bits of the prompt hash
	// decide, so the same prompt fails on every run.
	if c.config.ErrorRate > 0 && float64(h%1000) < c.config.ErrorRate*1000 {
		return Failure(c.config.Model, mockErrors[h%uint64(len(mockErrors))], latency)
	}

	response := c.pickResponse(prompt, h)
	inputTokens := len(strings.Fields(prompt))
	outputTokens := len(strings.Fields(response))

	return &Outcome{
		Response:     response,
		Latency:      latency,
		Success:      true,
		Model:        c.config.Model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
	}
}

// pickResponse selects a canned response matching the prompt's rough
// shape, mirroring the behavior benchmark prompts exercise.
func (c *MockClient) pickResponse(prompt string, h uint64) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "code") || strings.Contains(lower, "function"):
		return mockCodeResponses[h%uint64(len(mockCodeResponses))]
	case len(prompt) > 200:
		return mockLongResponses[h%uint64(len(mockLongResponses))]
	default:
		return mockShortResponses[h%uint64(len(mockShortResponses))]
	}
}

// promptHash returns a stable FNV-1a hash of the prompt text.
func promptHash(prompt string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	return h.Sum64()
}
