// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// MOCK CLIENT TESTS
// =============================================================================

func TestMockClient_Deterministic(t *testing.T) {
	c := NewMockClient(&MockConfig{ErrorRate: 0.3})

	prompts := []string{
		"What is the capital of France?",
		"Write a Python function that sorts a list.",
		"Explain the history of the Renaissance period in detail, covering art, science, and culture across several paragraphs with specific examples from the 14th through 17th centuries.",
	}

	for _, prompt := range prompts {
		first := c.Submit(context.Background(), prompt)
		for i := 0; i < 5; i++ {
			again := c.Submit(context.Background(), prompt)
			if again.Success != first.Success {
				t.Fatalf("prompt %q: success flipped between runs", prompt)
			}
			if again.Response != first.Response {
				t.Errorf("prompt %q: response changed between runs", prompt)
			}
			if again.Error != first.Error {
				t.Errorf("prompt %q: error changed between runs", prompt)
			}
			if again.TotalTokens != first.TotalTokens {
				t.Errorf("prompt %q: token count changed between runs", prompt)
			}
		}
	}
}

func TestMockClient_OutcomeInvariants(t *testing.T) {
	c := NewMockClient(&MockConfig{ErrorRate: 0.5})

	for i := 0; i < 50; i++ {
		outcome := c.Submit(context.Background(), "test prompt number "+string(rune('a'+i%26)))
		if outcome.Success && outcome.Error != "" {
			t.Error("successful outcome carries an error message")
		}
		if !outcome.Success && outcome.Error == "" {
			t.Error("failed outcome has no error message")
		}
		if !outcome.Success && outcome.TotalTokens != 0 {
			t.Error("failed outcome has nonzero tokens")
		}
		if outcome.Success && outcome.TotalTokens != outcome.InputTokens+outcome.OutputTokens {
			t.Error("total tokens != input + output")
		}
		if outcome.Model != "mock-gpt-3.5" {
			t.Errorf("model: got %s, want mock-gpt-3.5", outcome.Model)
		}
	}
}

func TestMockClient_ZeroErrorRateNeverFails(t *testing.T) {
	c := NewMockClient(nil)
	for i := 0; i < 20; i++ {
		outcome := c.Submit(context.Background(), "prompt "+string(rune('0'+i%10)))
		if !outcome.Success {
			t.Fatalf("unexpected failure: %s", outcome.Error)
		}
	}
}

func TestMockClient_CodePromptsGetCodeResponses(t *testing.T) {
	c := NewMockClient(nil)
	outcome := c.Submit(context.Background(), "Write a Python function that reverses a string.")
	if !outcome.Success {
		t.Fatalf("unexpected failure: %s", outcome.Error)
	}
	found := false
	for _, r := range mockCodeResponses {
		if r == outcome.Response {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a code response, got %q", outcome.Response)
	}
}

// =============================================================================
// OPENAI CLIENT TESTS
// =============================================================================

func TestOpenAIClient_SuccessfulSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header: got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
			"usage": map[string]int{
				"prompt_tokens":     12,
				"completion_tokens": 3,
				"total_tokens":      15,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	})

	outcome := c.Submit(context.Background(), "hello")
	if !outcome.Success {
		t.Fatalf("submit failed: %s", outcome.Error)
	}
	if outcome.Response != "hi there" {
		t.Errorf("response: got %q", outcome.Response)
	}
	if outcome.InputTokens != 12 || outcome.OutputTokens != 3 || outcome.TotalTokens != 15 {
		t.Errorf("tokens: got %d/%d/%d", outcome.InputTokens, outcome.OutputTokens, outcome.TotalTokens)
	}
	if outcome.Latency <= 0 {
		t.Error("latency not recorded")
	}
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, MaxRetries: 2})

	outcome := c.Submit(context.Background(), "retry me")
	if !outcome.Success {
		t.Fatalf("expected success after retry, got: %s", outcome.Error)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestOpenAIClient_FailureBecomesOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "bad", BaseURL: server.URL})

	outcome := c.Submit(context.Background(), "hello")
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Error == "" {
		t.Error("failed outcome has no error message")
	}
	if outcome.TotalTokens != 0 {
		t.Error("failed outcome has nonzero tokens")
	}
}

// =============================================================================
// OLLAMA CLIENT TESTS
// =============================================================================

func TestOllamaClient_SuccessfulSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response":          "Paris.",
			"prompt_eval_count": 7,
			"eval_count":        2,
		})
	}))
	defer server.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "llama3.2:1b"})

	outcome := c.Submit(context.Background(), "What is the capital of France?")
	if !outcome.Success {
		t.Fatalf("submit failed: %s", outcome.Error)
	}
	if outcome.InputTokens != 7 || outcome.OutputTokens != 2 || outcome.TotalTokens != 9 {
		t.Errorf("tokens: got %d/%d/%d", outcome.InputTokens, outcome.OutputTokens, outcome.TotalTokens)
	}
}

func TestOllamaClient_EstimatesMissingTokenCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "one two three four five",
		})
	}))
	defer server.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: server.URL})

	outcome := c.Submit(context.Background(), "count to five please")
	if !outcome.Success {
		t.Fatalf("submit failed: %s", outcome.Error)
	}
	if outcome.InputTokens == 0 || outcome.OutputTokens == 0 {
		t.Error("expected estimated token counts for missing eval counts")
	}
	if outcome.TotalTokens != outcome.InputTokens+outcome.OutputTokens {
		t.Error("total tokens != input + output")
	}
}

func TestOllamaClient_APIErrorBecomesOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "nope:1b"})

	outcome := c.Submit(context.Background(), "hello")
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Error == "" {
		t.Error("failed outcome has no error message")
	}
}

func TestOllamaClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})

	outcome := c.Submit(context.Background(), "slow")
	if outcome.Success {
		t.Fatal("expected timeout failure")
	}
	if outcome.Latency <= 0 {
		t.Error("latency not recorded on failure")
	}
}
