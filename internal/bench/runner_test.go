// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/rigrun-bench/internal/client"
	"github.com/jeranaias/rigrun-bench/internal/cost"
	"github.com/jeranaias/rigrun-bench/internal/metrics"
	"github.com/jeranaias/rigrun-bench/internal/prompts"
)

// scriptedClient fails or panics on configured request ordinals.
type scriptedClient struct {
	model    string
	failOn   map[int]bool
	panicOn  map[int]bool
	calls    atomic.Int32
	latency  float64
}

func (c *scriptedClient) Model() string { return c.model }

func (c *scriptedClient) Submit(ctx context.Context, prompt string) *client.Outcome {
	n := int(c.calls.Add(1))
	if c.panicOn[n] {
		panic(fmt.Sprintf("scripted panic on call %d", n))
	}
	if c.failOn[n] {
		return client.Failure(c.model, "API error: scripted failure", c.latency)
	}
	return &client.Outcome{
		Response:     "ok",
		Latency:      c.latency,
		Success:      true,
		Model:        c.model,
		InputTokens:  50,
		OutputTokens: 100,
		TotalTokens:  150,
	}
}

func newTestRunner(c client.Client, tier cost.Tier) *Runner {
	return NewRunner(c, prompts.NewGenerator(), cost.NewLedger(tier))
}

func mockRunner(tier cost.Tier) *Runner {
	return newTestRunner(client.NewMockClient(nil), tier)
}

func TestRun_RequestIDsCompleteAndOrdered(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		cfg := DefaultRunConfig()
		cfg.Requests = 20
		cfg.Concurrency = concurrency

		report, err := mockRunner(cost.TierDevelopment).Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("concurrency %d: %v", concurrency, err)
		}
		if len(report.Outcomes) != 20 {
			t.Fatalf("concurrency %d: got %d outcomes, want 20", concurrency, len(report.Outcomes))
		}
		for i, o := range report.Outcomes {
			if o.RequestID != i+1 {
				t.Errorf("concurrency %d: outcome %d has request id %d", concurrency, i, o.RequestID)
			}
			if o.Prompt == "" {
				t.Errorf("concurrency %d: outcome %d missing prompt", concurrency, i)
			}
		}
	}
}

func TestRun_CountsConsistent(t *testing.T) {
	c := &scriptedClient{model: "mock-gpt-3.5", latency: 0.2,
		failOn: map[int]bool{2: true, 4: true}}
	cfg := DefaultRunConfig()
	cfg.Requests = 5

	report, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Successful+report.Failed != report.TotalRequests {
		t.Errorf("succeeded %d + failed %d != total %d",
			report.Successful, report.Failed, report.TotalRequests)
	}
	want := float64(report.Successful) / float64(report.TotalRequests)
	if report.SuccessRate != want {
		t.Errorf("success rate: got %f, want %f", report.SuccessRate, want)
	}
	if report.Failed != 2 {
		t.Errorf("failed: got %d, want 2", report.Failed)
	}
}

func TestRun_LatencyStatsOrdering(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Requests = 15
	cfg.Category = prompts.CodeGeneration

	report, err := mockRunner(cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Successful == 0 {
		t.Fatal("expected successes from mock client")
	}

	if report.MinLatency > report.MedianLatency ||
		report.MedianLatency > report.P95Latency ||
		report.P95Latency > report.MaxLatency {
		t.Errorf("latency ordering violated: min=%f median=%f p95=%f max=%f",
			report.MinLatency, report.MedianLatency, report.P95Latency, report.MaxLatency)
	}
	if report.AvgLatency < report.MinLatency || report.AvgLatency > report.MaxLatency {
		t.Errorf("mean %f outside [%f, %f]", report.AvgLatency, report.MinLatency, report.MaxLatency)
	}
}

func TestRun_AllFailingRunHasZeroStats(t *testing.T) {
	c := &scriptedClient{model: "mock-gpt-3.5", latency: 0.1,
		failOn: map[int]bool{1: true, 2: true, 3: true}}
	cfg := DefaultRunConfig()
	cfg.Requests = 3

	report, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Successful != 0 {
		t.Fatalf("expected all failures, got %d successes", report.Successful)
	}
	if report.MinLatency != 0 || report.MaxLatency != 0 || report.AvgLatency != 0 ||
		report.MedianLatency != 0 || report.P95Latency != 0 {
		t.Errorf("latency stats not zero for all-failing run: %+v", report)
	}
	if len(report.Errors) == 0 {
		t.Error("error histogram empty")
	}
}

func TestRun_BudgetGateRejects(t *testing.T) {
	// gpt-4 at the 50/100 default estimate prices to $0.0075 per
	// request; 200 requests estimate to $1.50, over the development
	// tier's $1 per-run limit.
	c := &scriptedClient{model: "gpt-4", latency: 0.1}
	cfg := DefaultRunConfig()
	cfg.Requests = 200

	_, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected budget rejection")
	}
	var budgetErr *BudgetError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("got %T, want *BudgetError", err)
	}
	if !strings.Contains(budgetErr.Reason, "per-run limit") {
		t.Errorf("reason does not name the per-run limit: %q", budgetErr.Reason)
	}
}

func TestRun_BudgetOverrideProceeds(t *testing.T) {
	c := &scriptedClient{model: "gpt-4", latency: 0.1}
	ceiling := 5.0
	cfg := DefaultRunConfig()
	cfg.Requests = 200
	cfg.MaxCost = &ceiling

	report, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("override run: %v", err)
	}
	if report.TotalRequests != 200 {
		t.Errorf("total: got %d, want 200", report.TotalRequests)
	}
}

func TestRun_ConcurrencyDeterministicWithMock(t *testing.T) {
	run := func() *RunReport {
		cfg := DefaultRunConfig()
		cfg.Requests = 12
		cfg.Concurrency = 4

		r := NewRunner(client.NewMockClient(&client.MockConfig{ErrorRate: 0.3}),
			prompts.NewGenerator(), cost.NewLedger(cost.TierDevelopment))
		report, err := r.Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return report
	}

	a, b := run(), run()
	if len(a.Outcomes) != len(b.Outcomes) {
		t.Fatalf("outcome counts differ: %d vs %d", len(a.Outcomes), len(b.Outcomes))
	}
	for i := range a.Outcomes {
		if a.Outcomes[i].RequestID != b.Outcomes[i].RequestID {
			t.Errorf("outcome %d: request ids differ", i)
		}
		if a.Outcomes[i].Prompt != b.Outcomes[i].Prompt {
			t.Errorf("outcome %d: prompts differ", i)
		}
		if a.Outcomes[i].Success != b.Outcomes[i].Success {
			t.Errorf("outcome %d: success differs for prompt %q", i, a.Outcomes[i].Prompt)
		}
		if a.Outcomes[i].Response != b.Outcomes[i].Response {
			t.Errorf("outcome %d: responses differ", i)
		}
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	c := &scriptedClient{model: "mock-gpt-3.5", latency: 0.1,
		failOn: map[int]bool{3: true}}
	cfg := DefaultRunConfig()
	cfg.Requests = 5

	report, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.TotalRequests != 5 {
		t.Errorf("total: got %d, want 5", report.TotalRequests)
	}
	if report.Failed < 1 {
		t.Error("expected at least one failure")
	}
	if len(report.Outcomes) != 5 {
		t.Errorf("outcomes: got %d, want 5", len(report.Outcomes))
	}
}

func TestRun_PanicBecomesSyntheticOutcome(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		c := &scriptedClient{model: "mock-gpt-3.5", latency: 0.1,
			panicOn: map[int]bool{2: true}}
		cfg := DefaultRunConfig()
		cfg.Requests = 4
		cfg.Concurrency = concurrency

		report, err := newTestRunner(c, cost.TierDevelopment).Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("concurrency %d: run aborted by panic: %v", concurrency, err)
		}
		if len(report.Outcomes) != 4 {
			t.Fatalf("concurrency %d: got %d outcomes, want 4", concurrency, len(report.Outcomes))
		}

		panicked := 0
		for _, o := range report.Outcomes {
			if !o.Success && strings.Contains(o.Error, "panic") {
				panicked++
				if o.TotalTokens != 0 {
					t.Error("synthetic outcome has nonzero tokens")
				}
			}
		}
		if panicked != 1 {
			t.Errorf("concurrency %d: got %d panic outcomes, want 1", concurrency, panicked)
		}
	}
}

func TestRun_CancelledContextYieldsCompleteReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultRunConfig()
	cfg.Requests = 5

	report, err := mockRunner(cost.TierDevelopment).Run(ctx, cfg)
	if err != nil {
		t.Fatalf("cancelled run should still report: %v", err)
	}
	if len(report.Outcomes) != 5 {
		t.Fatalf("got %d outcomes, want 5", len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if o.RequestID < 1 || o.RequestID > 5 {
			t.Errorf("bad request id %d", o.RequestID)
		}
	}
	if report.Failed == 0 {
		t.Error("expected cancelled slots to be failures")
	}
}

func TestRun_CustomPromptsCycle(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Requests = 5
	cfg.CustomPrompts = []string{"alpha", "beta"}

	report, err := mockRunner(cost.TierDevelopment).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"alpha", "beta", "alpha", "beta", "alpha"}
	for i, o := range report.Outcomes {
		if o.Prompt != want[i] {
			t.Errorf("prompt %d: got %q, want %q", i, o.Prompt, want[i])
		}
	}
}

func TestRun_UniquePromptShortageIsFatal(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Requests = 50
	cfg.AllowDuplicatePrompts = false

	_, err := mockRunner(cost.TierDevelopment).Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected setup error for unique prompt shortage")
	}
	var insufficient *prompts.InsufficientUniqueError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %T (%v), want *prompts.InsufficientUniqueError", err, err)
	}
}

func TestRun_CostReconciliation(t *testing.T) {
	c := &scriptedClient{model: "gpt-3.5-turbo", latency: 0.1,
		failOn: map[int]bool{2: true}}
	cfg := DefaultRunConfig()
	cfg.Requests = 4

	ledger := cost.NewLedger(cost.TierDevelopment)
	r := NewRunner(c, prompts.NewGenerator(), ledger)

	report, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 3 successes at 50 in / 100 out on gpt-3.5-turbo:
	// 3 * ((50/1000)*0.0015 + (100/1000)*0.002) = 3 * 0.000275
	want := 3 * 0.000275
	if math.Abs(report.TotalCost-want) > 1e-9 {
		t.Errorf("total cost: got %f, want %f", report.TotalCost, want)
	}
	if math.Abs(report.AvgCostPerRequest-want/4) > 1e-9 {
		t.Errorf("avg cost: got %f, want %f", report.AvgCostPerRequest, want/4)
	}
	if math.Abs(ledger.CurrentRunCost()-want) > 1e-9 {
		t.Errorf("ledger run cost: got %f, want %f", ledger.CurrentRunCost(), want)
	}
	if report.CostSnapshot == nil {
		t.Error("cost snapshot missing")
	}
}

func TestRun_MetricsEmission(t *testing.T) {
	c := &scriptedClient{model: "mock-gpt-3.5", latency: 0.1,
		failOn: map[int]bool{1: true}}
	cfg := DefaultRunConfig()
	cfg.Requests = 3

	r := newTestRunner(c, cost.TierDevelopment)
	r.Sink = metrics.NewSink()

	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats := r.Sink.CurrentStats()
	if stats.TotalRequests != 3 {
		t.Errorf("sink requests: got %f, want 3", stats.TotalRequests)
	}
	if stats.TotalFailures != 1 {
		t.Errorf("sink failures: got %f, want 1", stats.TotalFailures)
	}
	if stats.ActiveRequests != 0 {
		t.Errorf("active requests after run: got %f, want 0", stats.ActiveRequests)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	r := mockRunner(cost.TierDevelopment)

	for _, cfg := range []RunConfig{
		{Requests: 0, Concurrency: 1, Category: prompts.ShortQA},
		{Requests: 5, Concurrency: 0, Category: prompts.ShortQA},
		{Requests: 5, Concurrency: 1, Category: "bogus"},
		{Requests: 5, Concurrency: 1, Category: prompts.ShortQA, RequestsPerSecond: -1},
	} {
		if _, err := r.Run(context.Background(), cfg); err == nil {
			t.Errorf("config %+v: expected validation error", cfg)
		}
	}
}

type capturingWriter struct {
	report *RunReport
}

func (w *capturingWriter) WriteReport(report *RunReport) (string, error) {
	w.report = report
	return "captured", nil
}

func TestRun_SaveResultsHandsOffReport(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Requests = 2
	cfg.SaveResults = true

	r := mockRunner(cost.TierDevelopment)
	writer := &capturingWriter{}
	r.Writer = writer

	report, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if writer.report != report {
		t.Error("writer did not receive the run report")
	}
}

type failingWriter struct{}

func (failingWriter) WriteReport(*RunReport) (string, error) {
	return "", errors.New("disk full")
}

func TestRun_WriterFailureDoesNotAbort(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Requests = 2
	cfg.SaveResults = true

	r := mockRunner(cost.TierDevelopment)
	r.Writer = failingWriter{}

	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("persistence failure aborted run: %v", err)
	}
}
