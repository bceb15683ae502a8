// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bench

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-bench/internal/client"
	"github.com/jeranaias/rigrun-bench/internal/cost"
	"github.com/jeranaias/rigrun-bench/internal/metrics"
	"github.com/jeranaias/rigrun-bench/internal/prompts"
)

// =============================================================================
// ERRORS
// =============================================================================

// BudgetError aborts a run at the pre-flight gate. Reason names the
// violated limit and by how much.
type BudgetError struct {
	Reason string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget exceeded: %s", e.Reason)
}

// =============================================================================
// REPORT WRITER
// =============================================================================

// ReportWriter persists a finished report. Implementations decide the
// serialization format and destination; failures are logged by the
// Runner, never surfaced to the caller.
type ReportWriter interface {
	WriteReport(report *RunReport) (path string, err error)
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes benchmark runs. Client, Source, and Ledger are
// required; Sink and Writer are optional collaborators.
type Runner struct {
	Client client.Client
	Source prompts.Source
	Ledger *cost.Ledger
	Sink   *metrics.Sink
	Writer ReportWriter
}

// NewRunner creates a runner with the required collaborators. Attach
// Sink and Writer directly before calling Run.
func NewRunner(c client.Client, source prompts.Source, ledger *cost.Ledger) *Runner {
	return &Runner{Client: c, Source: source, Ledger: ledger}
}

// Run executes one benchmark. It fails only on invalid config, a
// rejected budget gate without override, or a prompt source that
// cannot satisfy the request; every per-request failure is captured in
// the report instead. The context stops new submissions when
// cancelled; outcomes collected so far still produce a partial report.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	model := r.Client.Model()
	estIn, estOut := cfg.estimateTokens()

	// Pre-flight gate. Heuristic, not a reservation: actual spend is
	// reconciled after dispatch and may exceed the estimate.
	if ok, reason := r.Ledger.CanAfford(model, cfg.Requests, estIn, estOut); !ok {
		if cfg.MaxCost == nil {
			return nil, &BudgetError{Reason: reason}
		}
		log.Printf("[bench] budget gate overridden (ceiling $%.2f): %s", *cfg.MaxCost, reason)
	}

	runID := uuid.NewString()
	name := cfg.Name
	if name == "" {
		name = "bench_" + time.Now().Format("20060102_150405")
	}
	r.Ledger.StartRun(runID)

	promptList, err := r.acquirePrompts(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire prompts: %w", err)
	}

	log.Printf("[bench] run %s starting: %d requests, concurrency %d, model %s",
		name, cfg.Requests, cfg.Concurrency, model)

	start := time.Now()
	outcomes := r.dispatch(ctx, cfg, promptList)
	end := time.Now()

	// Completion order varies under concurrency; downstream consumers
	// rely on deterministic request id order.
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].RequestID < outcomes[j].RequestID
	})

	report := &RunReport{
		RunID:           runID,
		Name:            name,
		Model:           model,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end.Sub(start).Seconds(),
		Outcomes:        outcomes,
	}
	report.aggregate()

	r.reconcileCosts(report)
	r.emitMetrics(cfg, report)

	if cfg.SaveResults && r.Writer != nil {
		if path, err := r.Writer.WriteReport(report); err != nil {
			log.Printf("[bench] could not write report: %v", err)
		} else {
			log.Printf("[bench] report written to %s", path)
		}
	}

	log.Printf("[bench] run %s finished: %d/%d succeeded in %.2fs ($%.4f)",
		name, report.Successful, report.TotalRequests, report.DurationSeconds, report.TotalCost)
	return report, nil
}

// acquirePrompts builds the ordered prompt list: custom prompts repeat
// cyclically to the request count, otherwise the source generates them.
func (r *Runner) acquirePrompts(cfg RunConfig) ([]string, error) {
	if len(cfg.CustomPrompts) > 0 {
		list := make([]string, cfg.Requests)
		for i := range list {
			list[i] = cfg.CustomPrompts[i%len(cfg.CustomPrompts)]
		}
		return list, nil
	}
	return r.Source.Generate(cfg.Category, cfg.Requests, cfg.AllowDuplicatePrompts)
}

// dispatch issues every prompt and returns one outcome per request.
// Slot i belongs exclusively to request i+1, so workers never contend
// on the result slice.
func (r *Runner) dispatch(ctx context.Context, cfg RunConfig, promptList []string) []client.Outcome {
	outcomes := make([]client.Outcome, len(promptList))

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	if cfg.Concurrency == 1 {
		for i, prompt := range promptList {
			if ctx.Err() != nil {
				r.fillCancelled(outcomes, i, promptList)
				break
			}
			outcomes[i] = r.submitOne(ctx, i+1, prompt, limiter)
		}
		return outcomes
	}

	g := &errgroup.Group{}
	g.SetLimit(cfg.Concurrency)
	for i, prompt := range promptList {
		if ctx.Err() != nil {
			r.fillCancelled(outcomes, i, promptList)
			break
		}
		g.Go(func() error {
			outcomes[i] = r.submitOne(ctx, i+1, prompt, limiter)
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// submitOne performs a single guarded client call. A panic escaping
// the client becomes a synthetic failed outcome; the run never aborts
// because one request raised.
func (r *Runner) submitOne(ctx context.Context, requestID int, prompt string, limiter *rate.Limiter) (result client.Outcome) {
	model := r.Client.Model()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[bench] request %d panicked: %v", requestID, rec)
			result = *client.Failure(model, fmt.Sprintf("client panic: %v", rec), 0)
		}
		result.RequestID = requestID
		result.Prompt = prompt
	}()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return *client.Failure(model, "run cancelled before dispatch: "+err.Error(), 0)
		}
	}

	if r.Sink != nil {
		r.Sink.RequestStarted(model)
		defer r.Sink.RequestFinished(model)
	}

	return *r.Client.Submit(ctx, prompt)
}

// fillCancelled marks every unsubmitted slot from index from onward as
// failed, keeping the report complete after cancellation.
func (r *Runner) fillCancelled(outcomes []client.Outcome, from int, promptList []string) {
	model := r.Client.Model()
	for i := from; i < len(outcomes); i++ {
		o := client.Failure(model, "run cancelled before dispatch", 0)
		o.RequestID = i + 1
		o.Prompt = promptList[i]
		outcomes[i] = *o
	}
}

// reconcileCosts prices every successful outcome at its real token
// counts, records the spend, and attaches a ledger snapshot. History
// persistence is best-effort.
func (r *Runner) reconcileCosts(report *RunReport) {
	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		if !o.Success {
			continue
		}
		entry := r.Ledger.PriceRequest(o.Model, o.InputTokens, o.OutputTokens)
		r.Ledger.Record(entry)
		report.TotalCost += entry.TotalCost
	}
	if report.TotalRequests > 0 {
		report.AvgCostPerRequest = report.TotalCost / float64(report.TotalRequests)
	}

	snapshot := r.Ledger.Summarize(1)
	report.CostSnapshot = &snapshot

	if err := r.Ledger.Save(); err != nil {
		log.Printf("[bench] could not persist cost history: %v", err)
	}
}

// emitMetrics submits every outcome to the sink. Custom-prompt runs
// get their category inferred per prompt.
func (r *Runner) emitMetrics(cfg RunConfig, report *RunReport) {
	if r.Sink == nil {
		return
	}
	category := ""
	if len(cfg.CustomPrompts) == 0 {
		category = string(cfg.Category)
	}
	for i := range report.Outcomes {
		r.Sink.Record(&report.Outcomes[i], category)
	}
}
