// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ENTRIES
// =============================================================================

// Entry is one priced request, appended to the ledger history.
// Entries are never mutated after Record.
type Entry struct {
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	InputCost    float64   `json:"input_cost"`
	OutputCost   float64   `json:"output_cost"`
	TotalCost    float64   `json:"total_cost"`
	Timestamp    time.Time `json:"timestamp"`
	RunID        string    `json:"run_id,omitempty"`
}

// Summary aggregates ledger history over a trailing window.
type Summary struct {
	WindowDays        int                       `json:"window_days"`
	TotalCost         float64                   `json:"total_cost"`
	AvgDailyCost      float64                   `json:"avg_daily_cost"`
	TotalRequests     int                       `json:"total_requests"`
	AvgCostPerRequest float64                   `json:"avg_cost_per_request"`
	ModelBreakdown    map[string]ModelUsage     `json:"model_breakdown"`
	DailyCosts        map[string]float64        `json:"daily_costs"`
	Budget            BudgetStatus              `json:"budget_status"`
	CurrentRunCost    float64                   `json:"current_run_cost"`
}

// ModelUsage is the per-model slice of a Summary.
type ModelUsage struct {
	Cost     float64 `json:"cost"`
	Requests int     `json:"requests"`
}

// BudgetStatus reports consumption against the active tier's limits.
type BudgetStatus struct {
	Tier            Tier    `json:"tier"`
	DailyUsed       float64 `json:"daily_used"`
	DailyLimit      float64 `json:"daily_limit"`
	DailyRemaining  float64 `json:"daily_remaining"`
	PerRunUsed      float64 `json:"run_used"`
	PerRunLimit     float64 `json:"run_limit"`
	PerRunRemaining float64 `json:"run_remaining"`
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger tracks spend against a budget tier. Safe for concurrent use
// by pooled benchmark workers.
type Ledger struct {
	mu      sync.RWMutex
	pricing *PricingTable
	budget  Budget
	store   *Store // nil means in-memory only

	history    []Entry
	dailyCosts map[string]float64 // "2006-01-02" -> total
	runCost    float64
	runID      string

	now func() time.Time // test seam
}

// NewLedger creates a ledger for a budget tier using the built-in
// pricing table and no persistence.
func NewLedger(tier Tier) *Ledger {
	return NewLedgerWithOptions(tier, DefaultPricing(), nil)
}

// NewLedgerWithOptions creates a ledger with explicit pricing and an
// optional persistent store. When a store is supplied, prior history
// is loaded best-effort: a load failure is logged and the ledger
// starts empty rather than failing construction.
func NewLedgerWithOptions(tier Tier, pricing *PricingTable, store *Store) *Ledger {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	l := &Ledger{
		pricing:    pricing,
		budget:     BudgetForTier(tier),
		store:      store,
		dailyCosts: make(map[string]float64),
		now:        time.Now,
	}

	if store != nil {
		history, err := store.Load()
		if err != nil {
			log.Printf("[cost] could not load cost history: %v", err)
		} else {
			l.history = history
			for _, e := range history {
				l.dailyCosts[e.Timestamp.Format("2006-01-02")] += e.TotalCost
			}
			if len(history) > 0 {
				log.Printf("[cost] loaded %d historical cost records", len(history))
			}
		}
	}

	log.Printf("[cost] ledger initialized: tier=%s daily=$%.2f per-run=$%.2f",
		l.budget.Tier, l.budget.DailyLimit, l.budget.PerRunLimit)
	return l
}

// Budget returns the active budget profile.
func (l *Ledger) Budget() Budget {
	return l.budget
}

// PriceRequest computes the cost of one request from its token counts.
// It is a pure function of the pricing table: unknown models price at
// the fallback rate and the lookup never fails.
func (l *Ledger) PriceRequest(model string, inputTokens, outputTokens int) Entry {
	rate, _ := l.pricing.Rate(model)

	inputCost := float64(inputTokens) / 1000 * rate.InputPer1K
	outputCost := float64(outputTokens) / 1000 * rate.OutputPer1K

	return Entry{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
		Timestamp:    l.now(),
	}
}

// Record appends an entry to history and updates the daily and
// current-run totals. Crossing a warning threshold logs a warning but
// never fails; budget enforcement happens only at the pre-flight gate.
func (l *Ledger) Record(entry Entry) {
	l.mu.Lock()
	entry.RunID = l.runID
	l.history = append(l.history, entry)
	l.runCost += entry.TotalCost

	day := entry.Timestamp.Format("2006-01-02")
	l.dailyCosts[day] += entry.TotalCost

	todayCost := l.dailyCosts[l.now().Format("2006-01-02")]
	runCost := l.runCost
	l.mu.Unlock()

	if todayCost >= l.budget.DailyLimit*l.budget.WarningThreshold {
		log.Printf("[cost] daily budget warning: $%.2f (%.1f%%) of $%.2f limit used",
			todayCost, todayCost/l.budget.DailyLimit*100, l.budget.DailyLimit)
	}
	if runCost >= l.budget.PerRunLimit*l.budget.WarningThreshold {
		log.Printf("[cost] run budget warning: $%.2f (%.1f%%) of $%.2f limit used",
			runCost, runCost/l.budget.PerRunLimit*100, l.budget.PerRunLimit)
	}
}

// StartRun resets the current-run total. Call once before the first
// Record of a run.
func (l *Ledger) StartRun(runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runCost = 0
	l.runID = runID
}

// CurrentRunCost returns spend recorded since the last StartRun.
func (l *Ledger) CurrentRunCost() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.runCost
}

// DailyCost returns total spend recorded for the given date
// ("2006-01-02"); an empty date means today.
func (l *Ledger) DailyCost(date string) float64 {
	if date == "" {
		date = l.now().Format("2006-01-02")
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dailyCosts[date]
}

// EstimateRunCost projects the cost of a planned run from an assumed
// average token load per request.
func (l *Ledger) EstimateRunCost(model string, requestCount, avgInputTokens, avgOutputTokens int) float64 {
	perRequest := l.PriceRequest(model, avgInputTokens, avgOutputTokens).TotalCost
	return perRequest * float64(requestCount)
}

// CanAfford is the pre-flight budget gate: it checks a planned run's
// estimated cost against the per-run limit first, then against what
// remains of today's daily limit. The returned reason names the limit
// that rejected the run.
func (l *Ledger) CanAfford(model string, requestCount, avgInputTokens, avgOutputTokens int) (bool, string) {
	estimate := l.EstimateRunCost(model, requestCount, avgInputTokens, avgOutputTokens)

	if estimate > l.budget.PerRunLimit {
		return false, fmt.Sprintf("estimated run cost $%.2f exceeds per-run limit $%.2f",
			estimate, l.budget.PerRunLimit)
	}

	todayCost := l.DailyCost("")
	if todayCost+estimate > l.budget.DailyLimit {
		remaining := l.budget.DailyLimit - todayCost
		return false, fmt.Sprintf("run would exceed daily limit $%.2f: $%.2f remaining today, $%.2f estimated",
			l.budget.DailyLimit, remaining, estimate)
	}

	return true, "run within budget"
}

// Status reports consumption against the active budget.
func (l *Ledger) Status() BudgetStatus {
	l.mu.RLock()
	todayCost := l.dailyCosts[l.now().Format("2006-01-02")]
	runCost := l.runCost
	l.mu.RUnlock()

	return BudgetStatus{
		Tier:            l.budget.Tier,
		DailyUsed:       todayCost,
		DailyLimit:      l.budget.DailyLimit,
		DailyRemaining:  max(0, l.budget.DailyLimit-todayCost),
		PerRunUsed:      runCost,
		PerRunLimit:     l.budget.PerRunLimit,
		PerRunRemaining: max(0, l.budget.PerRunLimit-runCost),
	}
}

// Summarize aggregates history within the trailing windowDays window.
func (l *Ledger) Summarize(windowDays int) Summary {
	if windowDays <= 0 {
		windowDays = 30
	}
	cutoff := l.now().AddDate(0, 0, -windowDays)

	l.mu.RLock()
	recent := make([]Entry, 0, len(l.history))
	for _, e := range l.history {
		if !e.Timestamp.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	runCost := l.runCost
	l.mu.RUnlock()

	s := Summary{
		WindowDays:     windowDays,
		ModelBreakdown: make(map[string]ModelUsage),
		DailyCosts:     make(map[string]float64),
		Budget:         l.Status(),
		CurrentRunCost: runCost,
	}
	if len(recent) == 0 {
		return s
	}

	for _, e := range recent {
		s.TotalCost += e.TotalCost
		usage := s.ModelBreakdown[e.Model]
		usage.Cost += e.TotalCost
		usage.Requests++
		s.ModelBreakdown[e.Model] = usage
		s.DailyCosts[e.Timestamp.Format("2006-01-02")] += e.TotalCost
	}
	s.TotalRequests = len(recent)
	s.AvgDailyCost = s.TotalCost / float64(windowDays)
	s.AvgCostPerRequest = s.TotalCost / float64(s.TotalRequests)
	return s
}

// Suggestions returns heuristic cost-optimization advice derived from
// the last seven days of history. Purely advisory.
func (l *Ledger) Suggestions() []string {
	summary := l.Summarize(7)

	if summary.TotalCost == 0 {
		return []string{"No recent spend recorded. Run a benchmark to start tracking costs."}
	}

	var suggestions []string
	for model, usage := range summary.ModelBreakdown {
		avgCost := usage.Cost / float64(usage.Requests)

		if strings.Contains(strings.ToLower(model), "gpt-4") && avgCost > 0.1 {
			suggestions = append(suggestions, fmt.Sprintf(
				"consider gpt-3.5-turbo instead of %s for development runs (avg $%.3f per request)",
				model, avgCost))
		}
		if usage.Cost > summary.TotalCost*0.5 {
			suggestions = append(suggestions, fmt.Sprintf(
				"%s accounts for %.1f%% of recent spend; consider the mock backend for development",
				model, usage.Cost/summary.TotalCost*100))
		}
	}

	if summary.AvgDailyCost > l.budget.DailyLimit*0.8 {
		suggestions = append(suggestions, fmt.Sprintf(
			"average daily spend $%.2f is approaching the $%.2f daily limit",
			summary.AvgDailyCost, l.budget.DailyLimit))
	}
	if summary.AvgCostPerRequest > 0.01 {
		suggestions = append(suggestions,
			"average cost per request is high; try shorter prompts or a cheaper model")
	}

	if len(suggestions) == 0 {
		return []string{"Spend looks reasonable for the current tier."}
	}
	return suggestions
}

// Save persists the full history through the configured store.
// Best-effort: with no store or a failing store this logs and returns
// the error without affecting in-memory state.
func (l *Ledger) Save() error {
	if l.store == nil {
		return nil
	}

	l.mu.RLock()
	history := make([]Entry, len(l.history))
	copy(history, l.history)
	l.mu.RUnlock()

	if err := l.store.Save(history); err != nil {
		log.Printf("[cost] could not save cost history: %v", err)
		return err
	}
	return nil
}
