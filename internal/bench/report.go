// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bench

import (
	"time"

	"github.com/jeranaias/rigrun-bench/internal/client"
	"github.com/jeranaias/rigrun-bench/internal/cost"
)

// =============================================================================
// RUN REPORT
// =============================================================================

// RunReport is the terminal artifact of one benchmark run. Immutable
// once returned by the Runner.
type RunReport struct {
	RunID           string    `json:"run_id"`
	Name            string    `json:"name"`
	Model           string    `json:"model"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`

	TotalRequests int     `json:"total_requests"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	SuccessRate   float64 `json:"success_rate"`

	// Latency statistics over successful requests only; all 0 when
	// every request failed.
	MinLatency    float64 `json:"min_latency"`
	MaxLatency    float64 `json:"max_latency"`
	AvgLatency    float64 `json:"avg_latency"`
	MedianLatency float64 `json:"median_latency"`
	P95Latency    float64 `json:"p95_latency"`

	TotalTokens       int     `json:"total_tokens"`
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Errors counts failures by literal error message.
	Errors map[string]int `json:"errors,omitempty"`

	// Outcomes holds every request's result, sorted by RequestID.
	Outcomes []client.Outcome `json:"outcomes"`

	TotalCost         float64       `json:"total_cost"`
	AvgCostPerRequest float64       `json:"avg_cost_per_request"`
	CostSnapshot      *cost.Summary `json:"cost_snapshot,omitempty"`
}

// aggregate fills the statistics fields from the sorted outcomes.
func (r *RunReport) aggregate() {
	r.TotalRequests = len(r.Outcomes)
	r.Errors = make(map[string]int)

	var latencies []float64
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		if o.Success {
			r.Successful++
			r.TotalTokens += o.TotalTokens
			latencies = append(latencies, o.Latency)
		} else {
			r.Failed++
			r.Errors[o.Error]++
		}
	}

	if r.TotalRequests > 0 {
		r.SuccessRate = float64(r.Successful) / float64(r.TotalRequests)
	}
	if r.DurationSeconds > 0 {
		r.RequestsPerSecond = float64(r.TotalRequests) / r.DurationSeconds
	}
	if len(r.Errors) == 0 {
		r.Errors = nil
	}

	if len(latencies) == 0 {
		return
	}
	var sum float64
	r.MinLatency = latencies[0]
	r.MaxLatency = latencies[0]
	for _, l := range latencies {
		sum += l
		if l < r.MinLatency {
			r.MinLatency = l
		}
		if l > r.MaxLatency {
			r.MaxLatency = l
		}
	}
	r.AvgLatency = sum / float64(len(latencies))
	r.MedianLatency = Percentile(latencies, 50)
	r.P95Latency = Percentile(latencies, 95)
}
