// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/jeranaias/rigrun-bench/internal/client"
)

// =============================================================================
// SINK
// =============================================================================

// latencyBuckets are the histogram boundaries in seconds. Benchmark
// latencies span fast mock calls to minute-long local generations.
var latencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}

// Sink accumulates request telemetry into a private Prometheus
// registry. All methods are safe for concurrent use by pooled workers;
// the client library guarantees per-metric atomicity, so no sink-wide
// lock is needed.
type Sink struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	failures       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	tokens         *prometheus.CounterVec
	activeRequests *prometheus.GaugeVec
}

// NewSink creates a sink with a fresh registry.
func NewSink() *Sink {
	registry := prometheus.NewRegistry()

	s := &Sink{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM requests.",
		}, []string{"model", "prompt_type", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_failure_count",
			Help: "Total number of failed LLM requests.",
		}, []string{"model", "prompt_type", "error_type"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_latency_seconds",
			Help:    "LLM request latency in seconds.",
			Buckets: latencyBuckets,
		}, []string{"model", "prompt_type"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total number of tokens processed.",
		}, []string{"model", "prompt_type"}),
		activeRequests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llm_active_requests",
			Help: "Number of currently active requests.",
		}, []string{"model"}),
	}

	registry.MustRegister(s.requests, s.failures, s.latency, s.tokens, s.activeRequests)
	return s
}

// Registry exposes the sink's registry for HTTP scraping handlers.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Record submits one outcome. Latency and token counters only advance
// for successes; failures additionally increment the categorized
// failure counter.
func (s *Sink) Record(outcome *client.Outcome, category string) {
	if category == "" {
		category = InferCategory(outcome.Prompt)
	}
	status := "success"
	if !outcome.Success {
		status = "failure"
	}

	s.requests.WithLabelValues(outcome.Model, category, status).Inc()

	if outcome.Success {
		s.latency.WithLabelValues(outcome.Model, category).Observe(outcome.Latency)
		if outcome.TotalTokens > 0 {
			s.tokens.WithLabelValues(outcome.Model, category).Add(float64(outcome.TotalTokens))
		}
		return
	}

	if kind := CategorizeError(outcome.Error); kind != "" {
		s.failures.WithLabelValues(outcome.Model, category, string(kind)).Inc()
	}
}

// RequestStarted marks a request in flight.
func (s *Sink) RequestStarted(model string) {
	s.activeRequests.WithLabelValues(model).Inc()
}

// RequestFinished marks a request done.
func (s *Sink) RequestFinished(model string) {
	s.activeRequests.WithLabelValues(model).Dec()
}

// Snapshot renders the registry in Prometheus text exposition format.
func (s *Sink) Snapshot() (string, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return "", fmt.Errorf("failed to encode metric family: %w", err)
		}
	}
	return buf.String(), nil
}

// Stats is a live summary of the sink's headline counters.
type Stats struct {
	TotalRequests  float64 `json:"total_requests"`
	TotalFailures  float64 `json:"total_failures"`
	ActiveRequests float64 `json:"active_requests"`
}

// CurrentStats sums the headline counters across all label sets.
func (s *Sink) CurrentStats() Stats {
	var stats Stats

	families, err := s.registry.Gather()
	if err != nil {
		return stats
	}

	for _, family := range families {
		switch family.GetName() {
		case "llm_requests_total":
			for _, m := range family.GetMetric() {
				stats.TotalRequests += m.GetCounter().GetValue()
			}
		case "llm_failure_count":
			for _, m := range family.GetMetric() {
				stats.TotalFailures += m.GetCounter().GetValue()
			}
		case "llm_active_requests":
			for _, m := range family.GetMetric() {
				stats.ActiveRequests += m.GetGauge().GetValue()
			}
		}
	}
	return stats
}
