// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics accumulates per-request telemetry for benchmark runs
// in Prometheus form.
//
// Each Sink owns a private registry, so multiple sinks can coexist in
// one process (one per engine instance, one per test) without metric
// name collisions. Counters are labeled by model, prompt category, and
// outcome; failed requests additionally get a coarse error kind derived
// from the raw error message by substring heuristics. The heuristics
// are lossy on purpose: exact error text lives in the run report's
// error histogram, not here.
package metrics
