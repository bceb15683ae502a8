// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bench is the benchmark engine: it owns the run lifecycle
// from pre-flight budget check through dispatch, aggregation, cost
// reconciliation, and report handoff.
//
// A Runner binds an inference client, a prompt source, a cost ledger,
// and an optional metrics sink and report writer. Run executes one
// benchmark against an immutable RunConfig and returns a RunReport.
// Per-request failures never abort a run; only setup and budget errors
// do.
package bench
