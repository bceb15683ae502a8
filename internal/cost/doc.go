// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cost provides cost tracking and budget enforcement for
// benchmark runs.
//
// The Ledger prices individual requests from a per-model pricing table
// (per 1K tokens), records actual spend into an append-only history,
// tracks per-day and per-run running totals, and answers pre-flight
// affordability checks against a budget tier. History persistence is
// best-effort through an optional SQLite-backed Store; a Ledger with
// no store works entirely in memory.
package cost
