// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export serializes benchmark run reports to disk.
//
// Exporters convert a RunReport into a concrete format: JSON preserves
// the full nested report for re-processing, CSV flattens one row per
// request for spreadsheet analysis, and Markdown renders a
// human-readable summary. A Writer pairs an exporter with an output
// directory and writes files atomically.
package export
