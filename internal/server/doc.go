// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes benchmark telemetry over HTTP.
//
// Endpoints:
//   - GET /metrics - Prometheus exposition of the metrics sink
//   - GET /health  - liveness check
//   - GET /stats   - JSON summary of request counters and budget status
//
// The server is read-only: it scrapes state owned by the metrics sink
// and cost ledger, which stay safe for concurrent benchmark traffic.
package server
