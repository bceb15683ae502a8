// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigrun-bench command line interface.
//
// Commands:
//   - run       execute a benchmark run
//   - estimate  pre-flight cost estimate for a planned run
//   - cost      spend summary and optimization suggestions
//   - prompts   inspect or generate benchmark prompts
//   - serve     expose the metrics endpoint over HTTP
//   - version   print build information
package cli
