// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompts provides test prompt generation for rigrun-bench.
//
// Prompts are grouped into categories (short question-answer, long-form
// writing, code generation), each backed by a built-in template set
// that can be extended from YAML files. The generator produces ordered
// prompt sequences for a benchmark run; ordering is significant because
// prompt index i becomes request id i+1.
package prompts
