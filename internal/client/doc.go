// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides inference backends for rigrun-bench.
//
// Every backend implements the Client capability: submit one prompt,
// get one Outcome back. The benchmark engine depends only on this
// capability and never on a concrete backend.
//
// # Backends
//
//   - OpenAIClient: OpenAI-compatible chat completions over HTTPS
//   - OllamaClient: local Ollama daemon via /api/generate
//   - MockClient: deterministic in-process backend for dry runs
//
// # Usage
//
//	c := client.NewMockClient(nil)
//	outcome := c.Submit(ctx, "What is the capital of France?")
//	if !outcome.Success {
//	    log.Printf("request failed: %s", outcome.Error)
//	}
//
// Submit never panics and never returns a Go error: failures are
// encoded in the Outcome so a benchmark run can account for them
// without aborting.
package client
