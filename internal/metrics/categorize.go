// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import "strings"

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind is a coarse failure classification used as a metric label.
type ErrorKind string

const (
	ErrorRateLimit ErrorKind = "rate_limit"
	ErrorTimeout   ErrorKind = "timeout"
	ErrorAPI       ErrorKind = "api_error"
	ErrorNetwork   ErrorKind = "network_error"
	ErrorAuth      ErrorKind = "auth_error"
	ErrorUnknown   ErrorKind = "unknown_error"
)

// CategorizeError maps a raw error message to an ErrorKind by substring
// matching. Empty messages return the empty kind.
func CategorizeError(message string) ErrorKind {
	if message == "" {
		return ""
	}
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "rate limit"):
		return ErrorRateLimit
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return ErrorTimeout
	case strings.Contains(lower, "api") && (strings.Contains(lower, "error") || strings.Contains(lower, "invalid")):
		return ErrorAPI
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection"):
		return ErrorNetwork
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
		return ErrorAuth
	default:
		return ErrorUnknown
	}
}

// =============================================================================
// CATEGORY INFERENCE
// =============================================================================

// InferCategory guesses a prompt's category from its text for metric
// labeling. Best effort only; it never affects report contents.
func InferCategory(prompt string) string {
	if prompt == "" {
		return "unknown"
	}
	lower := strings.ToLower(prompt)

	if containsAny(lower, "write", "essay", "explain", "describe", "analysis") && len(prompt) > 200 {
		return "long_form"
	}
	if containsAny(lower, "function", "code", "python", "javascript", "sql", "script", "class") {
		return "code_generation"
	}
	if len(prompt) < 100 && strings.Contains(prompt, "?") {
		return "short_qa"
	}
	if len(prompt) > 200 {
		return "long_form"
	}
	if containsAny(lower, "write", "create", "implement") {
		return "code_generation"
	}
	return "short_qa"
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
