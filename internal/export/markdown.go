// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/rigrun-bench/internal/bench"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a human-readable run summary. Per-request
// detail beyond the error breakdown is left to the JSON and CSV forms.
type MarkdownExporter struct{}

// Export converts a report to a Markdown summary.
func (e *MarkdownExporter) Export(report *bench.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Benchmark Report: %s\n\n", report.Name)
	fmt.Fprintf(&b, "- **Run ID:** %s\n", report.RunID)
	fmt.Fprintf(&b, "- **Model:** %s\n", report.Model)
	fmt.Fprintf(&b, "- **Started:** %s\n", report.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration:** %.2fs\n\n", report.DurationSeconds)

	b.WriteString("## Results\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Requests | %d |\n", report.TotalRequests)
	fmt.Fprintf(&b, "| Successful | %d |\n", report.Successful)
	fmt.Fprintf(&b, "| Failed | %d |\n", report.Failed)
	fmt.Fprintf(&b, "| Success rate | %.1f%% |\n", report.SuccessRate*100)
	fmt.Fprintf(&b, "| Throughput | %.2f req/s |\n", report.RequestsPerSecond)
	fmt.Fprintf(&b, "| Total tokens | %d |\n\n", report.TotalTokens)

	b.WriteString("## Latency (successful requests)\n\n")
	b.WriteString("| Min | Median | Mean | P95 | Max |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %.3fs | %.3fs | %.3fs | %.3fs | %.3fs |\n\n",
		report.MinLatency, report.MedianLatency, report.AvgLatency,
		report.P95Latency, report.MaxLatency)

	b.WriteString("## Cost\n\n")
	fmt.Fprintf(&b, "- **Total:** $%.4f\n", report.TotalCost)
	fmt.Fprintf(&b, "- **Per request:** $%.6f\n\n", report.AvgCostPerRequest)

	if len(report.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		messages := make([]string, 0, len(report.Errors))
		for msg := range report.Errors {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		for _, msg := range messages {
			fmt.Fprintf(&b, "- `%s` x%d\n", msg, report.Errors[msg])
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
