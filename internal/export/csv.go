// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jeranaias/rigrun-bench/internal/bench"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

var csvHeader = []string{
	"request_id", "prompt", "response", "success", "error",
	"latency", "input_tokens", "output_tokens", "total_tokens", "model",
}

// CSVExporter flattens a report to one row per request. Run-level
// statistics are not included; the JSON exporter carries those.
type CSVExporter struct{}

// Export converts a report's outcomes to CSV.
func (e *CSVExporter) Export(report *bench.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		row := []string{
			strconv.Itoa(o.RequestID),
			o.Prompt,
			o.Response,
			strconv.FormatBool(o.Success),
			o.Error,
			strconv.FormatFloat(o.Latency, 'f', -1, 64),
			strconv.Itoa(o.InputTokens),
			strconv.Itoa(o.OutputTokens),
			strconv.Itoa(o.TotalTokens),
			o.Model,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", o.RequestID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for CSV.
func (e *CSVExporter) FileExtension() string {
	return ".csv"
}

// MimeType returns the MIME type for CSV.
func (e *CSVExporter) MimeType() string {
	return "text/csv"
}
