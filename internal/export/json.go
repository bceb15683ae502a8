// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/rigrun-bench/internal/bench"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter serializes the complete report, outcomes included, so
// the file is a faithful representation that tooling can re-process.
type JSONExporter struct{}

// Export converts a report to indented JSON.
func (e *JSONExporter) Export(report *bench.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	return json.MarshalIndent(report, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
