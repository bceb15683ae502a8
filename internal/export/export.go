// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jeranaias/rigrun-bench/internal/bench"
	"github.com/jeranaias/rigrun-bench/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a run report to a serialized format.
type Exporter interface {
	// Export renders the report and returns the file content.
	Export(report *bench.RunReport) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".json").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ForFormat returns the exporter for a format name ("json", "csv",
// "markdown").
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "json", "":
		return &JSONExporter{}, nil
	case "csv":
		return &CSVExporter{}, nil
	case "markdown", "md":
		return &MarkdownExporter{}, nil
	}
	return nil, fmt.Errorf("unknown export format: %q", format)
}

// =============================================================================
// WRITER
// =============================================================================

// Writer persists reports through an exporter into an output
// directory. It implements the engine's report writer interface.
type Writer struct {
	Exporter  Exporter
	OutputDir string
}

// NewWriter creates a writer. An empty outputDir means "results".
func NewWriter(exporter Exporter, outputDir string) *Writer {
	if outputDir == "" {
		outputDir = "results"
	}
	return &Writer{Exporter: exporter, OutputDir: outputDir}
}

// WriteReport serializes the report and writes it atomically to
// <outputDir>/<name>_<timestamp><ext>, returning the path.
func (w *Writer) WriteReport(report *bench.RunReport) (string, error) {
	content, err := w.Exporter.Export(report)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s",
		sanitizeFilename(report.Name),
		time.Now().Format("20060102_150405"),
		w.Exporter.FileExtension(),
	)
	path := filepath.Join(w.OutputDir, filename)

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// sanitizeFilename replaces characters that are invalid in filenames
// on Windows or Unix and truncates overlong names.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	replacer := map[rune]rune{
		'/': '-', '\\': '-', ':': '-', '*': '-', '?': '-',
		'"': '-', '<': '-', '>': '-', '|': '-',
		' ': '_', '\t': '_', '\n': '_', '\r': '_',
	}

	var result []rune
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "benchmark"
	}
	return string(result)
}
