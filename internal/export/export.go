// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/coursedeck/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a course document into one output format.
type Exporter interface {
	// Export converts the document and returns the content.
	Export(doc *model.Document) ([]byte, error)

	// FileExtension returns the file extension (e.g., ".md", ".xlsx").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrEmptyDocument is returned when there is nothing to export.
var ErrEmptyDocument = errors.New("document has no competencies")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds a metadata header (export time, counts).
	IncludeMetadata bool

	// IncludeDocs lists every supporting document under its subtopic.
	IncludeDocs bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string

	// Now stamps the metadata header. Default: time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		IncludeDocs:     true,
		Theme:           "dark",
		Now:             time.Now,
	}
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// =============================================================================
// FORMATS
// =============================================================================

// Formats lists the accepted format names.
var Formats = []string{"markdown", "html", "json", "yaml", "xlsx"}

// ForFormat returns the exporter for a format name. Common aliases such as
// "md" and "yml" are accepted.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	case "xlsx", "excel":
		return NewXLSXExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of: %s)", format, strings.Join(Formats, ", "))
	}
}

func checkDocument(doc *model.Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if len(doc.Competencies) == 0 {
		return ErrEmptyDocument
	}
	return nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a document to a file using the specified exporter.
// Returns the output file path or an error.
func ExportToFile(doc *model.Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := opts.now().Format("20060102_150405")
	filename := fmt.Sprintf("course_%s_%s%s",
		sanitizeFilename(doc.MainTopic),
		timestamp,
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal - file was still created successfully
			fmt.Fprintf(os.Stderr, "Warning: could not open file: %v\n", err)
		}
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "untitled"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
