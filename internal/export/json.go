// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"

	"github.com/jeranaias/coursedeck/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the document exactly as it is persisted, so the file
// can be loaded back with model.ParseDocument. Options are ignored.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a document to indented JSON. An empty document is
// allowed.
func (e *JSONExporter) Export(doc *model.Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
