// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support.
//
// Every command accepts --json and then prints one JSONResponse envelope
// to stdout. Human-readable progress goes to stderr in that mode.

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope printed by every command in JSON mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// ErrorType classifies a failure, e.g. "validation_error"
	ErrorType string `json:"error_type,omitempty"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// Bytes returns the indented encoding.
func (r *JSONResponse) Bytes() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// UploadData is returned by upload and by each watch ingestion.
type UploadData struct {
	Title        string   `json:"title"`
	Competencies int      `json:"competencies"`
	Subtopics    int      `json:"subtopics"`
	Unknown      int      `json:"unknown_events"`
	Streamed     bool     `json:"streamed"`
	Files        []string `json:"files"`
}

// RowData is one table row.
type RowData struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	Competency  string `json:"competency"`
	Subtopic    string `json:"subtopic"`
	Matches     int    `json:"matches"`
	State       string `json:"state"`
	Attachments int    `json:"attachments"`
	Flags       string `json:"flags,omitempty"`
}

// RefreshAllData summarises a bulk refresh.
type RefreshAllData struct {
	Refreshed int       `json:"refreshed"`
	Total     int       `json:"total"`
	Failed    []RowData `json:"failed,omitempty"`
}

// AttachmentsData lists the attachments of one subtopic.
type AttachmentsData struct {
	ID          string   `json:"id"`
	Files       []string `json:"files"`
	GalleryURLs []string `json:"gallery_urls"`
	Count       int      `json:"count"`
}

// ExportData is returned by export.
type ExportData struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

// VersionData is returned by version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
