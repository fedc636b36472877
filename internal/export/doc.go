// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a course document out of coursedeck.
//
// # Key Types
//
//   - Exporter: one output format
//   - Options: export configuration options
//
// # Supported Formats
//
//   - Markdown: human-readable outline with documents and summaries
//   - HTML: the Markdown rendered with goldmark inside a styled page
//   - JSON: the document exactly as stored
//   - YAML: the same tree for hand editing
//   - XLSX: a Subtopics sheet and a Documents sheet
//
// # Usage
//
//	exp, err := export.ForFormat("xlsx", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(store.Get(), exp, opts)
package export
