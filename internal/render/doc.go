// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render projects a course document into presentation values.
//
// Nothing in this package mutates the store. The table rows, the docs view
// and the slide navigator are recomputed from a document snapshot whenever
// the caller needs them, so a refreshed subtopic only needs RowFor to be
// called again for its position.
package render
