// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves a read-only preview of the current course document.
//
// # Endpoints
//
//   - GET /                - HTML rendering of the document
//   - GET /api/document    - the document as JSON
//   - GET /api/rows        - the table projection, one row per subtopic
//   - GET /api/parts/{id}  - a single subtopic with its row position
//   - GET /health          - version, storage backend and request counters
//
// Nothing here mutates the store. Requests pass through recovery, security
// headers, zap request logging and a per-client token bucket.
//
// # Usage
//
//	srv := server.NewServer(st, 0, server.WithLogger(log))
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
