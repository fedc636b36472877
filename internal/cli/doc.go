// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the coursedeck command line.
//
// The command tree is built with cobra. Every command works against the
// same lazily opened App: config, logger, API client, storage backend,
// store and course service. Running coursedeck with no arguments on a
// terminal opens the interactive table from package ui.
//
// # Commands Overview
//
// Course Commands:
//   - upload: extract competencies and subtopics from source files
//   - show: print the subtopic table
//   - refresh, refresh-all: search the backend again for documents
//   - augment: generate or set a subtopic's augmented context
//   - docs, delete-doc, select-docs: inspect and curate matched documents
//   - add: add a subtopic by name
//   - attach, detach: manage desktop files and gallery images
//   - slides, summary: generate slide decks
//
// Backend Commands:
//   - sources, images, toc, chapters
//
// Tool Commands:
//   - export, serve, watch, tui, clear, logs, config, version
//
// # Output
//
// With --json every command prints exactly one JSONResponse envelope to
// stdout, errors included. Progress lines go to stderr. Exit codes are
// listed in errors.go.
package cli
