// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for course documents.
//
// This package defines the core domain types shared by the API client, the
// store and the renderers.
//
// # Key Types
//
//   - Document: Main topic plus the ordered list of competencies
//   - Competency: A named group of subtopics
//   - Part: A subtopic, the unit shown as one table row
//   - Doc: A document the backend matched to a subtopic
//   - SlideDeck: Generated slide content for a subtopic or a summary
//
// # Usage
//
// Decode a backend response and assign stable identifiers:
//
//	doc, err := model.ParseDocument(raw)
//	doc.AssignIDs()
//	for _, c := range doc.Competencies {
//	    fmt.Println(c.Name, len(c.Parts))
//	}
package model
