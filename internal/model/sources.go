// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// TABLE OF CONTENTS
// =============================================================================

// TOC is the backend's table of contents for indexed books.
type TOC struct {
	Chapters []TOCEntry `json:"toc"`
}

// TOCEntry is a chapter, section or subsection.
type TOCEntry struct {
	Title       string     `json:"title"`
	FromPage    int        `json:"from_page"`
	ToPage      int        `json:"to_page"`
	Subsections []TOCEntry `json:"subsections,omitempty"`
}

// Label renders "Title (Pages a-b)".
func (e TOCEntry) Label() string {
	return fmt.Sprintf("%s (Pages %d-%d)", e.Title, e.FromPage, e.ToPage)
}

// TOCSelection picks a leaf from the TOC. A negative index means unselected.
type TOCSelection struct {
	Chapter    int
	Section    int
	Subsection int
}

// ErrNoChapter is returned when a TOC selection has no chapter.
var ErrNoChapter = errors.New("please select at least a chapter")

// Resolve returns the deepest selected entry: subsection, else section,
// else chapter.
func (t *TOC) Resolve(sel TOCSelection) (TOCEntry, error) {
	if t == nil || sel.Chapter < 0 || sel.Chapter >= len(t.Chapters) {
		return TOCEntry{}, ErrNoChapter
	}
	chapter := t.Chapters[sel.Chapter]
	if sel.Section < 0 || sel.Section >= len(chapter.Subsections) {
		return chapter, nil
	}
	section := chapter.Subsections[sel.Section]
	if sel.Subsection < 0 || sel.Subsection >= len(section.Subsections) {
		return section, nil
	}
	return section.Subsections[sel.Subsection], nil
}

// =============================================================================
// INDEXED BOOKS AND SOURCES
// =============================================================================

// IndexedBook lists the chapters indexed for one file.
type IndexedBook struct {
	FileName     string   `json:"file_name"`
	ChapterNames []string `json:"chapter_names"`
}

// Source is an ingested note or image known to the backend.
type Source struct {
	ID          SourceID `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// SourceID accepts either a string or a numeric id from the backend.
type SourceID string

// UnmarshalJSON decodes a string or number.
func (id *SourceID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = SourceID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid source id %s: %w", data, err)
	}
	*id = SourceID(s)
	return nil
}

// IsImage reports whether the source title is an image URL.
func (s Source) IsImage() bool {
	if s.Type == "image" {
		return true
	}
	lower := strings.ToLower(s.Title)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
