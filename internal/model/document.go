// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is the parsed competency/subtopic tree for one upload.
type Document struct {
	MainTopic    string       `json:"main_topic"`
	Competencies []Competency `json:"competencies"`
}

// Competency groups subtopics under the main topic. Order is meaningful.
type Competency struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

// Part is a subtopic, the addressable unit of work in the table.
type Part struct {
	ID                     string    `json:"id,omitempty"`
	Name                   string    `json:"name"`
	RelevantDocs           []Doc     `json:"relevant_docs"`
	Links                  []string  `json:"links,omitempty"`
	AugmentedInfo          string    `json:"augmented_info,omitempty"`
	Images                 []FileRef `json:"images,omitempty"`
	AttachmentsFromGallery []string  `json:"attachments_from_gallery,omitempty"`
	Summary                *Summary  `json:"summary,omitempty"`
	SelectedDocs           []Doc     `json:"selected_docs,omitempty"`
}

// Summary is recorded after slide generation and feeds the summary slide.
type Summary struct {
	Text string `json:"text"`
}

// Doc is a document matched to a subtopic.
type Doc struct {
	PageContent string      `json:"page_content"`
	Score       float64     `json:"score"`
	Metadata    DocMetadata `json:"metadata"`
}

// DocMetadata holds where a matched document came from.
type DocMetadata struct {
	Source string `json:"source"`
}

// FileRef references a desktop file attached to a subtopic.
type FileRef struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// =============================================================================
// DECODING
// =============================================================================

// UnmarshalJSON accepts both "Main Topic" (buffered extraction) and
// "main_topic" (streamed extraction and persisted copies).
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		MainTopic    string       `json:"main_topic"`
		MainTopicAlt string       `json:"Main Topic"`
		Competencies []Competency `json:"competencies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.MainTopic = raw.MainTopic
	if d.MainTopic == "" {
		d.MainTopic = raw.MainTopicAlt
	}
	d.Competencies = raw.Competencies
	if d.Competencies == nil {
		d.Competencies = []Competency{}
	}
	return nil
}

// ParseDocument decodes a document from JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// NewID returns a fresh synthetic identifier.
func NewID() string {
	return uuid.NewString()
}

// AssignIDs gives every competency and part without an ID a new one.
// Existing IDs are kept.
func (d *Document) AssignIDs() {
	for ci := range d.Competencies {
		d.Competencies[ci].AssignIDs()
	}
}

// AssignIDs gives the competency and its parts IDs where missing.
func (c *Competency) AssignIDs() {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Parts == nil {
		c.Parts = []Part{}
	}
	for pi := range c.Parts {
		c.Parts[pi].Normalize()
	}
}

// Normalize assigns an ID if missing and replaces a nil doc list with an
// empty one so persisted copies compare equal after a round trip.
func (p *Part) Normalize() {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.RelevantDocs == nil {
		p.RelevantDocs = []Doc{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{MainTopic: d.MainTopic, Competencies: make([]Competency, len(d.Competencies))}
	for i, c := range d.Competencies {
		out.Competencies[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the competency.
func (c Competency) Clone() Competency {
	out := Competency{ID: c.ID, Name: c.Name, Parts: make([]Part, len(c.Parts))}
	for i, p := range c.Parts {
		out.Parts[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the part.
func (p Part) Clone() Part {
	out := p
	out.RelevantDocs = cloneSlice(p.RelevantDocs)
	out.Links = cloneSlice(p.Links)
	out.Images = cloneSlice(p.Images)
	out.AttachmentsFromGallery = cloneSlice(p.AttachmentsFromGallery)
	out.SelectedDocs = cloneSlice(p.SelectedDocs)
	if p.Summary != nil {
		s := *p.Summary
		out.Summary = &s
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// PartCount returns the total number of subtopics.
func (d *Document) PartCount() int {
	n := 0
	for _, c := range d.Competencies {
		n += len(c.Parts)
	}
	return n
}

// Locate finds a part by ID and returns its competency and part indices.
func (d *Document) Locate(partID string) (int, int, bool) {
	for ci, c := range d.Competencies {
		for pi, p := range c.Parts {
			if p.ID == partID {
				return ci, pi, true
			}
		}
	}
	return -1, -1, false
}

// PrimaryLink returns the first external link or "".
func (p *Part) PrimaryLink() string {
	if len(p.Links) == 0 {
		return ""
	}
	return p.Links[0]
}

// TextContents returns the page contents used for slide generation.
// A non-empty SelectedDocs list takes precedence over RelevantDocs.
func (p *Part) TextContents() []string {
	docs := p.RelevantDocs
	if len(p.SelectedDocs) > 0 {
		docs = p.SelectedDocs
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.PageContent)
	}
	return out
}

// AttachmentCount is the number of desktop files plus gallery URLs.
func (p *Part) AttachmentCount() int {
	return len(p.Images) + len(p.AttachmentsFromGallery)
}

// IsLink reports whether the doc came from the web rather than a book.
func (d Doc) IsLink() bool {
	return strings.HasPrefix(d.Metadata.Source, "http")
}

// Stars returns round(score) clamped to [1, 5].
func (d Doc) Stars() int {
	return StarsFor(d.Score)
}

// MaxStars is the number of stars in a relevance rating.
const MaxStars = 5

// StarsFor returns round(score) clamped to [1, MaxStars].
func StarsFor(score float64) int {
	if math.IsNaN(score) {
		return 1
	}
	n := int(math.Round(score))
	return max(1, min(MaxStars, n))
}
