// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SlideDeck is the generated slide content for a subtopic or a summary.
type SlideDeck struct {
	Slides          []Slide         `json:"slides"`
	Quiz            json.RawMessage `json:"quiz,omitempty"`
	CaseBased       json.RawMessage `json:"case_based,omitempty"`
	Blooms          json.RawMessage `json:"blooms,omitempty"`
	Images          []string        `json:"images,omitempty"`
	PresentationURL string          `json:"presentation_url,omitempty"`
}

// Slide is one slide of a deck.
type Slide struct {
	Title   string         `json:"title"`
	Content []SlideSection `json:"content"`
}

// SlideSection is a heading with its bullet points.
type SlideSection struct {
	Heading      string   `json:"heading"`
	BulletPoints []string `json:"bullet_points"`
}

// ParseSlideDeck decodes a slide deck. The backend returns the deck either
// as an object or as a JSON string containing the object.
func ParseSlideDeck(data []byte) (*SlideDeck, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("failed to decode slide string: %w", err)
		}
		data = []byte(inner)
	}
	var deck SlideDeck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("failed to decode slide deck: %w", err)
	}
	return &deck, nil
}

// SummaryText joins the bullet points of the first slide. It is recorded on
// the part after slide generation.
func (d *SlideDeck) SummaryText() string {
	if d == nil || len(d.Slides) == 0 {
		return ""
	}
	var parts []string
	for _, sec := range d.Slides[0].Content {
		parts = append(parts, sec.BulletPoints...)
	}
	return strings.Join(parts, " ")
}

// Outline renders the deck as markdown.
func (d *SlideDeck) Outline() string {
	var b strings.Builder
	for i, s := range d.Slides {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, s.Title)
		for _, sec := range s.Content {
			if sec.Heading != "" {
				fmt.Fprintf(&b, "### %s\n\n", sec.Heading)
			}
			for _, bp := range sec.BulletPoints {
				fmt.Fprintf(&b, "- %s\n", bp)
			}
			b.WriteString("\n")
		}
	}
	if d.PresentationURL != "" {
		fmt.Fprintf(&b, "[Open presentation](%s)\n", d.PresentationURL)
	}
	return b.String()
}
