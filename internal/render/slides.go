// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/jeranaias/coursedeck/internal/model"
)

// SlideMode is how the slide popup presents a deck.
type SlideMode int

const (
	ModeOutline SlideMode = iota
	ModeSlideshow
)

// String returns the mode name.
func (m SlideMode) String() string {
	if m == ModeSlideshow {
		return "slideshow"
	}
	return "outline"
}

// Navigator walks a slide deck one slide at a time.
type Navigator struct {
	deck  *model.SlideDeck
	index int
	mode  SlideMode
}

// NewNavigator starts at the first slide in outline mode.
func NewNavigator(deck *model.SlideDeck) *Navigator {
	if deck == nil {
		deck = &model.SlideDeck{}
	}
	return &Navigator{deck: deck}
}

// Deck returns the deck being navigated.
func (n *Navigator) Deck() *model.SlideDeck { return n.deck }

// Len is the number of slides.
func (n *Navigator) Len() int { return len(n.deck.Slides) }

// Index is the current slide index.
func (n *Navigator) Index() int { return n.index }

// Mode returns the presentation mode.
func (n *Navigator) Mode() SlideMode { return n.mode }

// SetMode switches between outline and slideshow.
func (n *Navigator) SetMode(m SlideMode) { n.mode = m }

// Toggle flips the mode and returns the new one.
func (n *Navigator) Toggle() SlideMode {
	if n.mode == ModeOutline {
		n.mode = ModeSlideshow
	} else {
		n.mode = ModeOutline
	}
	return n.mode
}

// CanPrev is false on the first slide.
func (n *Navigator) CanPrev() bool { return n.index > 0 }

// CanNext is false on the last slide.
func (n *Navigator) CanNext() bool { return n.index < n.Len()-1 }

// Next moves forward one slide if possible.
func (n *Navigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.index++
	return true
}

// Prev moves back one slide if possible.
func (n *Navigator) Prev() bool {
	if !n.CanPrev() {
		return false
	}
	n.index--
	return true
}

// Current returns the current slide.
func (n *Navigator) Current() (model.Slide, bool) {
	if n.Len() == 0 {
		return model.Slide{}, false
	}
	return n.deck.Slides[n.index], true
}

// Position is the "i / n" indicator.
func (n *Navigator) Position() string {
	if n.Len() == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", n.index+1, n.Len())
}

// Markdown renders the view for the current mode: the whole outline, or the
// current slide alone.
func (n *Navigator) Markdown() string {
	if n.mode == ModeOutline {
		return Outline(n.deck)
	}
	s, ok := n.Current()
	if !ok {
		return "_No slides._\n"
	}
	return SlideMarkdown(s)
}

// Outline renders every slide of deck as markdown.
func Outline(deck *model.SlideDeck) string {
	if deck == nil || len(deck.Slides) == 0 {
		return "_No slides._\n"
	}
	return deck.Outline()
}

// SlideMarkdown renders one slide.
func SlideMarkdown(s model.Slide) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	for _, sec := range s.Content {
		if sec.Heading != "" {
			fmt.Fprintf(&b, "## %s\n\n", sec.Heading)
		}
		for _, bp := range sec.BulletPoints {
			fmt.Fprintf(&b, "- %s\n", bp)
		}
		b.WriteString("\n")
	}
	return b.String()
}
