// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/coursedeck/internal/model"
)

func deck(n int) *model.SlideDeck {
	d := &model.SlideDeck{}
	for i := 0; i < n; i++ {
		d.Slides = append(d.Slides, model.Slide{
			Title:   string(rune('A' + i)),
			Content: []model.SlideSection{{Heading: "h", BulletPoints: []string{"b1", "b2"}}},
		})
	}
	return d
}

func TestNavigator_Bounds(t *testing.T) {
	n := NewNavigator(deck(3))
	assert.False(t, n.CanPrev())
	assert.True(t, n.CanNext())
	assert.False(t, n.Prev())

	assert.True(t, n.Next())
	assert.True(t, n.Next())
	assert.False(t, n.CanNext())
	assert.False(t, n.Next())
	assert.Equal(t, 2, n.Index())
	assert.Equal(t, "3 / 3", n.Position())

	s, ok := n.Current()
	assert.True(t, ok)
	assert.Equal(t, "C", s.Title)
}

func TestNavigator_Empty(t *testing.T) {
	n := NewNavigator(nil)
	assert.False(t, n.CanPrev())
	assert.False(t, n.CanNext())
	_, ok := n.Current()
	assert.False(t, ok)
	assert.Equal(t, "0 / 0", n.Position())
	assert.Contains(t, n.Markdown(), "No slides")
}

func TestNavigator_Modes(t *testing.T) {
	n := NewNavigator(deck(2))
	assert.Equal(t, ModeOutline, n.Mode())
	out := n.Markdown()
	assert.Contains(t, out, "## 1. A")
	assert.Contains(t, out, "## 2. B")

	assert.Equal(t, ModeSlideshow, n.Toggle())
	one := n.Markdown()
	assert.Contains(t, one, "# A")
	assert.NotContains(t, one, "B")
	assert.Contains(t, one, "- b1")
}
