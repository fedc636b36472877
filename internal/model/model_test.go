// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DOC CLASSIFICATION TESTS
// =============================================================================

func TestDoc_IsLink(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://x.com/a", true},
		{"http://example.org", true},
		{"book.pdf#p3", false},
		{"", false},
		{"notes/http.txt", false},
	}

	for _, tc := range tests {
		t.Run(tc.source, func(t *testing.T) {
			d := Doc{Metadata: DocMetadata{Source: tc.source}}
			if got := d.IsLink(); got != tc.want {
				t.Errorf("IsLink(%q) = %v, want %v", tc.source, got, tc.want)
			}
		})
	}
}

func TestStarsFor(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{4.6, 5},
		{0.2, 1},
		{3.0, 3},
		{2.5, 3},
		{9.1, 5},
		{-1, 1},
	}

	for _, tc := range tests {
		if got := StarsFor(tc.score); got != tc.want {
			t.Errorf("StarsFor(%v) = %d, want %d", tc.score, got, tc.want)
		}
	}
}

// =============================================================================
// DOCUMENT TESTS
// =============================================================================

func TestParseDocument_MainTopicVariants(t *testing.T) {
	buffered, err := ParseDocument([]byte(`{"Main Topic":"Cardiology","competencies":[{"name":"A","parts":[{"name":"p1"}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", buffered.MainTopic)
	require.Len(t, buffered.Competencies, 1)
	assert.Equal(t, "p1", buffered.Competencies[0].Parts[0].Name)

	streamed, err := ParseDocument([]byte(`{"main_topic":"Renal"}`))
	require.NoError(t, err)
	assert.Equal(t, "Renal", streamed.MainTopic)
	assert.NotNil(t, streamed.Competencies)
}

func TestAssignIDs_KeepsExisting(t *testing.T) {
	doc := &Document{Competencies: []Competency{
		{ID: "c1", Name: "A", Parts: []Part{{ID: "p1", Name: "x"}, {Name: "y"}}},
		{Name: "B"},
	}}
	doc.AssignIDs()

	assert.Equal(t, "c1", doc.Competencies[0].ID)
	assert.Equal(t, "p1", doc.Competencies[0].Parts[0].ID)
	assert.NotEmpty(t, doc.Competencies[0].Parts[1].ID)
	assert.NotEmpty(t, doc.Competencies[1].ID)
	assert.NotNil(t, doc.Competencies[1].Parts)
	assert.NotEqual(t, doc.Competencies[0].Parts[1].ID, doc.Competencies[1].ID)
}

func TestClone_IsDeep(t *testing.T) {
	doc := &Document{MainTopic: "T", Competencies: []Competency{
		{ID: "c", Parts: []Part{{ID: "p", RelevantDocs: []Doc{{PageContent: "a"}}, Summary: &Summary{Text: "s"}}}},
	}}
	cp := doc.Clone()
	cp.Competencies[0].Parts[0].RelevantDocs[0].PageContent = "changed"
	cp.Competencies[0].Parts[0].Summary.Text = "changed"

	assert.Equal(t, "a", doc.Competencies[0].Parts[0].RelevantDocs[0].PageContent)
	assert.Equal(t, "s", doc.Competencies[0].Parts[0].Summary.Text)
}

func TestLocate(t *testing.T) {
	doc := &Document{Competencies: []Competency{
		{Parts: []Part{{ID: "a"}}},
		{Parts: []Part{{ID: "b"}, {ID: "c"}}},
	}}
	ci, pi, ok := doc.Locate("c")
	assert.True(t, ok)
	assert.Equal(t, 1, ci)
	assert.Equal(t, 1, pi)

	_, _, ok = doc.Locate("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, doc.PartCount())
}

func TestPart_TextContentsPrefersSelection(t *testing.T) {
	p := Part{RelevantDocs: []Doc{{PageContent: "one"}, {PageContent: "two"}}}
	assert.Equal(t, []string{"one", "two"}, p.TextContents())

	p.SelectedDocs = []Doc{{PageContent: "two"}}
	assert.Equal(t, []string{"two"}, p.TextContents())
}

// =============================================================================
// SLIDE DECK TESTS
// =============================================================================

func TestParseSlideDeck_DoubleEncoded(t *testing.T) {
	inner := `{"slides":[{"title":"Intro","content":[{"heading":"H","bullet_points":["a","b"]}]}],"presentation_url":"http://p"}`
	quoted, err := json.Marshal(inner)
	require.NoError(t, err)

	for _, raw := range []string{inner, string(quoted)} {
		deck, err := ParseSlideDeck([]byte(raw))
		require.NoError(t, err)
		require.Len(t, deck.Slides, 1)
		assert.Equal(t, []string{"a", "b"}, deck.Slides[0].Content[0].BulletPoints)
		assert.Equal(t, "http://p", deck.PresentationURL)
		assert.Equal(t, "a b", deck.SummaryText())
	}
}

func TestParseSlideDeck_Invalid(t *testing.T) {
	_, err := ParseSlideDeck([]byte(`"not json"`))
	assert.Error(t, err)
}

// =============================================================================
// TOC TESTS
// =============================================================================

func TestTOC_Resolve(t *testing.T) {
	toc := &TOC{Chapters: []TOCEntry{{
		Title: "Ch1", FromPage: 1, ToPage: 20,
		Subsections: []TOCEntry{{
			Title: "S1", FromPage: 1, ToPage: 10,
			Subsections: []TOCEntry{{Title: "SS1", FromPage: 2, ToPage: 4}},
		}},
	}}}

	tests := []struct {
		name string
		sel  TOCSelection
		want string
	}{
		{"subsection wins", TOCSelection{0, 0, 0}, "SS1"},
		{"section", TOCSelection{0, 0, -1}, "S1"},
		{"chapter", TOCSelection{0, -1, -1}, "Ch1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toc.Resolve(tc.sel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Title)
		})
	}

	_, err := toc.Resolve(TOCSelection{-1, -1, -1})
	assert.ErrorIs(t, err, ErrNoChapter)
	assert.Equal(t, "Ch1 (Pages 1-20)", toc.Chapters[0].Label())
}

func TestSource_IsImage(t *testing.T) {
	assert.True(t, Source{Title: "https://cdn/x.PNG"}.IsImage())
	assert.True(t, Source{Type: "image", Title: "anything"}.IsImage())
	assert.False(t, Source{Title: "note text"}.IsImage())
}
