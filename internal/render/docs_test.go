// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/storage"
	"github.com/jeranaias/coursedeck/internal/store"
)

func doc(source string, score float64, content string) model.Doc {
	return model.Doc{PageContent: content, Score: score, Metadata: model.DocMetadata{Source: source}}
}

func TestNewDocsView_SplitAndSort(t *testing.T) {
	p := model.Part{ID: "p", Name: "Valves", RelevantDocs: []model.Doc{
		doc("book.pdf", 2, "a"),
		doc("https://a.example", 1, "b"),
		doc("other.pdf", 4.6, "c"),
		doc("https://b.example", 3, "d"),
		doc("third.pdf", 2, "e"),
	}}
	v := NewDocsView(p)

	require.Len(t, v.Books, 3)
	require.Len(t, v.Links, 2)
	assert.Equal(t, []int{2, 0, 4}, indices(v.Books))
	assert.Equal(t, []int{3, 1}, indices(v.Links))
	assert.Equal(t, "★★★★★", v.Books[0].Stars)
	assert.Equal(t, "Matches (5)", v.Label())
	assert.Equal(t, v.Links, v.Tab(TabLinks))
	assert.Equal(t, "Books", TabBooks.String())
}

func indices(es []DocEntry) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.Index
	}
	return out
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★☆☆", Stars(2.5))
	assert.Equal(t, "★★★★★", Stars(9))
}

func TestHighlightURL(t *testing.T) {
	got := HighlightURL("https://site.example/page", "The heart has four chambers and two atria")
	assert.Equal(t, "https://site.example/page/#:~:text=The%20heart%20has%20four%20chambers", got)

	assert.Equal(t, "https://x/#:~:text=a%26b", HighlightURL("https://x", "a&b"))
}

func TestDeleteOneDoc_RecomputesLabel(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	s := store.New(kv)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, &model.Document{Competencies: []model.Competency{{
		Name: "C",
		Parts: []model.Part{{Name: "P", RelevantDocs: []model.Doc{
			doc("a.pdf", 1, "x"), doc("https://b", 5, "y"), doc("c.pdf", 3, "z"),
		}}},
	}}}))
	id, ok := s.PartAt(store.Position{})
	require.True(t, ok)

	p, _ := s.Part(id)
	v := NewDocsView(p)
	target := v.Books[0]
	assert.Equal(t, 2, target.Index)

	remaining, err := s.RemoveDoc(ctx, id, target.Index)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	row, ok := RowFor(s.Get(), 0, 0)
	require.True(t, ok)
	assert.Equal(t, "Matches (2)", row.MatchLabel())

	p, _ = s.Part(id)
	v = NewDocsView(p)
	assert.Equal(t, "Matches (2)", v.Label())
	assert.Len(t, v.Books, 1)
	assert.Equal(t, "a.pdf", v.Books[0].Doc.Metadata.Source)
}
