// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/util"
)

// DocsTab selects the Books or Links half of the docs view.
type DocsTab int

const (
	TabBooks DocsTab = iota
	TabLinks
)

// String returns the tab title.
func (t DocsTab) String() string {
	if t == TabLinks {
		return "Links"
	}
	return "Books"
}

// DocEntry is a document as shown in the docs view. Index is its position
// in the part's RelevantDocs, which is what a delete targets.
type DocEntry struct {
	Index int
	Doc   model.Doc
	Stars string
	URL   string
}

// DocsView is the two-tab document listing of one subtopic.
type DocsView struct {
	PartID string
	Title  string
	Books  []DocEntry
	Links  []DocEntry
}

// NewDocsView splits the part's documents into Books and Links. Each tab is
// sorted by score, highest first, keeping the backend order on ties.
func NewDocsView(p model.Part) DocsView {
	v := DocsView{PartID: p.ID, Title: p.Name}
	for i, d := range p.RelevantDocs {
		e := DocEntry{Index: i, Doc: d, Stars: Stars(d.Score)}
		if d.IsLink() {
			e.URL = HighlightURL(d.Metadata.Source, d.PageContent)
			v.Links = append(v.Links, e)
		} else {
			v.Books = append(v.Books, e)
		}
	}
	byScore := func(es []DocEntry) {
		sort.SliceStable(es, func(a, b int) bool { return es[a].Doc.Score > es[b].Doc.Score })
	}
	byScore(v.Books)
	byScore(v.Links)
	return v
}

// Tab returns the entries of t.
func (v DocsView) Tab(t DocsTab) []DocEntry {
	if t == TabLinks {
		return v.Links
	}
	return v.Books
}

// Len is the total number of documents across both tabs.
func (v DocsView) Len() int {
	return len(v.Books) + len(v.Links)
}

// Label is the "Matches (N)" text for the view's part.
func (v DocsView) Label() string {
	return MatchLabel(v.Len())
}

// Stars renders the relevance of score as filled and empty stars.
func Stars(score float64) string {
	n := model.StarsFor(score)
	return strings.Repeat("★", n) + strings.Repeat("☆", model.MaxStars-n)
}

// HighlightURL links to source with a text fragment made of the first five
// words of content, so the browser scrolls to the matching passage.
func HighlightURL(source, content string) string {
	words := util.FirstWords(content, 5)
	return source + "/#:~:text=" + encodeComponent(words)
}

// encodeComponent escapes s like a URI component: spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
