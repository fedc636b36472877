// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"slices"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
)

// =============================================================================
// DOCS MODAL
// =============================================================================

// docsModal lists the matched documents of one subtopic in two tabs.
// Selection is keyed by RelevantDocs index so it survives tab switches.
type docsModal struct {
	partID   string
	view     render.DocsView
	tab      render.DocsTab
	cursor   int
	selected map[int]bool
}

func newDocsModal(p model.Part) *docsModal {
	d := &docsModal{partID: p.ID, selected: make(map[int]bool)}
	d.reload(p)
	for _, s := range p.SelectedDocs {
		for i, rd := range p.RelevantDocs {
			if rd == s {
				d.selected[i] = true
				break
			}
		}
	}
	if len(d.view.Books) == 0 && len(d.view.Links) > 0 {
		d.tab = render.TabLinks
	}
	return d
}

// reload rebuilds the view from a fresh copy of the part.
func (d *docsModal) reload(p model.Part) {
	d.view = render.NewDocsView(p)
	d.clamp()
}

func (d *docsModal) entries() []render.DocEntry {
	return d.view.Tab(d.tab)
}

func (d *docsModal) clamp() {
	n := len(d.entries())
	if d.cursor >= n {
		d.cursor = n - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (d *docsModal) move(delta int) {
	d.cursor += delta
	d.clamp()
}

func (d *docsModal) switchTab() {
	if d.tab == render.TabBooks {
		d.tab = render.TabLinks
	} else {
		d.tab = render.TabBooks
	}
	d.cursor = 0
	d.clamp()
}

func (d *docsModal) current() (render.DocEntry, bool) {
	es := d.entries()
	if d.cursor < 0 || d.cursor >= len(es) {
		return render.DocEntry{}, false
	}
	return es[d.cursor], true
}

func (d *docsModal) toggle() {
	e, ok := d.current()
	if !ok {
		return
	}
	if d.selected[e.Index] {
		delete(d.selected, e.Index)
	} else {
		d.selected[e.Index] = true
	}
}

// removed shifts the selection after RelevantDocs[index] was deleted.
func (d *docsModal) removed(index int) {
	next := make(map[int]bool, len(d.selected))
	for i := range d.selected {
		switch {
		case i < index:
			next[i] = true
		case i > index:
			next[i-1] = true
		}
	}
	d.selected = next
}

func (d *docsModal) selectedIndices() []int {
	out := make([]int, 0, len(d.selected))
	for i := range d.selected {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// =============================================================================
// GALLERY MODAL
// =============================================================================

// galleryModal picks gallery images to attach to one subtopic.
type galleryModal struct {
	partID string
	images []model.Source
	cursor int
	chosen map[int]bool
}

func newGalleryModal(partID string, sources []model.Source) *galleryModal {
	g := &galleryModal{partID: partID, chosen: make(map[int]bool)}
	for _, s := range sources {
		if s.IsImage() {
			g.images = append(g.images, s)
		}
	}
	return g
}

func (g *galleryModal) move(delta int) {
	g.cursor = clampIndex(g.cursor+delta, len(g.images))
}

func (g *galleryModal) toggle() {
	if g.cursor >= len(g.images) {
		return
	}
	g.chosen[g.cursor] = !g.chosen[g.cursor]
}

// urls returns the chosen image URLs in gallery order.
func (g *galleryModal) urls() []string {
	var out []string
	for i, s := range g.images {
		if g.chosen[i] {
			out = append(out, s.Title)
		}
	}
	return out
}

// =============================================================================
// TOC MODAL
// =============================================================================

// tocItem is one line of the flattened table of contents.
type tocItem struct {
	Depth int
	Entry model.TOCEntry
	Sel   model.TOCSelection
}

// tocModal shows chapters, sections and subsections as one indented list.
type tocModal struct {
	toc    *model.TOC
	items  []tocItem
	cursor int
}

func newTOCModal(toc *model.TOC) *tocModal {
	m := &tocModal{toc: toc}
	if toc == nil {
		return m
	}
	for ci, ch := range toc.Chapters {
		m.items = append(m.items, tocItem{0, ch, model.TOCSelection{Chapter: ci, Section: -1, Subsection: -1}})
		for si, sec := range ch.Subsections {
			m.items = append(m.items, tocItem{1, sec, model.TOCSelection{Chapter: ci, Section: si, Subsection: -1}})
			for ssi, sub := range sec.Subsections {
				m.items = append(m.items, tocItem{2, sub, model.TOCSelection{Chapter: ci, Section: si, Subsection: ssi}})
			}
		}
	}
	return m
}

func (m *tocModal) move(delta int) {
	m.cursor = clampIndex(m.cursor+delta, len(m.items))
}

// resolve returns the entry under the cursor. With nothing to select it
// reports model.ErrNoChapter.
func (m *tocModal) resolve() (model.TOCEntry, error) {
	sel := model.TOCSelection{Chapter: -1, Section: -1, Subsection: -1}
	if m.cursor < len(m.items) {
		sel = m.items[m.cursor].Sel
	}
	return m.toc.Resolve(sel)
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
