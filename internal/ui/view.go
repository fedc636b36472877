// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/ui/components"
	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

// View renders the application.
func (a App) View() string {
	var body string
	switch a.mode {
	case ModePrompt:
		body = a.tableView() + "\n" + a.promptView()
	case ModeDocs:
		body = a.docsView()
	case ModeInfo:
		body = a.overlay(a.overlayTitle, a.viewport.View())
	case ModeSlides:
		body = a.slidesView()
	case ModeGallery:
		body = a.galleryView()
	case ModeTOC:
		body = a.tocView()
	case ModeHelp:
		a.help.ShowAll = true
		body = a.tableView() + "\n" + a.theme.Help.Render(a.help.View(a.keys))
	default:
		body = a.tableView() + "\n" + a.theme.Help.Render(a.help.View(a.keys))
	}

	parts := []string{a.headerView(), body}
	if toasts := a.toasts.Toasts(); len(toasts) > 0 {
		parts = append(parts, components.RenderToastStack(toasts, min(a.width, 60)))
	}
	parts = append(parts, a.statusView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// TABLE
// =============================================================================

func (a App) headerView() string {
	title := a.title
	if title == "" {
		title = "No course loaded"
	}
	sub := fmt.Sprintf("%d subtopics", len(a.rows))
	if a.filter != "" {
		sub = fmt.Sprintf("%d of %d subtopics match %q", len(a.visible), len(a.rows), a.filter)
	}
	if n := len(a.markedIDs()); n > 0 {
		sub += fmt.Sprintf(", %d marked", n)
	}
	line := a.theme.HeaderTitle.Render(title) + "  " + a.theme.HeaderSubtitle.Render(sub)
	return a.theme.Header.Width(a.width).Render(line)
}

func (a App) tableView() string {
	if len(a.rows) == 0 {
		msg := "No subtopics yet. Press u to upload course documents."
		if a.loading {
			msg = a.spinner.View() + " " + a.status.Message
		}
		return a.theme.Muted.Render(msg)
	}
	return a.table.View() + "\n" + a.detailView()
}

// detailView is the line under the table. The match label is styled here
// because table cells are plain text.
func (a App) detailView() string {
	row, ok := a.selectedRow()
	if !ok {
		return ""
	}
	line := render.StyledMatchLabel(row)
	if n := row.AttachmentCount; n > 0 {
		line += "  " + a.theme.Muted.Render(fmt.Sprintf("Attachments: (%d)", n))
	}
	if row.PrimaryLink != "" {
		line += "  " + styles.RenderLink(truncate(row.PrimaryLink, max(a.width-40, 20)))
	}
	return line
}

func (a App) promptView() string {
	var b strings.Builder
	b.WriteString(a.theme.ModalTitle.Render(a.prompt.title()))
	b.WriteString("\n")
	b.WriteString(a.input.View())
	if a.promptErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.RenderError(a.promptErr))
	}
	return a.theme.Modal.Render(b.String())
}

func (a App) statusView() string {
	if a.loading && a.status.Status != components.StatusError {
		return a.spinner.View() + " " + a.status.View()
	}
	return a.status.View()
}

// =============================================================================
// MODALS
// =============================================================================

func (a App) overlay(title, content string) string {
	return a.theme.Modal.Width(max(a.width-4, 20)).Render(
		a.theme.ModalTitle.Render(title) + "\n" + content,
	)
}

func (a App) docsView() string {
	d := a.docs
	if d == nil {
		return ""
	}
	var b strings.Builder
	for _, t := range []render.DocsTab{render.TabBooks, render.TabLinks} {
		label := fmt.Sprintf(" %s (%d) ", t, len(d.view.Tab(t)))
		if t == d.tab {
			b.WriteString(a.theme.TabActive.Render(label))
		} else {
			b.WriteString(a.theme.TabInactive.Render(label))
		}
	}
	b.WriteString("\n\n")

	entries := d.entries()
	if len(entries) == 0 {
		b.WriteString(a.theme.Muted.Render("No documents."))
	}
	width := max(a.width-20, 20)
	for i, e := range entries {
		cursor := "  "
		if i == d.cursor {
			cursor = "> "
		}
		check := "[ ]"
		if d.selected[e.Index] {
			check = "[x]"
		}
		text := e.Doc.Metadata.Source
		if e.URL != "" {
			text = styles.RenderLink(truncate(e.URL, width))
		} else {
			text = truncate(text, width)
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, check, a.theme.Stars.Render(e.Stars), text)
		if i == d.cursor && e.Doc.PageContent != "" {
			b.WriteString("      " + a.theme.Muted.Render(truncate(oneLine(e.Doc.PageContent), width)) + "\n")
		}
	}
	b.WriteString("\n" + a.theme.Help.Render("Tab books/links  Space select  x delete  Enter save selection  Esc close"))
	return a.overlay(d.view.Title+": "+d.view.Label(), b.String())
}

func (a App) slidesView() string {
	if a.slides == nil {
		return ""
	}
	title := fmt.Sprintf("%s  [%s %s]", a.overlayTitle, a.slides.Mode(), a.slides.Position())
	hint := "left/right navigate  o outline/slideshow  Esc close"
	return a.overlay(title, a.viewport.View()+"\n"+a.theme.Help.Render(hint))
}

func (a App) galleryView() string {
	g := a.gallery
	if g == nil {
		return ""
	}
	var b strings.Builder
	width := max(a.width-16, 20)
	for i, s := range g.images {
		cursor := "  "
		if i == g.cursor {
			cursor = "> "
		}
		check := "[ ]"
		if g.chosen[i] {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, styles.RenderLink(truncate(s.Title, width)))
		if i == g.cursor && s.Description != "" {
			b.WriteString("      " + a.theme.Muted.Render(truncate(s.Description, width)) + "\n")
		}
	}
	b.WriteString("\n" + a.theme.Help.Render("Space choose  Enter attach  Esc close"))
	return a.overlay("Image gallery", b.String())
}

func (a App) tocView() string {
	m := a.toc
	if m == nil {
		return ""
	}
	var b strings.Builder
	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor + strings.Repeat("  ", it.Depth) + it.Entry.Label() + "\n")
	}
	b.WriteString("\n" + a.theme.Help.Render("Enter select  Esc close"))
	return a.overlay("Table of contents", b.String())
}

// =============================================================================
// HELPERS
// =============================================================================

// markdown renders md with glamour, falling back to the raw text.
func (a App) markdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(a.theme.GlamourStyle()),
		glamour.WithWordWrap(max(a.viewport.Width-2, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
