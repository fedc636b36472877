// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/coursedeck/internal/attach"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/ui/styles"
	"github.com/jeranaias/coursedeck/internal/util"
)

// =============================================================================
// ROWS
// =============================================================================

// MatchState says whether the backend found any supporting documents.
type MatchState int

const (
	Unmatched MatchState = iota
	Matched
)

// String returns the state name.
func (m MatchState) String() string {
	if m == Matched {
		return "matched"
	}
	return "unmatched"
}

// Row is one subtopic of the table.
type Row struct {
	CompIndex       int
	PartIndex       int
	PartID          string
	Competency      string
	Name            string
	MatchCount      int
	State           MatchState
	AttachmentCount int
	HasAugment      bool
	HasSummary      bool
	PrimaryLink     string
}

// Key is the "c-p" position label.
func (r Row) Key() string {
	return attach.Key(r.CompIndex, r.PartIndex)
}

// MatchLabel is the clickable "Matches (N)" text.
func (r Row) MatchLabel() string {
	return MatchLabel(r.MatchCount)
}

// MatchLabel formats the document count of a subtopic.
func MatchLabel(n int) string {
	return fmt.Sprintf("Matches (%d)", n)
}

// Rows flattens the document into one row per subtopic, in order.
func Rows(doc *model.Document) []Row {
	if doc == nil {
		return nil
	}
	rows := make([]Row, 0, doc.PartCount())
	for ci, c := range doc.Competencies {
		for pi := range c.Parts {
			rows = append(rows, newRow(ci, pi, c.Name, &c.Parts[pi]))
		}
	}
	return rows
}

// CompetencyRows returns the rows of one competency. Streamed ingestion
// uses it to append the rows of a competency as it arrives.
func CompetencyRows(doc *model.Document, ci int) []Row {
	if doc == nil || ci < 0 || ci >= len(doc.Competencies) {
		return nil
	}
	c := doc.Competencies[ci]
	rows := make([]Row, 0, len(c.Parts))
	for pi := range c.Parts {
		rows = append(rows, newRow(ci, pi, c.Name, &c.Parts[pi]))
	}
	return rows
}

// RowFor regenerates the row at (ci, pi).
func RowFor(doc *model.Document, ci, pi int) (Row, bool) {
	if doc == nil || ci < 0 || ci >= len(doc.Competencies) {
		return Row{}, false
	}
	c := doc.Competencies[ci]
	if pi < 0 || pi >= len(c.Parts) {
		return Row{}, false
	}
	return newRow(ci, pi, c.Name, &c.Parts[pi]), true
}

func newRow(ci, pi int, comp string, p *model.Part) Row {
	state := Unmatched
	if len(p.RelevantDocs) > 0 {
		state = Matched
	}
	return Row{
		CompIndex:       ci,
		PartIndex:       pi,
		PartID:          p.ID,
		Competency:      comp,
		Name:            p.Name,
		MatchCount:      len(p.RelevantDocs),
		State:           state,
		AttachmentCount: p.AttachmentCount(),
		HasAugment:      strings.TrimSpace(p.AugmentedInfo) != "",
		HasSummary:      p.Summary != nil && p.Summary.Text != "",
		PrimaryLink:     p.PrimaryLink(),
	}
}

// =============================================================================
// STYLING
// =============================================================================

var (
	unmatchedStyle = lipgloss.NewStyle().Foreground(styles.Rose).Underline(true)
	matchedStyle   = lipgloss.NewStyle().Foreground(styles.LinkColor).Underline(true)
)

// StyledMatchLabel renders the label red when unmatched and blue otherwise.
func StyledMatchLabel(r Row) string {
	if r.State == Matched {
		return matchedStyle.Render(r.MatchLabel())
	}
	return unmatchedStyle.Render(r.MatchLabel())
}

// =============================================================================
// PLAIN TABLE
// =============================================================================

const (
	keyWidth  = 6
	nameWidth = 40
	compWidth = 28
)

// WriteTable writes an aligned text table of rows to w. Cells are truncated
// by display width so wide runes keep the columns straight.
func WriteTable(w io.Writer, title string, rows []Row) error {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "%s\n\n", title)
	}
	header := []string{
		util.PadWidth("#", keyWidth),
		util.PadWidth("COMPETENCY", compWidth),
		util.PadWidth("SUBTOPIC", nameWidth),
		util.PadWidth("MATCHES", 13),
		util.PadWidth("FILES", 6),
		"FLAGS",
	}
	b.WriteString(strings.TrimRight(strings.Join(header, " "), " "))
	b.WriteString("\n")

	for _, r := range rows {
		cells := []string{
			util.PadWidth(r.Key(), keyWidth),
			util.PadWidth(util.TruncateWidth(r.Competency, compWidth), compWidth),
			util.PadWidth(util.TruncateWidth(r.Name, nameWidth), nameWidth),
			util.PadWidth(r.MatchLabel(), 13),
			util.PadWidth(fmt.Sprintf("(%d)", r.AttachmentCount), 6),
			Flags(r),
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Flags lists the row markers: augmented, summary and link.
func Flags(r Row) string {
	var f []string
	if r.HasAugment {
		f = append(f, "augmented")
	}
	if r.HasSummary {
		f = append(f, "summary")
	}
	if r.PrimaryLink != "" {
		f = append(f, "link")
	}
	return strings.Join(f, ",")
}
