// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
)

// =============================================================================
// XLSX EXPORTER
// =============================================================================

const (
	SheetSubtopics = "Subtopics"
	SheetDocuments = "Documents"
)

// XLSXExporter writes a workbook with one row per subtopic on the Subtopics
// sheet and one row per supporting document on the Documents sheet.
type XLSXExporter struct {
	options *Options
}

// NewXLSXExporter creates a new XLSX exporter.
func NewXLSXExporter(opts *Options) *XLSXExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &XLSXExporter{options: opts}
}

var (
	subtopicHeader = []any{"#", "Competency", "Subtopic", "Matches", "Attachments", "Search link", "Augmented context", "Summary"}
	documentHeader = []any{"#", "Subtopic", "Tab", "Stars", "Score", "Source", "Highlight link", "Excerpt"}
)

// Export converts a document to an XLSX workbook.
func (e *XLSXExporter) Export(doc *model.Document) ([]byte, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSubtopics); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	if _, err := f.NewSheet(SheetDocuments); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	unmatched, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "DC2626"}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	if err := writeRow(f, SheetSubtopics, 1, subtopicHeader); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetDocuments, 1, documentHeader); err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(SheetSubtopics, 1, 1, bold)
	_ = f.SetRowStyle(SheetDocuments, 1, 1, bold)

	rows := render.Rows(doc)
	docRow := 2
	for i, r := range rows {
		p := doc.Competencies[r.CompIndex].Parts[r.PartIndex]
		summary := ""
		if p.Summary != nil {
			summary = p.Summary.Text
		}
		line := i + 2
		if err := writeRow(f, SheetSubtopics, line, []any{
			r.Key(), r.Competency, r.Name, r.MatchCount, r.AttachmentCount,
			r.PrimaryLink, p.AugmentedInfo, summary,
		}); err != nil {
			return nil, err
		}
		if r.State == render.Unmatched {
			cell, _ := excelize.CoordinatesToCellName(4, line)
			_ = f.SetCellStyle(SheetSubtopics, cell, cell, unmatched)
		}

		view := render.NewDocsView(p)
		for _, tab := range []render.DocsTab{render.TabBooks, render.TabLinks} {
			for _, d := range view.Tab(tab) {
				excerpt := d.Doc.PageContent
				if !e.options.IncludeDocs {
					excerpt = ""
				}
				if err := writeRow(f, SheetDocuments, docRow, []any{
					r.Key(), r.Name, tab.String(), d.Stars, d.Doc.Score,
					d.Doc.Metadata.Source, d.URL, strings.TrimSpace(excerpt),
				}); err != nil {
					return nil, err
				}
				docRow++
			}
		}
	}

	_ = f.SetColWidth(SheetSubtopics, "B", "C", 36)
	_ = f.SetColWidth(SheetSubtopics, "F", "H", 48)
	_ = f.SetColWidth(SheetDocuments, "B", "B", 36)
	_ = f.SetColWidth(SheetDocuments, "F", "H", 48)
	_ = f.SetPanes(SheetSubtopics, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	return nil
}

// FileExtension returns the file extension for XLSX.
func (e *XLSXExporter) FileExtension() string {
	return ".xlsx"
}

// MimeType returns the MIME type for XLSX.
func (e *XLSXExporter) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
