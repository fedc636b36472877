// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports documents to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown format.
func (e *MarkdownExporter) Export(doc *model.Document) ([]byte, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}
	return []byte(e.render(doc)), nil
}

func (e *MarkdownExporter) render(doc *model.Document) string {
	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(doc.MainTopic))
		fmt.Fprintf(&sb, "competencies: %d\n", len(doc.Competencies))
		fmt.Fprintf(&sb, "subtopics: %d\n", doc.PartCount())
		fmt.Fprintf(&sb, "exported: %s\n", e.options.now().Format(time.RFC3339))
		sb.WriteString("generator: coursedeck\n")
		sb.WriteString("---\n\n")
	}

	title := doc.MainTopic
	if title == "" {
		title = "Untitled course"
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for ci, c := range doc.Competencies {
		fmt.Fprintf(&sb, "## %d. %s\n\n", ci+1, escapeMarkdown(c.Name))
		for pi := range c.Parts {
			e.renderPart(&sb, ci, pi, &c.Parts[pi])
		}
	}
	return sb.String()
}

func (e *MarkdownExporter) renderPart(sb *strings.Builder, ci, pi int, p *model.Part) {
	fmt.Fprintf(sb, "### %d.%d %s\n\n", ci+1, pi+1, escapeMarkdown(p.Name))
	fmt.Fprintf(sb, "- **%s**\n", render.MatchLabel(len(p.RelevantDocs)))
	if link := p.PrimaryLink(); link != "" {
		fmt.Fprintf(sb, "- **Search**: <%s>\n", link)
	}
	if n := p.AttachmentCount(); n > 0 {
		fmt.Fprintf(sb, "- **Attachments**: %d\n", n)
		for _, f := range p.Images {
			fmt.Fprintf(sb, "  - %s\n", escapeMarkdown(f.Name))
		}
		for _, u := range p.AttachmentsFromGallery {
			fmt.Fprintf(sb, "  - <%s>\n", u)
		}
	}
	if p.Summary != nil && p.Summary.Text != "" {
		fmt.Fprintf(sb, "- **Summary**: %s\n", util.OneLine(p.Summary.Text))
	}
	sb.WriteString("\n")

	if info := strings.TrimSpace(p.AugmentedInfo); info != "" {
		for _, line := range strings.Split(info, "\n") {
			fmt.Fprintf(sb, "> %s\n", line)
		}
		sb.WriteString("\n")
	}

	if !e.options.IncludeDocs || len(p.RelevantDocs) == 0 {
		return
	}
	view := render.NewDocsView(*p)
	for _, tab := range []render.DocsTab{render.TabBooks, render.TabLinks} {
		entries := view.Tab(tab)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(sb, "#### %s\n\n", tab)
		for i, d := range entries {
			source := d.Doc.Metadata.Source
			if d.URL != "" {
				source = fmt.Sprintf("[%s](%s)", source, d.URL)
			}
			fmt.Fprintf(sb, "%d. %s %s: %s\n", i+1, d.Stars, source, util.TruncateWidth(util.OneLine(d.Doc.PageContent), 160))
		}
		sb.WriteString("\n")
	}
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a frontmatter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
