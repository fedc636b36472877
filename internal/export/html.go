// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/coursedeck/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders the Markdown export with goldmark and wraps it in a
// self-contained page with embedded CSS.
type HTMLExporter struct {
	options  *Options
	markdown *MarkdownExporter
	md       goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	// The page carries its own metadata line, so the Markdown body skips
	// the frontmatter.
	mdOpts := *opts
	mdOpts.IncludeMetadata = false
	return &HTMLExporter{
		options:  opts,
		markdown: NewMarkdownExporter(&mdOpts),
		md:       newMarkdown(),
	}
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithXHTML()),
	)
}

// Export converts a document to HTML format.
func (e *HTMLExporter) Export(doc *model.Document) ([]byte, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}
	body, err := e.RenderMarkdown([]byte(e.markdown.render(doc)))
	if err != nil {
		return nil, err
	}

	var meta string
	if e.options.IncludeMetadata {
		meta = fmt.Sprintf("%d competencies, %d subtopics. Exported %s.",
			len(doc.Competencies), doc.PartCount(),
			e.options.now().Format("January 2, 2006 at 3:04 PM"))
	}
	return Page(doc.MainTopic, e.options.Theme, meta, body), nil
}

// RenderMarkdown converts Markdown to an HTML fragment.
func (e *HTMLExporter) RenderMarkdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// PAGE
// =============================================================================

// Page wraps an HTML fragment in a complete document.
func Page(title, theme, meta string, body []byte) []byte {
	if theme != "light" {
		theme = "dark"
	}
	if title == "" {
		title = "Untitled course"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("    <meta name=\"generator\" content=\"coursedeck\">\n")
	fmt.Fprintf(&sb, "    <meta name=\"date\" content=\"%s\">\n", time.Now().Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")
	if meta != "" {
		fmt.Fprintf(&sb, "        <header class=\"header\"><span class=\"meta\">%s</span></header>\n", html.EscapeString(meta))
	}
	sb.WriteString("        <main class=\"content\">\n")
	sb.Write(body)
	sb.WriteString("        </main>\n")
	sb.WriteString("        <footer class=\"footer\"><p>Exported from <strong>coursedeck</strong></p></footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")
	return []byte(sb.String())
}

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --border-color: #414868;
            --accent-blue: #7aa2f7;
            --accent-red: #f7768e;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --border-color: #e1e4e8;
            --accent-blue: #0366d6;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 960px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 12px 32px;
            background: var(--bg-tertiary);
            color: var(--text-secondary);
            font-size: 14px;
        }

        .content { padding: 24px 32px; }
        .content h1 { font-size: 28px; margin-bottom: 16px; }
        .content h2 { font-size: 22px; margin: 28px 0 12px; border-bottom: 1px solid var(--border-color); }
        .content h3 { font-size: 18px; margin: 20px 0 8px; }
        .content h4 { font-size: 15px; margin: 12px 0 6px; color: var(--text-secondary); }
        .content ul, .content ol { margin: 0 0 12px 24px; }
        .content blockquote {
            margin: 8px 0 12px;
            padding: 8px 16px;
            border-left: 3px solid var(--accent-blue);
            color: var(--text-secondary);
        }
        .content a { color: var(--accent-blue); word-break: break-all; }
        .content table { border-collapse: collapse; margin-bottom: 12px; }
        .content td, .content th { border: 1px solid var(--border-color); padding: 4px 8px; }

        .footer {
            padding: 12px 32px;
            font-size: 13px;
            color: var(--text-secondary);
            border-top: 1px solid var(--border-color);
        }
    </style>
`
