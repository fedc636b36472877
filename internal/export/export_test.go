// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/coursedeck/internal/model"
)

func testDoc() *model.Document {
	return &model.Document{
		MainTopic: "Renal: basics",
		Competencies: []model.Competency{
			{ID: "c1", Name: "Kidney", Parts: []model.Part{
				{ID: "p1", Name: "Nephron", RelevantDocs: []model.Doc{
					{PageContent: "Filtration happens in the glomerulus", Score: 3, Metadata: model.DocMetadata{Source: "book.pdf"}},
					{PageContent: "Loop of Henle", Score: 5, Metadata: model.DocMetadata{Source: "https://x.example"}},
				}, AugmentedInfo: "line one\nline two"},
				{ID: "p2", Name: "Ureter", RelevantDocs: []model.Doc{}, AttachmentsFromGallery: []string{"https://img.example/u.png"}},
			}},
		},
	}
}

func fixedOpts() *Options {
	o := DefaultOptions()
	o.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestMarkdown_Frontmatter(t *testing.T) {
	out, err := NewMarkdownExporter(fixedOpts()).Export(testDoc())
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "---\ntitle: \"Renal: basics\"\n"))
	assert.Contains(t, s, "subtopics: 2\n")
	assert.Contains(t, s, "exported: 2025-03-01T12:00:00Z\n")
	assert.Contains(t, s, "> line one\n> line two\n")
	assert.Contains(t, s, "- **Matches (0)**")
	assert.Contains(t, s, "- **Attachments**: 1")
}

func TestMarkdown_EmptyDocument(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&model.Document{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestHTML(t *testing.T) {
	out, err := NewHTMLExporter(fixedOpts()).Export(testDoc())
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<title>Renal: basics</title>")
	assert.Contains(t, s, `<body class="dark-theme">`)
	assert.Contains(t, s, "<h2 id=")
	assert.Contains(t, s, "<blockquote>")
	assert.Contains(t, s, "2 subtopics")
	assert.NotContains(t, s, "title: ")
}

func TestHTML_EscapesRawHTML(t *testing.T) {
	doc := testDoc()
	doc.Competencies[0].Parts[0].AugmentedInfo = "<script>alert(1)</script>"
	out, err := NewHTMLExporter(nil).Export(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert")
}

func TestJSON_RoundTrip(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testDoc())
	require.NoError(t, err)
	back, err := model.ParseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, testDoc(), back)
}

func TestYAML(t *testing.T) {
	out, err := NewYAMLExporter(fixedOpts()).Export(testDoc())
	require.NoError(t, err)

	var got yamlDocument
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, "Renal: basics", got.MainTopic)
	require.Len(t, got.Competencies[0].Parts, 2)
	assert.Equal(t, "Loop of Henle", got.Competencies[0].Parts[0].Docs[1].Content)
	assert.Equal(t, []string{"https://img.example/u.png"}, got.Competencies[0].Parts[1].Attachments)
}

func TestXLSX(t *testing.T) {
	out, err := NewXLSXExporter(fixedOpts()).Export(testDoc())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSubtopics, SheetDocuments}, f.GetSheetList())

	rows, err := f.GetRows(SheetSubtopics)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Subtopic", rows[0][2])
	assert.Equal(t, []string{"0-0", "Kidney", "Nephron", "2", "0"}, rows[1][:5])

	docs, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "Books", docs[1][2])
	assert.Equal(t, "Links", docs[2][2])
	assert.Equal(t, "★★★★★", docs[2][3])
}

func TestForFormat(t *testing.T) {
	for _, name := range append(Formats, "md", "yml", "HTML") {
		_, err := ForFormat(name, nil)
		assert.NoError(t, err, name)
	}
	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	opts := fixedOpts()
	opts.OutputDir = t.TempDir()
	path, err := ExportToFile(testDoc(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "course_Renal-_basics_20250301_120000.md"), path)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "untitled", sanitizeFilename("   "))
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("é", 80))), 50)
}
