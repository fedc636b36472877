// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/coursedeck/internal/model"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter writes the document tree as YAML for review and hand edits.
// Page contents are long, so documents are listed by source and score only
// unless IncludeDocs is set.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

type yamlDocument struct {
	MainTopic    string           `yaml:"main_topic"`
	Competencies []yamlCompetency `yaml:"competencies"`
}

type yamlCompetency struct {
	ID    string     `yaml:"id,omitempty"`
	Name  string     `yaml:"name"`
	Parts []yamlPart `yaml:"parts"`
}

type yamlPart struct {
	ID            string    `yaml:"id,omitempty"`
	Name          string    `yaml:"name"`
	Links         []string  `yaml:"links,omitempty"`
	AugmentedInfo string    `yaml:"augmented_info,omitempty"`
	Summary       string    `yaml:"summary,omitempty"`
	Attachments   []string  `yaml:"attachments,omitempty"`
	Docs          []yamlDoc `yaml:"relevant_docs"`
}

type yamlDoc struct {
	Source  string  `yaml:"source"`
	Score   float64 `yaml:"score"`
	Content string  `yaml:"page_content,omitempty"`
}

// Export converts a document to YAML.
func (e *YAMLExporter) Export(doc *model.Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}

	out := yamlDocument{MainTopic: doc.MainTopic, Competencies: []yamlCompetency{}}
	for _, c := range doc.Competencies {
		yc := yamlCompetency{ID: c.ID, Name: c.Name, Parts: []yamlPart{}}
		for _, p := range c.Parts {
			yp := yamlPart{
				ID:            p.ID,
				Name:          p.Name,
				Links:         p.Links,
				AugmentedInfo: p.AugmentedInfo,
				Docs:          []yamlDoc{},
			}
			if p.Summary != nil {
				yp.Summary = p.Summary.Text
			}
			for _, f := range p.Images {
				yp.Attachments = append(yp.Attachments, f.Name)
			}
			yp.Attachments = append(yp.Attachments, p.AttachmentsFromGallery...)
			for _, d := range p.RelevantDocs {
				yd := yamlDoc{Source: d.Metadata.Source, Score: d.Score}
				if e.options.IncludeDocs {
					yd.Content = d.PageContent
				}
				yp.Docs = append(yp.Docs, yd)
			}
			yc.Parts = append(yc.Parts, yp)
		}
		out.Competencies = append(out.Competencies, yc)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
