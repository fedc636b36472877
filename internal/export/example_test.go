// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"
	"os"

	"github.com/jeranaias/coursedeck/internal/export"
	"github.com/jeranaias/coursedeck/internal/model"
)

func sampleDocument() *model.Document {
	return &model.Document{
		MainTopic: "Cardiology",
		Competencies: []model.Competency{{
			Name: "Anatomy",
			Parts: []model.Part{{
				Name:  "Heart valves",
				Links: []string{"https://pubmed.example/?term=valves"},
				RelevantDocs: []model.Doc{
					{PageContent: "The mitral valve separates the left atrium", Score: 4, Metadata: model.DocMetadata{Source: "Guyton.pdf"}},
					{PageContent: "Valve disease is common in older adults", Score: 2.4, Metadata: model.DocMetadata{Source: "https://pubmed.example/123"}},
				},
				Summary: &model.Summary{Text: "Four valves keep flow one-way"},
			}},
		}},
	}
}

// ExampleMarkdownExporter shows the Markdown outline of a small course.
func ExampleMarkdownExporter() {
	opts := export.DefaultOptions()
	opts.IncludeMetadata = false

	out, err := export.NewMarkdownExporter(opts).Export(sampleDocument())
	if err != nil {
		fmt.Println("export failed:", err)
		return
	}
	fmt.Print(string(out))
	// Output:
	// # Cardiology
	//
	// ## 1. Anatomy
	//
	// ### 1.1 Heart valves
	//
	// - **Matches (2)**
	// - **Search**: <https://pubmed.example/?term=valves>
	// - **Summary**: Four valves keep flow one-way
	//
	// #### Books
	//
	// 1. ★★★★☆ Guyton.pdf: The mitral valve separates the left atrium
	//
	// #### Links
	//
	// 1. ★★☆☆☆ [https://pubmed.example/123](https://pubmed.example/123/#:~:text=Valve%20disease%20is%20common%20in): Valve disease is common in older adults
}

// ExampleForFormat writes an XLSX workbook into a temporary directory.
func ExampleForFormat() {
	dir, _ := os.MkdirTemp("", "coursedeck-export")
	defer os.RemoveAll(dir)

	opts := export.DefaultOptions()
	opts.OutputDir = dir

	exp, err := export.ForFormat("xlsx", opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	path, err := export.ExportToFile(sampleDocument(), exp, opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	info, _ := os.Stat(path)
	fmt.Println(exp.FileExtension(), info.Size() > 0)
	// Output: .xlsx true
}
