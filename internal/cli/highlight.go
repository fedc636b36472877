// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// highlightJSON writes src to w with terminal syntax highlighting. Falls
// back to the plain bytes when tokenizing fails.
func highlightJSON(w io.Writer, src []byte) error {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, string(src))
	if err != nil {
		return writePlain(w, src)
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writePlain(w io.Writer, src []byte) error {
	if _, err := w.Write(src); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
