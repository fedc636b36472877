// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth shortens s to at most width display cells, ending with "…"
// when anything was cut. Wide runes count as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// PadWidth right-pads s with spaces to width display cells.
func PadWidth(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FirstWords returns the first n whitespace-separated words of s.
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// StripBullets removes a leading "- " from every line.
func StripBullets(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, "- ")
	}
	return strings.Join(lines, "\n")
}

// OneLine collapses all whitespace runs to single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
