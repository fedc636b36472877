// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// FUZZY FILTER
// =============================================================================

// FuzzyMatch scores query against target. Every query rune must appear in
// target in order, case-insensitively. Consecutive runs, word starts and
// the first rune score extra; longer targets score slightly less.
func FuzzyMatch(query, target string) (score int, matched bool) {
	if query == "" {
		return 0, true
	}
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))
	if len(q) > len(t) {
		return 0, false
	}

	qi, last := 0, -1
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		s := 1
		if last == ti-1 {
			s += 5
		}
		if ti == 0 {
			s += 10
		}
		if wordStart(t, ti) {
			s += 7
		}
		score += s
		last = ti
		qi++
	}
	if qi != len(q) {
		return 0, false
	}
	return score - len(t)/4, true
}

// wordStart reports whether t[i] begins a word: the first rune, or one
// after a space, slash, dash, underscore or open parenthesis.
func wordStart(t []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev := t[i-1]
	return unicode.IsSpace(prev) || strings.ContainsRune("/-_(", prev)
}

// Filter returns the indices of labels matching query, best first. Ties
// keep label order. An empty query returns every index.
func Filter(query string, labels []string) []int {
	type hit struct{ index, score int }
	var hits []hit
	for i, l := range labels {
		if s, ok := FuzzyMatch(query, l); ok {
			hits = append(hits, hit{i, s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.index
	}
	return out
}
