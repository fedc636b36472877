// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager_NewestFirstAndCapped(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("one")
	m.AddSuccess("two")
	m.AddWarning("three")
	m.AddError("four")

	toasts := m.Toasts()
	require.Len(t, toasts, 3)
	assert.Equal(t, "four", toasts[0].Message)
	assert.Equal(t, ToastKindError, toasts[0].Kind)
	assert.Equal(t, "two", toasts[2].Message)
}

func TestToastManager_TickExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.now = func() time.Time { return now }

	m.AddStatus("short")
	m.AddError("long")

	now = now.Add(DefaultToastDuration)
	left := m.Tick()
	require.Len(t, left, 1)
	assert.Equal(t, "long", left[0].Message)

	now = now.Add(ErrorToastDuration)
	assert.Empty(t, m.Tick())
}

func TestToastManager_Clear(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("x")
	m.Clear()
	assert.Empty(t, m.Toasts())
}

func TestRenderToast_Indicators(t *testing.T) {
	tests := []struct {
		kind ToastKind
		want string
	}{
		{ToastKindError, styles.StatusIndicators.Error},
		{ToastKindWarning, styles.StatusIndicators.Warning},
		{ToastKindSuccess, styles.StatusIndicators.Success},
		{ToastKindStatus, styles.StatusIndicators.Info},
	}
	for _, tt := range tests {
		out := RenderToast(Toast{Message: "Error loading data", Kind: tt.kind}, 80)
		assert.Contains(t, out, tt.want)
		assert.Contains(t, out, "Error loading data")
	}
}

func TestRenderToastStack_Empty(t *testing.T) {
	assert.Equal(t, "", RenderToastStack(nil, 80))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func TestStatusBar_View(t *testing.T) {
	sb := NewStatusBar(styles.NewNamedTheme("dark"))
	sb.Status = StatusStreaming
	sb.Message = "Extracting competencies"
	sb.Subtopics = 7
	sb.Unmatched = 2
	sb.Stream = true
	sb.Backend = "http://127.0.0.1:8000"
	sb.SetWidth(160)

	out := sb.View()
	for _, want := range []string{"Streaming...", "Extracting competencies", "7", "2 unmatched", "stream", "127.0.0.1:8000"} {
		assert.Contains(t, out, want)
	}
}

func TestStatusBar_NarrowDropsBackend(t *testing.T) {
	sb := NewStatusBar(styles.NewNamedTheme("dark"))
	sb.Backend = "http://127.0.0.1:8000"
	sb.SetWidth(70)
	assert.NotContains(t, sb.View(), "127.0.0.1")
}

func TestStatus_StringAndIcon(t *testing.T) {
	assert.Equal(t, "Ready", StatusReady.String())
	assert.Equal(t, styles.StatusIndicators.Error, StatusError.Icon())
	assert.Equal(t, "Unknown", Status(99).String())
}

// =============================================================================
// FILTER
// =============================================================================

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query, target string
		want          bool
	}{
		{"", "anything", true},
		{"nep", "Nephron", true},
		{"gfr", "Glomerular filtration rate", true},
		{"xyz", "Nephron", false},
		{"nephrons", "Nephron", false},
	}
	for _, tt := range tests {
		_, ok := FuzzyMatch(tt.query, tt.target)
		assert.Equal(t, tt.want, ok, "%q vs %q", tt.query, tt.target)
	}
}

func TestFilter_BestFirst(t *testing.T) {
	labels := []string{"Renal tubule", "Nephron", "Loop of Henle", "Nephron anatomy"}
	got := Filter("neph", labels)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0], "shorter exact-prefix label ranks first")
	assert.Equal(t, 3, got[1])
}

func TestFilter_EmptyQueryKeepsOrder(t *testing.T) {
	labels := []string{"b", "a", "c"}
	assert.Equal(t, []int{0, 1, 2}, Filter("", labels))
}

func TestWordStart(t *testing.T) {
	r := []rune(strings.ToLower("Chapter 2 (Kidney)"))
	assert.True(t, wordStart(r, 0))
	assert.True(t, wordStart(r, 8))
	assert.True(t, wordStart(r, 11))
	assert.False(t, wordStart(r, 3))
}
