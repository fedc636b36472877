// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPaletteDefined(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Purple":        Purple,
		"Cyan":          Cyan,
		"Emerald":       Emerald,
		"Rose":          Rose,
		"Amber":         Amber,
		"LinkColor":     LinkColor,
		"SurfaceDim":    SurfaceDim,
		"Overlay":       Overlay,
		"SelectionBg":   SelectionBg,
		"TextPrimary":   TextPrimary,
		"TextSecondary": TextSecondary,
		"TextMuted":     TextMuted,
	}
	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s should define both light and dark values", name)
		}
	}
}

func TestMatchColorsDistinct(t *testing.T) {
	if Rose == LinkColor {
		t.Error("unmatched and matched labels must use different colors")
	}
}

func TestRenderHelpersCarryIndicators(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("saved")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("output %q missing indicator %q", out, tt.indicator)
			}
			if !strings.Contains(out, "saved") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	if !strings.Contains(RenderStatus(true, "x"), StatusIndicators.Success) {
		t.Error("RenderStatus(true) should use the success indicator")
	}
	if !strings.Contains(RenderStatus(false, "x"), StatusIndicators.Error) {
		t.Error("RenderStatus(false) should use the error indicator")
	}
}

func TestRenderLink(t *testing.T) {
	if !strings.Contains(RenderLink("Matches (2)"), "Matches (2)") {
		t.Error("RenderLink should keep the text")
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width, done, total int
		want               string
	}{
		{10, 0, 4, "[----------] 0/4"},
		{10, 2, 4, "[#####-----] 2/4"},
		{10, 4, 4, "[##########] 4/4"},
		{10, 9, 4, "[##########] 4/4"},
		{0, 1, 4, ""},
		{10, 1, 0, ""},
	}
	for _, tt := range tests {
		if got := RenderProgressBar(tt.width, tt.done, tt.total); got != tt.want {
			t.Errorf("RenderProgressBar(%d, %d, %d) = %q, want %q", tt.width, tt.done, tt.total, got, tt.want)
		}
	}
}

func TestSpinnerBubbles(t *testing.T) {
	s := LineSpinner.Bubbles()
	if len(s.Frames) != 4 {
		t.Errorf("frames = %d, want 4", len(s.Frames))
	}
	if s.FPS != LineSpinner.Duration() {
		t.Errorf("FPS = %v, want %v", s.FPS, LineSpinner.Duration())
	}
	if (SpinnerConfig{}).Duration() <= 0 {
		t.Error("zero FPS should still give a positive frame duration")
	}
}
