// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, titles, selected row
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, keys, active tab
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, augmented marker
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors and subtopics without matches
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, in-flight work, stars
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// LinkColor - Links and subtopics with matches
var LinkColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// SelectionBg - Selected table row
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains text indicators shown next to colored status
// text, so state is readable without color.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
}

// StatusIndicators are ASCII-only for terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an info message with its indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(LinkColor).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}

// RenderStatus picks RenderSuccess or RenderError.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}

// RenderLink renders text as an underlined link.
func RenderLink(text string) string {
	return lipgloss.NewStyle().Foreground(LinkColor).Underline(true).Render(text)
}
