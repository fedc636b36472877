// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for coursedeck command output.
//
// The color profile is set once from terminal detection, so styles render
// plain when output is piped.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// applyColorProfile configures lipgloss for the current terminal. Called
// after config is loaded so ui.no_color applies.
func applyColorProfile() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// SectionStyle is used for section headers within commands
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// LinkStyle matches the match-label blue of the table view
	LinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Underline(true)
)

// =============================================================================
// HELPER FUNCTIONS FOR COMMON PATTERNS
// =============================================================================

// RenderSeparator renders a horizontal separator line of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return SeparatorStyle.Render(strings.Repeat("=", width))
}

// RenderStatus renders "[OK]", "[FAIL]" or "[WARN]".
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass":
		return SuccessStyle.Render("[OK]")
	case "error", "fail", "failed":
		return ErrorStyle.Render("[FAIL]")
	case "warning", "warn", "pending":
		return WarningStyle.Render("[WARN]")
	default:
		return DimStyle.Render("[" + strings.ToUpper(status) + "]")
	}
}

// RenderLabel renders a label padded to the label column.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}
