// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the course table UI.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// TABLE
	// ==========================================================================

	TableHeader   lipgloss.Style
	TableCell     lipgloss.Style
	TableSelected lipgloss.Style
	TableBorder   lipgloss.Color

	// ==========================================================================
	// MODALS
	// ==========================================================================

	Modal       lipgloss.Style
	ModalTitle  lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Stars       lipgloss.Style
	Prompt      lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusKey     lipgloss.Style
	StatusValue   lipgloss.Style
	StatusMessage lipgloss.Style
	StatusError   lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	Spinner   lipgloss.Style
	Muted     lipgloss.Style
	Help      lipgloss.Style
	ErrorBox  lipgloss.Style
	LinkStyle lipgloss.Style
}

// NewTheme creates a theme for the detected terminal.
func NewTheme() *Theme {
	return NewNamedTheme("auto")
}

// NewNamedTheme creates a theme for "auto", "dark" or "light". Anything
// else is treated as "auto".
func NewNamedTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()

	switch strings.ToLower(name) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		BorderBottom(true)
	t.TableCell = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.TableSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Background(SelectionBg)
	t.TableBorder = lipgloss.Color("240")

	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
	t.ModalTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Underline(true).
		Padding(0, 1)
	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)
	t.Stars = lipgloss.NewStyle().
		Foreground(Amber)
	t.Prompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.StatusMessage = lipgloss.NewStyle().
		Foreground(Emerald)
	t.StatusError = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Help = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Foreground(Rose).
		Padding(0, 1)
	t.LinkStyle = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// GlamourStyle is the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
