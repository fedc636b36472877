// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents what the application is doing.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusLoading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns the ASCII indicator for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusLoading:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom line of the table view.
type StatusBar struct {
	Status    Status
	Message   string // status text from the stream or the last action
	Backend   string // backend base URL
	Storage   string // KV backend description
	Subtopics int
	Unmatched int
	Stream    bool // uploads use the NDJSON stream
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, Width: 80, theme: theme}
}

// SetWidth sets the available width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar. Narrow terminals drop the backend and storage.
func (s *StatusBar) View() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	parts := []string{s.statusStyle().Render(s.Status.Icon() + " " + s.Status.String())}
	if s.Message != "" {
		parts = append(parts, s.theme.StatusValue.Render(s.Message))
	}
	parts = append(parts, s.kv("rows", fmt.Sprint(s.Subtopics)))
	if s.Unmatched > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Rose).
			Render(fmt.Sprintf("%d unmatched", s.Unmatched)))
	}
	mode := "buffered"
	if s.Stream {
		mode = "stream"
	}
	parts = append(parts, s.kv("upload", mode))
	if s.Width >= 100 {
		if s.Backend != "" {
			parts = append(parts, s.kv("backend", s.Backend))
		}
		if s.Storage != "" {
			parts = append(parts, s.kv("store", s.Storage))
		}
	}

	line := strings.Join(parts, sep)
	style := s.theme.StatusBar
	if s.Width > 0 {
		style = style.Width(s.Width).MaxWidth(s.Width)
	}
	return style.Render(line)
}

func (s *StatusBar) kv(k, v string) string {
	return s.theme.StatusKey.Render(k+":") + " " + s.theme.StatusValue.Render(v)
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusError:
		return s.theme.StatusError
	case StatusStreaming, StatusLoading:
		return lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	default:
		return s.theme.StatusMessage
	}
}
