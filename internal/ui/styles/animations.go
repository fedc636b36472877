// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// LineSpinner - Simple line rotation, shown while a row is refreshing
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// DotsSpinner - Three-dot animation, shown while a stream is open
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Bubbles converts the config to a bubbles spinner.
func (s SpinnerConfig) Bubbles() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.Duration()}
}

// =============================================================================
// PROGRESS INDICATORS
// =============================================================================

// Progress bar characters.
var (
	ProgressFull  = "#"
	ProgressEmpty = "-"
)

// RenderProgressBar renders done out of total as a bar width characters
// wide followed by the count.
func RenderProgressBar(width, done, total int) string {
	if width <= 0 || total <= 0 {
		return ""
	}
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	filled := width * done / total

	var sb strings.Builder
	sb.Grow(width + 16)
	sb.WriteString("[")
	sb.WriteString(strings.Repeat(ProgressFull, filled))
	sb.WriteString(strings.Repeat(ProgressEmpty, width-filled))
	fmt.Fprintf(&sb, "] %d/%d", done, total)
	return sb.String()
}
