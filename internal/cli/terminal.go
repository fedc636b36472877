// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for coursedeck commands.
//
// Colors are disabled for piped output, when NO_COLOR is set, and when the
// ui.no_color config key is true. FORCE_COLOR overrides TTY detection.

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for tables
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
	colorsDisabled    bool
)

// DisableColors turns colors off regardless of the terminal. Used for the
// ui.no_color config key.
func DisableColors() {
	colorsDisabled = true
}

// ColorsEnabled returns true if colored output should be used.
func ColorsEnabled() bool {
	if colorsDisabled {
		return false
	}
	colorsEnabledOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns Ascii when colors are off, otherwise the detected
// terminal profile.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// TTYRequiredError is returned when an operation requires a TTY but none is available.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}

// RequiresTTY returns an error if stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}
