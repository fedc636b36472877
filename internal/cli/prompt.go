// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Line-edited prompts for commands that ask for input.
//
// History is kept in ~/.coursedeck/prompt_history so subtopic names typed
// once can be recalled with the arrow keys.

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/coursedeck/internal/config"
)

// ErrAborted is returned when the user presses Ctrl+C at a prompt.
var ErrAborted = errors.New("aborted")

// LinePrompt wraps a liner state with persistent history.
type LinePrompt struct {
	line        *liner.State
	historyFile string
}

// NewLinePrompt opens a prompt on the terminal. Callers must Close it.
func NewLinePrompt() (*LinePrompt, error) {
	if err := RequiresTTY("prompt"); err != nil {
		return nil, err
	}
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	p := &LinePrompt{line: line, historyFile: filepath.Join(dir, "prompt_history")}
	if f, err := os.Open(p.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return p, nil
}

// Ask reads one line. Empty answers are not added to history.
func (p *LinePrompt) Ask(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *LinePrompt) Confirm(question string) (bool, error) {
	answer, err := p.line.Prompt(question + " [y/N] ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (p *LinePrompt) Close() {
	if err := os.MkdirAll(filepath.Dir(p.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = p.line.WriteHistory(f)
			f.Close()
		}
	}
	p.line.Close()
}

// confirm asks on the terminal. Without one the caller must pass --yes.
func (a *App) confirm(question string) (bool, error) {
	p, err := NewLinePrompt()
	if err != nil {
		return false, &UsageError{Arg: "confirmation", Reason: "stdin is not a terminal; pass --yes"}
	}
	defer p.Close()
	return p.Confirm(question)
}
