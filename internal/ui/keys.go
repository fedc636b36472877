// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the table view bindings. Modals reuse Up, Down, Close and
// Submit.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Docs       key.Binding
	Refresh    key.Binding
	RefreshAll key.Binding
	Augment    key.Binding
	ShowInfo   key.Binding
	EditInfo   key.Binding
	Slides     key.Binding
	Mark       key.Binding
	Summary    key.Binding
	Add        key.Binding
	Upload     key.Binding
	Attach     key.Binding
	Gallery    key.Binding
	TOC        key.Binding
	Filter     key.Binding
	Stream     key.Binding
	Help       key.Binding
	Close      key.Binding
	Submit     key.Binding
	Quit       key.Binding

	// Modal bindings
	NextTab key.Binding
	Delete  key.Binding
	Toggle  key.Binding
	Save    key.Binding
	Prev    key.Binding
	Next    key.Binding
	Mode    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		Docs: key.NewBinding(
			key.WithKeys("enter", "d"),
			key.WithHelp("Enter/d", "matched docs"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh docs"),
		),
		RefreshAll: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh all"),
		),
		Augment: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "augment"),
		),
		ShowInfo: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "augmented info"),
		),
		EditInfo: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit info"),
		),
		Slides: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "slides"),
		),
		Mark: key.NewBinding(
			key.WithKeys("m", " "),
			key.WithHelp("m/Space", "mark for summary"),
		),
		Summary: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "summary slide"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new subtopic"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload files"),
		),
		Attach: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "attach files"),
		),
		Gallery: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "image gallery"),
		),
		TOC: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "table of contents"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Stream: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "toggle streaming"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close/cancel"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "confirm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q/C-c", "quit"),
		),

		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "books/links"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete doc"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "toggle"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save selection"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "previous slide"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next slide"),
		),
		Mode: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "outline/slideshow"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown under the table.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Docs, k.Refresh, k.Slides, k.Upload, k.Help, k.Quit}
}

// FullHelp returns the grouped bindings shown by the help toggle.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter, k.Docs},
		{k.Refresh, k.RefreshAll, k.Augment, k.ShowInfo, k.EditInfo},
		{k.Slides, k.Mark, k.Summary},
		{k.Add, k.Upload, k.Attach, k.Gallery, k.TOC},
		{k.Stream, k.Help, k.Close, k.Quit},
	}
}
