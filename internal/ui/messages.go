// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/ingest"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// streamStatusMsg carries a status line from the extraction stream.
type streamStatusMsg struct{ Text string }

// streamTitleMsg carries the main topic once the stream names it.
type streamTitleMsg struct{ Title string }

// streamRowsMsg carries the rows of one competency as it arrives.
type streamRowsMsg struct{ Rows []render.Row }

// uploadDoneMsg ends an upload, streamed or buffered.
type uploadDoneMsg struct {
	Result ingest.Result
	Err    error
}

// refreshProgressMsg reports one finished row of a bulk refresh.
type refreshProgressMsg struct{ course.RefreshProgress }

// refreshAllDoneMsg ends a bulk refresh.
type refreshAllDoneMsg struct {
	OK  int
	Err error
}

// =============================================================================
// ACTION RESULTS
// =============================================================================

type refreshDoneMsg struct {
	PartID string
	Row    render.Row
	Err    error
}

type docsChangedMsg struct {
	PartID string
	Note   string
	Err    error
}

type augmentDoneMsg struct {
	PartID string
	Text   string
	Err    error
}

type slidesDoneMsg struct {
	Title string
	Deck  *model.SlideDeck
	Err   error
}

type attachDoneMsg struct {
	PartID string
	Count  int
	Err    error
}

type addDoneMsg struct {
	Row render.Row
	Err error
}

type galleryLoadedMsg struct{ Sources []model.Source }

type tocLoadedMsg struct{ TOC *model.TOC }

// =============================================================================
// CHANNEL BRIDGE
// =============================================================================

// chanSink forwards ingestion callbacks to the Update loop. Sends give up
// once ctx is done so a quitting UI never blocks the upload goroutine.
type chanSink struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (s chanSink) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.ctx.Done():
	}
}

func (s chanSink) OnStatus(text string) { s.send(streamStatusMsg{Text: text}) }
func (s chanSink) OnTitle(title string) { s.send(streamTitleMsg{Title: title}) }
func (s chanSink) OnRows(rows []render.Row) { s.send(streamRowsMsg{Rows: rows}) }

// listen waits for the next message on ch. A closed channel yields nil.
func listen(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
