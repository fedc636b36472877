// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/ui/components"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action names a user intent. Keys, modals and prompts all resolve to a
// Command carrying one of these, and dispatch is the only place they run.
type Action int

const (
	ActionNone Action = iota
	ActionRefresh
	ActionRefreshAll
	ActionOpenDocs
	ActionDeleteDoc
	ActionSelectDocs
	ActionAugment
	ActionShowInfo
	ActionEditInfo
	ActionSetInfo
	ActionSlides
	ActionMark
	ActionSummary
	ActionPromptAdd
	ActionAdd
	ActionPromptUpload
	ActionUpload
	ActionPromptAttach
	ActionAttachFiles
	ActionGallery
	ActionAttachURLs
	ActionTOC
	ActionResolveTOC
	ActionPromptFilter
	ActionSetFilter
	ActionToggleStream
	ActionHelp
	ActionClose
	ActionQuit
)

// Command is one dispatched action with its arguments.
type Command struct {
	Action  Action
	PartID  string
	Index   int
	Text    string
	Paths   []string
	Indices []int
	URLs    []string
}

// keyToCommand maps a table-view key to a command on the selected row.
func (a App) keyToCommand(msg tea.KeyMsg) Command {
	k := a.keys
	partID := ""
	if row, ok := a.selectedRow(); ok {
		partID = row.PartID
	}
	switch {
	case key.Matches(msg, k.Quit):
		return Command{Action: ActionQuit}
	case key.Matches(msg, k.Close):
		return Command{Action: ActionClose}
	case key.Matches(msg, k.Help):
		return Command{Action: ActionHelp}
	case key.Matches(msg, k.Stream):
		return Command{Action: ActionToggleStream}
	case key.Matches(msg, k.Docs):
		return Command{Action: ActionOpenDocs, PartID: partID}
	case key.Matches(msg, k.Refresh):
		return Command{Action: ActionRefresh, PartID: partID}
	case key.Matches(msg, k.RefreshAll):
		return Command{Action: ActionRefreshAll}
	case key.Matches(msg, k.Augment):
		return Command{Action: ActionAugment, PartID: partID}
	case key.Matches(msg, k.ShowInfo):
		return Command{Action: ActionShowInfo, PartID: partID}
	case key.Matches(msg, k.EditInfo):
		return Command{Action: ActionEditInfo, PartID: partID}
	case key.Matches(msg, k.Slides):
		return Command{Action: ActionSlides, PartID: partID}
	case key.Matches(msg, k.Mark):
		return Command{Action: ActionMark, PartID: partID}
	case key.Matches(msg, k.Summary):
		return Command{Action: ActionSummary}
	case key.Matches(msg, k.Add):
		return Command{Action: ActionPromptAdd, PartID: partID}
	case key.Matches(msg, k.Upload):
		return Command{Action: ActionPromptUpload}
	case key.Matches(msg, k.Attach):
		return Command{Action: ActionPromptAttach, PartID: partID}
	case key.Matches(msg, k.Gallery):
		return Command{Action: ActionGallery, PartID: partID}
	case key.Matches(msg, k.TOC):
		return Command{Action: ActionTOC}
	case key.Matches(msg, k.Filter):
		return Command{Action: ActionPromptFilter}
	}
	return Command{}
}

// =============================================================================
// KEY ROUTING
// =============================================================================

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even from a prompt.
	if msg.Type == tea.KeyCtrlC {
		return a.dispatch(Command{Action: ActionQuit})
	}

	switch a.mode {
	case ModePrompt:
		return a.handlePromptKey(msg)
	case ModeDocs:
		return a.handleDocsKey(msg)
	case ModeInfo, ModeHelp:
		if key.Matches(msg, a.keys.Close, a.keys.Quit, a.keys.Help) {
			return a.dispatch(Command{Action: ActionClose})
		}
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	case ModeSlides:
		return a.handleSlidesKey(msg)
	case ModeGallery:
		return a.handleGalleryKey(msg)
	case ModeTOC:
		return a.handleTOCKey(msg)
	}

	c := a.keyToCommand(msg)
	if c.Action != ActionNone {
		return a.dispatch(c)
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close):
		return a.dispatch(Command{Action: ActionClose})
	case key.Matches(msg, a.keys.Submit):
		return a.dispatch(a.promptCommand(a.input.Value()))
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.promptErr = ""
	if a.prompt == promptFilter {
		a.filter = strings.TrimSpace(a.input.Value())
		a.applyFilter()
	}
	return a, cmd
}

// promptCommand turns submitted prompt text into the command it stands for.
func (a App) promptCommand(text string) Command {
	switch a.prompt {
	case promptAdd:
		return Command{Action: ActionAdd, Index: a.promptComp, Text: text}
	case promptUpload:
		return Command{Action: ActionUpload, Paths: strings.Fields(text)}
	case promptAttach:
		return Command{Action: ActionAttachFiles, PartID: a.promptPart, Paths: strings.Fields(text)}
	case promptFilter:
		return Command{Action: ActionSetFilter, Text: text}
	case promptAugment:
		return Command{Action: ActionSetInfo, PartID: a.promptPart, Text: text}
	}
	return Command{Action: ActionClose}
}

func (a App) handleDocsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := a.docs
	switch {
	case key.Matches(msg, a.keys.Close, a.keys.Quit):
		return a.dispatch(Command{Action: ActionClose})
	case key.Matches(msg, a.keys.Up):
		d.move(-1)
	case key.Matches(msg, a.keys.Down):
		d.move(1)
	case key.Matches(msg, a.keys.NextTab):
		d.switchTab()
	case key.Matches(msg, a.keys.Toggle):
		d.toggle()
	case key.Matches(msg, a.keys.Delete):
		if e, ok := d.current(); ok {
			return a.dispatch(Command{Action: ActionDeleteDoc, PartID: d.partID, Index: e.Index})
		}
	case key.Matches(msg, a.keys.Save, a.keys.Submit):
		return a.dispatch(Command{Action: ActionSelectDocs, PartID: d.partID, Indices: d.selectedIndices()})
	}
	return a, nil
}

func (a App) handleSlidesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close, a.keys.Quit):
		return a.dispatch(Command{Action: ActionClose})
	case key.Matches(msg, a.keys.Prev):
		a.slides.Prev()
	case key.Matches(msg, a.keys.Next):
		a.slides.Next()
	case key.Matches(msg, a.keys.Mode):
		a.slides.Toggle()
	default:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	a.refreshViewport()
	return a, nil
}

func (a App) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close, a.keys.Quit):
		return a.dispatch(Command{Action: ActionClose})
	case key.Matches(msg, a.keys.Up):
		a.gallery.move(-1)
	case key.Matches(msg, a.keys.Down):
		a.gallery.move(1)
	case key.Matches(msg, a.keys.Toggle):
		a.gallery.toggle()
	case key.Matches(msg, a.keys.Submit):
		return a.dispatch(Command{Action: ActionAttachURLs, PartID: a.gallery.partID, URLs: a.gallery.urls()})
	}
	return a, nil
}

func (a App) handleTOCKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close, a.keys.Quit):
		return a.dispatch(Command{Action: ActionClose})
	case key.Matches(msg, a.keys.Up):
		a.toc.move(-1)
	case key.Matches(msg, a.keys.Down):
		a.toc.move(1)
	case key.Matches(msg, a.keys.Submit):
		return a.dispatch(Command{Action: ActionResolveTOC})
	}
	return a, nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// dispatch runs one command. Commands that need the network return a
// tea.Cmd; everything else changes the model in place.
func (a App) dispatch(c Command) (tea.Model, tea.Cmd) {
	a.log.Debug("dispatch", zap.Int("action", int(c.Action)), zap.String("part", c.PartID))

	switch c.Action {
	case ActionQuit:
		a.cancels.cancel()
		return a, tea.Quit

	case ActionClose:
		if a.mode == ModeTable {
			if a.cancels.cancel() {
				a.toasts.AddWarning("Cancelled")
			}
			if a.filter != "" {
				a.filter = ""
				a.applyFilter()
			}
			return a, nil
		}
		a.closeOverlay()
		return a, nil

	case ActionHelp:
		if a.mode == ModeHelp {
			a.closeOverlay()
		} else {
			a.mode = ModeHelp
		}
		return a, nil

	case ActionToggleStream:
		a.stream = !a.stream
		a.status.Stream = a.stream
		a.toasts.AddStatus(fmt.Sprintf("Streaming uploads: %t", a.stream))
		return a, nil

	case ActionPromptFilter:
		a.openPrompt(promptFilter, "", a.filter)
		return a, nil

	case ActionSetFilter:
		a.filter = strings.TrimSpace(c.Text)
		a.applyFilter()
		a.closeOverlay()
		return a, nil

	case ActionPromptUpload:
		if a.loading {
			a.toasts.AddWarning("Busy: wait for the current operation")
			return a, nil
		}
		a.openPrompt(promptUpload, "", "")
		return a, nil

	case ActionUpload:
		if len(c.Paths) == 0 {
			a.promptErr = "Enter at least one file path"
			return a, nil
		}
		a.closeOverlay()
		return a.startUpload(c.Paths)

	case ActionRefreshAll:
		if a.loading {
			a.toasts.AddWarning("Busy: wait for the current operation")
			return a, nil
		}
		if len(a.rows) == 0 {
			a.toasts.AddWarning("Nothing to refresh")
			return a, nil
		}
		return a.startRefreshAll()

	case ActionSummary:
		ids := a.markedIDs()
		if len(ids) == 0 {
			a.toasts.AddWarning("Mark subtopics with m first")
			return a, nil
		}
		a.loading = true
		a.status.Status = components.StatusLoading
		return a, tea.Batch(a.spinner.Tick, a.summaryCmd(ids))

	case ActionTOC:
		if a.catalog == nil {
			return a, nil
		}
		a.loading = true
		a.status.Status = components.StatusLoading
		return a, a.tocCmd()

	case ActionResolveTOC:
		entry, err := a.toc.resolve()
		if err != nil {
			a.toasts.AddError(err.Error())
			return a, nil
		}
		a.closeOverlay()
		a.toasts.AddSuccess("Selected " + entry.Label())
		return a, nil

	case ActionPromptAdd:
		a.openPrompt(promptAdd, c.PartID, "")
		if pos, ok := a.svc.Store().Locate(c.PartID); ok {
			a.promptComp = pos.Comp
		}
		return a, nil

	case ActionAdd:
		name := course.NormalizeName(c.Text)
		if name == "" {
			a.promptErr = "Subtopic name is required"
			return a, nil
		}
		a.closeOverlay()
		a.loading = true
		a.status.Status = components.StatusLoading
		return a, tea.Batch(a.spinner.Tick, a.addCmd(c.Index, name))
	}

	// Everything below acts on one subtopic.
	if c.PartID == "" {
		if c.Action != ActionNone {
			a.toasts.AddWarning("No subtopic selected")
		}
		return a, nil
	}

	switch c.Action {
	case ActionOpenDocs:
		p, ok := a.svc.Store().Part(c.PartID)
		if !ok {
			return a, nil
		}
		a.docs = newDocsModal(p)
		a.mode = ModeDocs
		return a, nil

	case ActionDeleteDoc:
		if a.docs != nil {
			a.docs.removed(c.Index)
		}
		return a, a.deleteDocCmd(c.PartID, c.Index)

	case ActionSelectDocs:
		a.closeOverlay()
		return a, a.selectDocsCmd(c.PartID, c.Indices)

	case ActionRefresh:
		if a.busy[c.PartID] {
			return a, nil
		}
		a.busy[c.PartID] = true
		return a, tea.Batch(a.spinner.Tick, a.refreshCmd(c.PartID))

	case ActionAugment:
		if a.busy[c.PartID] {
			return a, nil
		}
		a.busy[c.PartID] = true
		return a, tea.Batch(a.spinner.Tick, a.augmentCmd(c.PartID))

	case ActionShowInfo:
		return a.openInfo(c.PartID), nil

	case ActionEditInfo:
		p, _ := a.svc.Store().Part(c.PartID)
		a.openPrompt(promptAugment, c.PartID, p.AugmentedInfo)
		return a, nil

	case ActionSetInfo:
		a.closeOverlay()
		return a, a.setInfoCmd(c.PartID, c.Text)

	case ActionSlides:
		a.loading = true
		a.status.Status = components.StatusLoading
		return a, tea.Batch(a.spinner.Tick, a.slidesCmd(c.PartID))

	case ActionMark:
		if a.marked[c.PartID] {
			delete(a.marked, c.PartID)
		} else {
			a.marked[c.PartID] = true
		}
		a.applyFilter()
		return a, nil

	case ActionPromptAttach:
		a.openPrompt(promptAttach, c.PartID, "")
		return a, nil

	case ActionAttachFiles:
		if len(c.Paths) == 0 {
			a.promptErr = "Enter at least one file path"
			return a, nil
		}
		a.closeOverlay()
		return a, a.attachCmd(course.AttachInput{PartID: c.PartID, Paths: c.Paths})

	case ActionGallery:
		if a.catalog == nil {
			return a, nil
		}
		a.loading = true
		a.status.Status = components.StatusLoading
		return a, a.galleryCmd()

	case ActionAttachURLs:
		a.closeOverlay()
		if len(c.URLs) == 0 {
			return a, nil
		}
		return a, a.attachCmd(course.AttachInput{PartID: c.PartID, URLs: c.URLs})
	}
	return a, nil
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (a *App) openPrompt(kind promptKind, partID, value string) {
	a.prompt = kind
	a.promptPart = partID
	a.promptComp = 0
	a.promptErr = ""
	a.input.Placeholder = kind.title()
	a.input.SetValue(value)
	a.input.CursorEnd()
	a.input.Focus()
	a.mode = ModePrompt
}

func (a *App) closeOverlay() {
	a.input.Blur()
	a.input.SetValue("")
	a.promptErr = ""
	a.docs = nil
	a.gallery = nil
	a.toc = nil
	a.slides = nil
	a.overlayTitle = ""
	a.mode = ModeTable
}

func (a App) openInfo(partID string) App {
	p, ok := a.svc.Store().Part(partID)
	if !ok {
		return a
	}
	if strings.TrimSpace(p.AugmentedInfo) == "" {
		a.toasts.AddWarning("No augmented info yet; press a to generate it")
		return a
	}
	a.overlayTitle = "Augmented info: " + p.Name
	a.mode = ModeInfo
	a.viewport.SetContent(a.markdown(p.AugmentedInfo))
	a.viewport.GotoTop()
	return a
}

func (a *App) refreshViewport() {
	if a.mode == ModeSlides && a.slides != nil {
		a.viewport.SetContent(a.markdown(a.slides.Markdown()))
		a.viewport.GotoTop()
	}
}

func (a App) markedIDs() []string {
	var ids []string
	for _, r := range a.rows {
		if a.marked[r.PartID] {
			ids = append(ids, r.PartID)
		}
	}
	return ids
}

// =============================================================================
// LONG-RUNNING OPERATIONS
// =============================================================================

// startUpload runs the upload in a goroutine and feeds its callbacks back
// through a channel. uploadDoneMsg is always the last message sent.
func (a App) startUpload(paths []string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancels.set(cancel)

	ch := make(chan tea.Msg, 16)
	a.events = ch
	a.loading = true
	a.title = ""
	a.rows = nil
	a.marked = make(map[string]bool)
	a.applyFilter()
	if a.stream {
		a.status.Status = components.StatusStreaming
	} else {
		a.status.Status = components.StatusLoading
	}
	a.status.Message = "Uploading..."

	svc, stream := a.svc, a.stream
	go func() {
		defer close(ch)
		res, err := svc.Upload(ctx, course.UploadInput{Paths: paths}, stream, chanSink{ctx: ctx, ch: ch})
		// Delivered even after a cancel so the UI leaves its loading state.
		ch <- uploadDoneMsg{Result: res, Err: err}
	}()
	return a, tea.Batch(a.spinner.Tick, listen(ch))
}

// startRefreshAll refreshes every row in order; each finished row arrives
// as a refreshProgressMsg.
func (a App) startRefreshAll() (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancels.set(cancel)

	ch := make(chan tea.Msg, 16)
	a.events = ch
	a.loading = true
	a.status.Status = components.StatusLoading
	a.status.Message = "Refreshing..."

	svc, limiter := a.svc, a.limiter
	go func() {
		defer close(ch)
		sink := chanSink{ctx: ctx, ch: ch}
		n, err := svc.RefreshAll(ctx, limiter, func(p course.RefreshProgress) {
			sink.send(refreshProgressMsg{p})
		})
		ch <- refreshAllDoneMsg{OK: n, Err: err}
	}()
	return a, tea.Batch(a.spinner.Tick, listen(ch))
}

func (a App) refreshCmd(partID string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		row, err := svc.Refresh(ctx, partID)
		return refreshDoneMsg{PartID: partID, Row: row, Err: err}
	}
}

func (a App) deleteDocCmd(partID string, index int) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		row, err := svc.RemoveDoc(ctx, partID, index)
		return docsChangedMsg{PartID: partID, Note: fmt.Sprintf("%s: %s", row.Name, row.MatchLabel()), Err: err}
	}
}

func (a App) selectDocsCmd(partID string, indices []int) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		err := svc.SelectDocs(ctx, partID, indices)
		return docsChangedMsg{PartID: partID, Note: fmt.Sprintf("Selected %d documents", len(indices)), Err: err}
	}
}

func (a App) augmentCmd(partID string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		text, err := svc.Augment(ctx, partID)
		return augmentDoneMsg{PartID: partID, Text: text, Err: err}
	}
}

func (a App) setInfoCmd(partID, text string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		err := svc.SetAugment(ctx, partID, text)
		return docsChangedMsg{PartID: partID, Note: "Augmented info saved", Err: err}
	}
}

func (a App) slidesCmd(partID string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		p, _ := svc.Store().Part(partID)
		deck, err := svc.GenerateSlides(ctx, partID)
		return slidesDoneMsg{Title: p.Name, Deck: deck, Err: err}
	}
}

func (a App) summaryCmd(ids []string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		deck, err := svc.SummarySlide(ctx, course.SummaryInput{PartIDs: ids})
		return slidesDoneMsg{Title: "Summary", Deck: deck, Err: err}
	}
}

func (a App) addCmd(comp int, name string) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		row, err := svc.AddSubtopic(ctx, course.AddSubtopicInput{Competency: comp, Name: name})
		return addDoneMsg{Row: row, Err: err}
	}
}

func (a App) attachCmd(in course.AttachInput) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		att, err := svc.Attach(ctx, in, "")
		return attachDoneMsg{PartID: in.PartID, Count: att.Count(), Err: err}
	}
}

func (a App) galleryCmd() tea.Cmd {
	catalog, ctx := a.catalog, a.ctx
	return func() tea.Msg {
		return galleryLoadedMsg{Sources: catalog.FetchImages(ctx)}
	}
}

func (a App) tocCmd() tea.Cmd {
	catalog, ctx := a.catalog, a.ctx
	return func() tea.Msg {
		return tocLoadedMsg{TOC: catalog.FetchTOC(ctx)}
	}
}
