// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/ingest"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/ui/components"
	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

// =============================================================================
// VIEW MODES
// =============================================================================

// Mode is what currently owns the keyboard.
type Mode int

const (
	ModeTable Mode = iota
	ModePrompt
	ModeDocs
	ModeInfo
	ModeSlides
	ModeGallery
	ModeTOC
	ModeHelp
)

// promptKind is what a submitted prompt turns into.
type promptKind int

const (
	promptAdd promptKind = iota
	promptUpload
	promptAttach
	promptFilter
	promptAugment
)

func (p promptKind) title() string {
	switch p {
	case promptAdd:
		return "New subtopic"
	case promptUpload:
		return "Upload files (space separated paths)"
	case promptAttach:
		return "Attach files (space separated paths)"
	case promptFilter:
		return "Filter subtopics"
	case promptAugment:
		return "Augmented info"
	default:
		return ""
	}
}

// Catalog is the backend lookup used by the gallery and TOC pickers.
type Catalog interface {
	FetchImages(ctx context.Context) []model.Source
	FetchTOC(ctx context.Context) *model.TOC
}

// Options configures an App.
type Options struct {
	Service    *course.Service
	Catalog    Catalog
	Theme      *styles.Theme
	Stream     bool
	BackendURL string
	Limiter    *rate.Limiter
	Logger     *zap.Logger
	Context    context.Context
}

// =============================================================================
// APP MODEL
// =============================================================================

// App is the Bubble Tea model for the course table.
type App struct {
	svc     *course.Service
	catalog Catalog
	theme   *styles.Theme
	log     *zap.Logger
	keys    KeyMap
	limiter *rate.Limiter
	ctx     context.Context

	width  int
	height int
	mode   Mode
	stream bool

	// Table state
	title   string
	rows    []render.Row
	visible []int
	filter  string
	marked  map[string]bool
	busy    map[string]bool
	loading bool

	// Widgets
	table    table.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	status   *components.StatusBar
	toasts   *components.ToastManager

	// Modal state
	prompt       promptKind
	promptPart   string
	promptComp   int
	promptErr    string
	docs         *docsModal
	gallery      *galleryModal
	toc          *tocModal
	slides       *render.Navigator
	overlayTitle string

	events  <-chan tea.Msg
	cancels *cancelManager
}

// New builds the App and loads the current document into the table.
func New(opts Options) App {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Prompt = "> "
	ti.PromptStyle = theme.Prompt

	sp := spinner.New(spinner.WithSpinner(styles.LineSpinner.Bubbles()))
	sp.Style = theme.Spinner

	tbl := table.New(table.WithColumns(columns(100)), table.WithFocused(true), table.WithHeight(10))
	ts := table.DefaultStyles()
	ts.Header = theme.TableHeader
	ts.Selected = theme.TableSelected
	tbl.SetStyles(ts)

	status := components.NewStatusBar(theme)
	status.Backend = opts.BackendURL
	status.Stream = opts.Stream
	if opts.Service != nil {
		status.Storage = opts.Service.Store().Backend()
	}

	a := App{
		svc:      opts.Service,
		catalog:  opts.Catalog,
		theme:    theme,
		log:      log.Named("ui"),
		keys:     DefaultKeyMap(),
		limiter:  opts.Limiter,
		ctx:      ctx,
		width:    100,
		height:   30,
		stream:   opts.Stream,
		marked:   make(map[string]bool),
		busy:     make(map[string]bool),
		table:    tbl,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		help:     help.New(),
		status:   status,
		toasts:   components.NewToastManager(),
		cancels:  newCancelManager(),
	}
	a.reloadRows()
	return a
}

// Init starts the toast ticker.
func (a App) Init() tea.Cmd {
	return components.ToastTickCmd()
}

// Mode returns the current view mode.
func (a App) Mode() Mode { return a.mode }

// Rows returns the rows currently in the table, before filtering.
func (a App) Rows() []render.Row { return a.rows }

// Title returns the document title shown in the header.
func (a App) Title() string { return a.title }

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case components.ToastTickMsg:
		a.toasts.Tick()
		return a, components.ToastTickCmd()

	case spinner.TickMsg:
		if !a.loading && len(a.busy) == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	// Stream and bulk refresh messages arrive through a.events.
	case streamStatusMsg:
		a.status.Message = msg.Text
		return a, listen(a.events)

	case streamTitleMsg:
		a.title = msg.Title
		return a, listen(a.events)

	case streamRowsMsg:
		a.rows = append(a.rows, msg.Rows...)
		a.applyFilter()
		return a, listen(a.events)

	case uploadDoneMsg:
		return a.finishUpload(msg), nil

	case refreshProgressMsg:
		a.status.Message = styles.RenderProgressBar(20, msg.Done, msg.Total)
		if msg.Err != nil {
			a.log.Warn("bulk refresh row failed", zap.String("part", msg.Row.Name), zap.Error(msg.Err))
		}
		a.reloadRows()
		return a, listen(a.events)

	case refreshAllDoneMsg:
		a.loading = false
		a.events = nil
		a.cancels.cancel()
		a.status.Status = components.StatusReady
		a.status.Message = ""
		a.reloadRows()
		if msg.Err != nil {
			a.toasts.AddWarning(fmt.Sprintf("Refresh stopped after %d subtopics: %v", msg.OK, msg.Err))
		} else {
			a.toasts.AddSuccess(fmt.Sprintf("Refreshed %d/%d subtopics", msg.OK, len(a.rows)))
		}
		return a, nil

	case refreshDoneMsg:
		delete(a.busy, msg.PartID)
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		a.toasts.AddSuccess(fmt.Sprintf("%s: %s", msg.Row.Name, msg.Row.MatchLabel()))
		return a, nil

	case docsChangedMsg:
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		if a.docs != nil && a.docs.partID == msg.PartID {
			if p, ok := a.svc.Store().Part(msg.PartID); ok {
				a.docs.reload(p)
			}
		}
		if msg.Note != "" {
			a.toasts.AddSuccess(msg.Note)
		}
		return a, nil

	case augmentDoneMsg:
		delete(a.busy, msg.PartID)
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		return a.openInfo(msg.PartID), nil

	case slidesDoneMsg:
		a.loading = false
		a.status.Status = components.StatusReady
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		a.slides = render.NewNavigator(msg.Deck)
		a.overlayTitle = msg.Title
		a.mode = ModeSlides
		a.refreshViewport()
		return a, nil

	case attachDoneMsg:
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		a.toasts.AddSuccess(fmt.Sprintf("Attachments: (%d)", msg.Count))
		return a, nil

	case addDoneMsg:
		a.loading = false
		a.status.Status = components.StatusReady
		if msg.Err != nil {
			a.toasts.AddError(errorText(msg.Err))
			return a, nil
		}
		a.reloadRows()
		a.selectPart(msg.Row.PartID)
		a.toasts.AddSuccess(fmt.Sprintf("Added %s: %s", msg.Row.Name, msg.Row.MatchLabel()))
		return a, nil

	case galleryLoadedMsg:
		a.loading = false
		a.status.Status = components.StatusReady
		row, ok := a.selectedRow()
		if !ok {
			return a, nil
		}
		a.gallery = newGalleryModal(row.PartID, msg.Sources)
		if len(a.gallery.images) == 0 {
			a.toasts.AddWarning("No gallery images available")
			a.gallery = nil
			return a, nil
		}
		a.mode = ModeGallery
		return a, nil

	case tocLoadedMsg:
		a.loading = false
		a.status.Status = components.StatusReady
		if msg.TOC == nil || len(msg.TOC.Chapters) == 0 {
			a.toasts.AddWarning("No table of contents available")
			return a, nil
		}
		a.toc = newTOCModal(msg.TOC)
		a.mode = ModeTOC
		return a, nil
	}
	return a, nil
}

func (a App) finishUpload(msg uploadDoneMsg) App {
	a.loading = false
	a.events = nil
	a.cancels.cancel()
	a.reloadRows()
	if msg.Err != nil {
		a.status.Status = components.StatusError
		if errors.Is(msg.Err, ingest.ErrLoad) {
			a.status.Message = "Error loading data"
		} else {
			a.status.Message = errorText(msg.Err)
		}
		a.toasts.AddError(a.status.Message)
		return a
	}
	a.status.Status = components.StatusReady
	a.status.Message = ""
	a.toasts.AddSuccess(fmt.Sprintf("Loaded %d competencies, %d subtopics", msg.Result.Competencies, msg.Result.Parts))
	return a
}

// =============================================================================
// TABLE STATE
// =============================================================================

// reloadRows rebuilds the rows from the store. Row positions are
// regenerated, so the cursor follows the selected part by ID.
func (a *App) reloadRows() {
	var selected string
	if row, ok := a.selectedRow(); ok {
		selected = row.PartID
	}
	if a.svc != nil {
		doc := a.svc.Store().Get()
		a.title = doc.MainTopic
		a.rows = render.Rows(doc)
	}
	for id := range a.marked {
		if !a.hasPart(id) {
			delete(a.marked, id)
		}
	}
	a.applyFilter()
	if selected != "" {
		a.selectPart(selected)
	}
}

func (a *App) hasPart(id string) bool {
	for _, r := range a.rows {
		if r.PartID == id {
			return true
		}
	}
	return false
}

// applyFilter recomputes the visible rows and pushes them into the table.
func (a *App) applyFilter() {
	if a.filter == "" {
		a.visible = make([]int, len(a.rows))
		for i := range a.rows {
			a.visible[i] = i
		}
	} else {
		labels := make([]string, len(a.rows))
		for i, r := range a.rows {
			labels[i] = r.Competency + " " + r.Name
		}
		a.visible = components.Filter(a.filter, labels)
	}

	trows := make([]table.Row, 0, len(a.visible))
	unmatched := 0
	for _, i := range a.visible {
		trows = append(trows, a.tableRow(a.rows[i]))
	}
	for _, r := range a.rows {
		if r.State == render.Unmatched {
			unmatched++
		}
	}
	a.table.SetRows(trows)
	if c := a.table.Cursor(); c >= len(trows) {
		a.table.SetCursor(max(len(trows)-1, 0))
	}
	a.status.Subtopics = len(a.rows)
	a.status.Unmatched = unmatched
}

func (a *App) tableRow(r render.Row) table.Row {
	key := r.Key()
	switch {
	case a.busy[r.PartID]:
		key = a.spinner.View() + key
	case a.marked[r.PartID]:
		key = "*" + key
	}
	return table.Row{
		key,
		r.Competency,
		r.Name,
		r.MatchLabel(),
		fmt.Sprintf("(%d)", r.AttachmentCount),
		render.Flags(r),
	}
}

func (a App) selectedRow() (render.Row, bool) {
	c := a.table.Cursor()
	if c < 0 || c >= len(a.visible) {
		return render.Row{}, false
	}
	return a.rows[a.visible[c]], true
}

func (a *App) selectPart(partID string) {
	for vi, ri := range a.visible {
		if a.rows[ri].PartID == partID {
			a.table.SetCursor(vi)
			return
		}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (a App) resize(width, height int) App {
	a.width, a.height = width, height
	a.theme.SetSize(width, height)
	a.status.SetWidth(width)
	a.help.Width = width
	a.input.Width = max(width-10, 10)
	a.table.SetColumns(columns(width))
	a.table.SetHeight(max(height-8, 3))
	a.viewport.Width = max(width-6, 20)
	a.viewport.Height = max(height-8, 5)
	a.refreshViewport()
	return a
}

// columns sizes the table to width. The subtopic column takes the slack.
func columns(width int) []table.Column {
	const key, matches, files, flags = 6, 13, 5, 16
	comp := 22
	if width < 100 {
		comp = 14
	}
	name := width - key - comp - matches - files - flags - 14
	if name < 12 {
		name = 12
	}
	return []table.Column{
		{Title: "#", Width: key},
		{Title: "Competency", Width: comp},
		{Title: "Subtopic", Width: name},
		{Title: "Matches", Width: matches},
		{Title: "Files", Width: files},
		{Title: "Flags", Width: flags},
	}
}

func errorText(err error) string {
	var verrs course.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Message
	}
	var verr *course.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return strings.TrimSpace(err.Error())
}
