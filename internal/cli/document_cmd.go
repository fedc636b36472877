// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// document_cmd.go - Commands that read and change the course document.
//
// Subtopics are addressed by ID or by their "c-p" table key, e.g. "0-2" for
// the third subtopic of the first competency.

package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/coursedeck/internal/attach"
	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/render"
	"github.com/jeranaias/coursedeck/internal/util"
)

func (a *App) documentCommands() []*cobra.Command {
	return []*cobra.Command{
		a.uploadCommand(),
		a.showCommand(),
		a.refreshCommand(),
		a.refreshAllCommand(),
		a.augmentCommand(),
		a.docsCommand(),
		a.deleteDocCommand(),
		a.selectDocsCommand(),
		a.addCommand(),
		a.attachCommand(),
		a.detachCommand(),
		a.slidesCommand(),
		a.summaryCommand(),
	}
}

// =============================================================================
// ROWS
// =============================================================================

func rowData(r render.Row) RowData {
	return RowData{
		Key:         r.Key(),
		ID:          r.PartID,
		Competency:  r.Competency,
		Subtopic:    r.Name,
		Matches:     r.MatchCount,
		State:       r.State.String(),
		Attachments: r.AttachmentCount,
		Flags:       render.Flags(r),
	}
}

func rowsData(rows []render.Row) []RowData {
	out := make([]RowData, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowData(r))
	}
	return out
}

func attachmentsData(id string, at attach.Attachments) AttachmentsData {
	files := make([]string, 0, len(at.Files))
	for _, f := range at.Files {
		files = append(files, f.Name)
	}
	urls := at.GalleryURLs
	if urls == nil {
		urls = []string{}
	}
	return AttachmentsData{ID: id, Files: files, GalleryURLs: urls, Count: at.Count()}
}

// printRow writes one row as a single status line.
func printRow(w io.Writer, r render.Row) {
	fmt.Fprintf(w, "%s %s %s  %s\n",
		DimStyle.Render(r.Key()), ValueStyle.Render(r.Name), render.StyledMatchLabel(r), DimStyle.Render(render.Flags(r)))
}

// =============================================================================
// UPLOAD
// =============================================================================

// textSink prints stream progress to stderr as it arrives.
type textSink struct {
	a    *App
	seen map[string]bool
}

func (s *textSink) OnStatus(text string) { s.a.progress("%s %s", DimStyle.Render("..."), text) }

func (s *textSink) OnTitle(title string) { s.a.progress("%s", TitleStyle.Render(title)) }

func (s *textSink) OnRows(rows []render.Row) {
	for _, r := range rows {
		if s.seen[r.PartID] {
			continue
		}
		s.seen[r.PartID] = true
		printRow(s.a.errOut, r)
	}
}

func (a *App) uploadCommand() *cobra.Command {
	var stream, buffered bool
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Extract competencies and subtopics from source files",
		Long: `Upload one or more source files for extraction. The current document is
replaced by the result.

With --stream, competencies are applied as the backend emits them.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			useStream := a.cfg.UI.StreamByDefault
			if cmd.Flags().Changed("stream") {
				useStream = stream
			}
			if buffered {
				useStream = false
			}
			res, err := svc.Upload(cmd.Context(), course.UploadInput{Paths: args}, useStream, &textSink{a: a, seen: map[string]bool{}})
			if err != nil {
				return err
			}
			data := UploadData{
				Title:        res.Title,
				Competencies: res.Competencies,
				Subtopics:    res.Parts,
				Unknown:      res.Unknown,
				Streamed:     useStream,
				Files:        args,
			}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s: %d competencies, %d subtopics\n",
					RenderStatus("ok"), res.Title, res.Competencies, res.Parts)
				if res.Unknown > 0 {
					fmt.Fprintf(w, "%s ignored %d unrecognized stream events\n", RenderStatus("warn"), res.Unknown)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "apply NDJSON events as they arrive")
	cmd.Flags().BoolVar(&buffered, "buffered", false, "wait for the full extraction")
	cmd.MarkFlagsMutuallyExclusive("stream", "buffered")
	return cmd
}

// =============================================================================
// SHOW
// =============================================================================

func (a *App) showCommand() *cobra.Command {
	var competency int
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"ls", "table"},
		Short:   "Print the subtopic table",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			doc := svc.Store().Get()
			rows := render.Rows(doc)
			if competency >= 0 {
				if competency >= len(doc.Competencies) {
					return &NotFoundError{Resource: "competency", ID: fmt.Sprint(competency)}
				}
				rows = render.CompetencyRows(doc, competency)
			}
			data := struct {
				Title string    `json:"title"`
				Rows  []RowData `json:"rows"`
			}{doc.MainTopic, rowsData(rows)}
			return a.emit(cmd, data, func(w io.Writer) error {
				if len(rows) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No subtopics. Run 'coursedeck upload <file>' first."))
					return nil
				}
				return render.WriteTable(w, TitleStyle.Render(doc.MainTopic), rows)
			})
		},
	}
	cmd.Flags().IntVarP(&competency, "competency", "c", -1, "only show one competency by index")
	return cmd
}

// =============================================================================
// REFRESH
// =============================================================================

func (a *App) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <subtopic>",
		Short: "Search the backend again for a subtopic's documents",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			row, err := svc.Refresh(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd, rowData(row), func(w io.Writer) error {
				printRow(w, row)
				return nil
			})
		},
	}
}

func (a *App) refreshAllCommand() *cobra.Command {
	var perSecond float64
	cmd := &cobra.Command{
		Use:   "refresh-all",
		Short: "Refresh every subtopic in table order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rate") {
				perSecond = a.cfg.Refresh.RatePerSecond
			}
			data := RefreshAllData{}
			ok, err := svc.RefreshAll(cmd.Context(), a.refreshLimiter(perSecond), func(p course.RefreshProgress) {
				data.Total = p.Total
				if p.Err != nil {
					data.Failed = append(data.Failed, rowData(p.Row))
					a.progress("[%d/%d] %s %s: %v", p.Done, p.Total, RenderStatus("fail"), p.Row.Name, p.Err)
					return
				}
				a.progress("[%d/%d] %s %s", p.Done, p.Total, p.Row.Name, p.Row.MatchLabel())
			})
			data.Refreshed = ok
			if err != nil {
				return err
			}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Refreshed %d/%d subtopics\n", RenderStatus("ok"), data.Refreshed, data.Total)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "requests per second (default refresh.rate_per_second, 0 disables pacing)")
	return cmd
}

// =============================================================================
// AUGMENT
// =============================================================================

func (a *App) augmentCommand() *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "augment <subtopic>",
		Short: "Generate or set the augmented context of a subtopic",
		Long: `Ask the backend for extra context on a subtopic and store it.

With --set the text is stored as given and the backend is not called.
Refresh sends the augmented context along with the subtopic name.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			text := set
			if cmd.Flags().Changed("set") {
				err = svc.SetAugment(cmd.Context(), id, set)
			} else {
				text, err = svc.Augment(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			data := map[string]string{"id": id, "augmented_info": text}
			return a.emit(cmd, data, func(w io.Writer) error {
				return a.printMarkdown(w, text)
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "store this text instead of asking the backend")
	return cmd
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func (a *App) docsCommand() *cobra.Command {
	var links bool
	cmd := &cobra.Command{
		Use:   "docs <subtopic>",
		Short: "List the documents matched to a subtopic",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			p, _ := svc.Store().Part(id)
			view := render.NewDocsView(p)
			tab := render.TabBooks
			if links {
				tab = render.TabLinks
			}
			selected := map[string]bool{}
			for _, d := range p.SelectedDocs {
				selected[d.Metadata.Source+"\x00"+d.PageContent] = true
			}

			type docData struct {
				Index    int     `json:"index"`
				Source   string  `json:"source"`
				Score    float64 `json:"score"`
				Stars    int     `json:"stars"`
				URL      string  `json:"url,omitempty"`
				Selected bool    `json:"selected"`
				Content  string  `json:"content"`
			}
			entries := view.Tab(tab)
			out := make([]docData, 0, len(entries))
			for _, e := range entries {
				out = append(out, docData{
					Index:    e.Index,
					Source:   e.Doc.Metadata.Source,
					Score:    e.Doc.Score,
					Stars:    e.Doc.Stars(),
					URL:      e.URL,
					Selected: selected[e.Doc.Metadata.Source+"\x00"+e.Doc.PageContent],
					Content:  e.Doc.PageContent,
				})
			}
			return a.emit(cmd, out, func(w io.Writer) error {
				fmt.Fprintf(w, "%s  %s  [%s]\n\n", TitleStyle.Render(view.Title), view.Label(), tab)
				if len(out) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No documents in this tab."))
					return nil
				}
				for i, d := range out {
					mark := "[ ]"
					if d.Selected {
						mark = "[x]"
					}
					fmt.Fprintf(w, "%s %2d %s %s\n", mark, d.Index, entries[i].Stars, ValueStyle.Render(d.Source))
					if d.URL != "" {
						fmt.Fprintf(w, "       %s\n", LinkStyle.Render(d.URL))
					}
					fmt.Fprintf(w, "       %s\n", DimStyle.Render(util.TruncateWidth(util.OneLine(d.Content), GetTerminalWidth()-8)))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&links, "links", false, "show the Links tab instead of Books")
	return cmd
}

func (a *App) deleteDocCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-doc <subtopic> <index>",
		Short: "Remove one matched document from a subtopic",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			idx, err := parseIndex("index", args[1])
			if err != nil {
				return err
			}
			row, err := svc.RemoveDoc(cmd.Context(), id, idx)
			if err != nil {
				return err
			}
			return a.emit(cmd, rowData(row), func(w io.Writer) error {
				printRow(w, row)
				return nil
			})
		},
	}
}

func (a *App) selectDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "select-docs <subtopic> [index]...",
		Short: "Choose which documents feed slide generation",
		Long: `Record the documents, by index, used when generating slides for a
subtopic. With no indices the selection is cleared and every matched
document is used.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			indices := make([]int, 0, len(args)-1)
			for _, s := range args[1:] {
				n, err := parseIndex("index", s)
				if err != nil {
					return err
				}
				indices = append(indices, n)
			}
			if err := svc.SelectDocs(cmd.Context(), id, indices); err != nil {
				return err
			}
			data := map[string]any{"id": id, "selected": indices}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %d documents selected\n", RenderStatus("ok"), len(indices))
				return nil
			})
		},
	}
}

// =============================================================================
// SUBTOPICS
// =============================================================================

func (a *App) addCommand() *cobra.Command {
	var competency int
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a subtopic to a competency",
		Long: `Add a subtopic by name. The backend is searched for matching documents
and the new row is appended to the competency.

Without a name the command prompts for one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				p, err := NewLinePrompt()
				if err != nil {
					return ErrMissingArgument("name", "coursedeck add --competency 0 \"Aortic arch\"")
				}
				name, err = p.Ask("Subtopic name: ")
				p.Close()
				if err != nil {
					return err
				}
			}
			row, err := svc.AddSubtopic(cmd.Context(), course.AddSubtopicInput{Competency: competency, Name: name})
			if err != nil {
				return err
			}
			return a.emit(cmd, rowData(row), func(w io.Writer) error {
				printRow(w, row)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&competency, "competency", "c", 0, "competency index")
	return cmd
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func (a *App) attachCommand() *cobra.Command {
	var urls []string
	var description string
	cmd := &cobra.Command{
		Use:   "attach <subtopic> [file]...",
		Short: "Attach desktop files or gallery images to a subtopic",
		Long: `Attach files from disk or gallery image URLs to a subtopic. Files are
also uploaded to the backend store with the description. Attached files are
sent along when slides are generated.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			paths := args[1:]
			if len(paths) == 0 && len(urls) == 0 {
				return &UsageError{Arg: "attachments", Reason: "give at least one file or --url", Example: "coursedeck attach 0-1 diagram.png"}
			}
			at, err := svc.Attach(cmd.Context(), course.AttachInput{PartID: id, Paths: paths, URLs: urls}, description)
			if err != nil {
				return err
			}
			return a.emit(cmd, attachmentsData(id, at), func(w io.Writer) error {
				fmt.Fprintf(w, "%s Attachments: (%d)\n", RenderStatus("ok"), at.Count())
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&urls, "url", nil, "gallery image URL (repeatable)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description sent with uploaded files")
	return cmd
}

func (a *App) detachCommand() *cobra.Command {
	var file, url int
	cmd := &cobra.Command{
		Use:   "detach <subtopic>",
		Short: "Remove one attachment by index",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			isFile := cmd.Flags().Changed("file")
			index := file
			if !isFile {
				if !cmd.Flags().Changed("url") {
					return &UsageError{Arg: "attachment", Reason: "give --file or --url", Example: "coursedeck detach 0-1 --file 0"}
				}
				index = url
			}
			if index < 0 {
				return &UsageError{Arg: "index", Value: fmt.Sprint(index), Reason: "must be a non-negative integer"}
			}
			at, err := svc.Detach(cmd.Context(), id, isFile, index)
			if err != nil {
				return err
			}
			return a.emit(cmd, attachmentsData(id, at), func(w io.Writer) error {
				fmt.Fprintf(w, "%s Attachments: (%d)\n", RenderStatus("ok"), at.Count())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&file, "file", 0, "index of the desktop file to remove")
	cmd.Flags().IntVar(&url, "url", 0, "index of the gallery URL to remove")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	return cmd
}

// =============================================================================
// SLIDES
// =============================================================================

func (a *App) slidesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slides <subtopic>",
		Short: "Generate slides for a subtopic",
		Long: `Generate a slide deck from the subtopic's selected documents, or all
matched documents when none are selected. The first slide is kept as the
subtopic's summary for 'coursedeck summary'.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.resolvePart(args[0])
			if err != nil {
				return err
			}
			a.progress("%s generating slides...", DimStyle.Render("..."))
			deck, err := svc.GenerateSlides(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd, deck, func(w io.Writer) error {
				return a.printMarkdown(w, render.Outline(deck))
			})
		},
	}
}

func (a *App) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <subtopic>...",
		Short: "Generate one summary slide from several subtopics",
		Long: `Build a summary deck from the recorded summaries of the given subtopics.
Generate each subtopic's slides first.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(args))
			for _, ref := range args {
				id, err := a.resolvePart(ref)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			deck, err := svc.SummarySlide(cmd.Context(), course.SummaryInput{PartIDs: ids})
			if err != nil {
				return err
			}
			return a.emit(cmd, deck, func(w io.Writer) error {
				return a.printMarkdown(w, "# Summary\n\n"+render.Outline(deck))
			})
		},
	}
}

// =============================================================================
// MARKDOWN
// =============================================================================

// printMarkdown renders md with glamour on a color terminal and prints it
// raw otherwise.
func (a *App) printMarkdown(w io.Writer, md string) error {
	if !ColorsEnabled() {
		_, err := io.WriteString(w, md+"\n")
		return err
	}
	style := "dark"
	if a.cfg != nil && a.cfg.UI.Theme == "light" {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(GetTerminalWidth()-4),
	)
	if err != nil {
		_, err = io.WriteString(w, md+"\n")
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		out = md + "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}
