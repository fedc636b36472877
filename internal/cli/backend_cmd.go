// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// backend_cmd.go - Commands that query the backend without touching the
// local document: ingested sources, the gallery and the book index.

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/util"
)

func (a *App) backendCommands() []*cobra.Command {
	return []*cobra.Command{
		a.sourcesCommand(),
		a.imagesCommand(),
		a.tocCommand(),
		a.chaptersCommand(),
	}
}

// =============================================================================
// SOURCES
// =============================================================================

func (a *App) sourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List or delete notes ingested by the backend",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listSources(cmd, false)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List ingested notes",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listSources(cmd, false)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one note",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			ack, err := client.DeleteSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, ack, func(w io.Writer) error {
				msg := ack.Message
				if msg == "" {
					msg = "deleted " + args[0]
				}
				fmt.Fprintf(w, "%s %s\n", RenderStatus("ok"), msg)
				return nil
			})
		},
	}

	var yes bool
	delAll := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every note on the backend",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := a.confirm("Delete every note on the backend?")
				if err != nil {
					return err
				}
				if !ok {
					return &CommandError{Command: "sources delete-all", Reason: "not confirmed"}
				}
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			client.DeleteAllSources(cmd.Context())
			return a.emit(cmd, map[string]bool{"requested": true}, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Delete requested\n", RenderStatus("ok"))
				return nil
			})
		},
	}
	delAll.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, del, delAll)
	return cmd
}

func (a *App) imagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List gallery images that can be attached with 'attach --url'",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listSources(cmd, true)
		},
	}
}

func (a *App) listSources(cmd *cobra.Command, imagesOnly bool) error {
	client, err := a.backend()
	if err != nil {
		return err
	}
	var sources []model.Source
	if imagesOnly {
		for _, s := range client.FetchImages(cmd.Context()) {
			if s.IsImage() {
				sources = append(sources, s)
			}
		}
		if sources == nil {
			sources = []model.Source{}
		}
	} else {
		sources = client.ListSources(cmd.Context())
	}
	return a.emit(cmd, sources, func(w io.Writer) error {
		if len(sources) == 0 {
			fmt.Fprintln(w, DimStyle.Render("Nothing found."))
			return nil
		}
		width := GetTerminalWidth()
		for _, s := range sources {
			title := s.Title
			if imagesOnly {
				title = LinkStyle.Render(title)
			}
			fmt.Fprintf(w, "%s %s\n", DimStyle.Render(util.PadWidth(string(s.ID), 8)), title)
			if s.Summary != "" {
				fmt.Fprintf(w, "         %s\n", DimStyle.Render(util.TruncateWidth(util.OneLine(s.Summary), width-10)))
			}
		}
		return nil
	})
}

// =============================================================================
// BOOK INDEX
// =============================================================================

func (a *App) tocCommand() *cobra.Command {
	var sel model.TOCSelection
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Show the book table of contents or resolve a selection",
		Long: `Print the table of contents of the indexed book. With --chapter, print
the deepest entry selected by --chapter, --section and --subsection.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			toc := client.FetchTOC(cmd.Context())
			if !cmd.Flags().Changed("chapter") {
				if toc == nil {
					toc = &model.TOC{Chapters: []model.TOCEntry{}}
				}
				return a.emit(cmd, toc, func(w io.Writer) error {
					if len(toc.Chapters) == 0 {
						fmt.Fprintln(w, DimStyle.Render("No table of contents available."))
						return nil
					}
					writeTOC(w, toc.Chapters, "")
					return nil
				})
			}
			entry, err := toc.Resolve(sel)
			if err != nil {
				return err
			}
			data := map[string]any{"label": entry.Label(), "entry": entry}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "Selected %s\n", ValueStyle.Render(entry.Label()))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&sel.Chapter, "chapter", -1, "chapter index")
	cmd.Flags().IntVar(&sel.Section, "section", -1, "section index within the chapter")
	cmd.Flags().IntVar(&sel.Subsection, "subsection", -1, "subsection index within the section")
	return cmd
}

func writeTOC(w io.Writer, entries []model.TOCEntry, indent string) {
	for i, e := range entries {
		fmt.Fprintf(w, "%s%s %s\n", indent, DimStyle.Render(fmt.Sprintf("%d.", i)), e.Label())
		writeTOC(w, e.Subsections, indent+"   ")
	}
}

func (a *App) chaptersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters",
		Short: "List indexed books and their chapters",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			books := client.FetchIndexedChapters(cmd.Context())
			return a.emit(cmd, books, func(w io.Writer) error {
				if len(books) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No indexed books."))
					return nil
				}
				for _, b := range books {
					fmt.Fprintln(w, SectionStyle.Render(b.FileName))
					for _, ch := range b.ChapterNames {
						fmt.Fprintf(w, "  - %s\n", ch)
					}
				}
				return nil
			})
		},
	}
}
