// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tools_cmd.go - Export, preview server, inbox watch, TUI, clear, logs and
// version.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/export"
	"github.com/jeranaias/coursedeck/internal/inbox"
	"github.com/jeranaias/coursedeck/internal/logging"
	"github.com/jeranaias/coursedeck/internal/server"
	"github.com/jeranaias/coursedeck/internal/ui"
	"github.com/jeranaias/coursedeck/internal/ui/styles"
)

func (a *App) toolCommands() []*cobra.Command {
	return []*cobra.Command{
		a.exportCommand(),
		a.serveCommand(),
		a.watchCommand(),
		a.tuiCommand(),
		a.clearCommand(),
		a.logsCommand(),
		a.versionCommand(),
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func (a *App) exportCommand() *cobra.Command {
	var format, output string
	var open, noDocs, noMeta bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the course document to a file",
		Long: `Export the current document as markdown, html, json, yaml or xlsx.
The file is named after the main topic and the current time.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			opts := export.DefaultOptions()
			opts.OutputDir = output
			opts.OpenAfterExport = open
			opts.IncludeDocs = !noDocs
			opts.IncludeMetadata = !noMeta
			if a.cfg.UI.Theme == "light" {
				opts.Theme = "light"
			}
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return &UsageError{Arg: "format", Value: format, Reason: err.Error()}
			}
			path, err := export.ExportToFile(svc.Store().Get(), exp, opts)
			if err != nil {
				return err
			}
			return a.emit(cmd, ExportData{Format: format, Path: path}, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Exported to %s\n", RenderStatus("ok"), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html, json, yaml or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&open, "open", false, "open the file afterwards")
	cmd.Flags().BoolVar(&noDocs, "no-docs", false, "omit matched documents")
	cmd.Flags().BoolVar(&noMeta, "no-metadata", false, "omit the metadata header")
	return cmd
}

// =============================================================================
// SERVE
// =============================================================================

func (a *App) serveCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTML preview of the document",
		Long: `Serve the current document on the loopback interface until interrupted.
GET / renders the document, /api/document and /api/rows return JSON.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			srv := server.NewServer(svc.Store(), port,
				server.WithLogger(a.log),
				server.WithTheme(a.cfg.UI.Theme),
			)
			a.progress("%s Preview at %s (Ctrl+C to stop)", RenderStatus("ok"), LinkStyle.Render(srv.URL()))

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "listen port")
	return cmd
}

// =============================================================================
// WATCH
// =============================================================================

func (a *App) watchCommand() *cobra.Command {
	var dir string
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest files dropped into the inbox directory",
		Long: `Watch the inbox directory and stream every new file through extraction
once it has stopped changing. Each file replaces the current document.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Watch.Inbox
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = a.cfg.Watch.Debounce.Duration
			}
			w, err := inbox.New(dir, debounce, a.ingestFile(cmd, svc), a.log)
			if err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			a.progress("%s Watching %s (Ctrl+C to stop)", RenderStatus("ok"), w.Dir())
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "inbox directory (default watch.inbox)")
	cmd.Flags().DurationVar(&debounce, "debounce", inbox.DefaultDebounce, "quiet period before a file is ingested")
	return cmd
}

// ingestFile streams one dropped file. Failures are reported and the watch
// keeps running.
func (a *App) ingestFile(cmd *cobra.Command, svc *course.Service) inbox.IngestFunc {
	return func(ctx context.Context, path string) error {
		res, err := svc.Upload(ctx, course.UploadInput{Paths: []string{path}}, true, &textSink{a: a, seen: map[string]bool{}})
		if err != nil {
			a.progress("%s %s: %v", RenderStatus("fail"), path, err)
			return err
		}
		data := UploadData{
			Title:        res.Title,
			Competencies: res.Competencies,
			Subtopics:    res.Parts,
			Unknown:      res.Unknown,
			Streamed:     true,
			Files:        []string{path},
		}
		return a.emit(cmd, data, func(w io.Writer) error {
			fmt.Fprintf(w, "%s %s: %s, %d subtopics\n", RenderStatus("ok"), path, res.Title, res.Parts)
			return nil
		})
	}
}

// =============================================================================
// TUI
// =============================================================================

func (a *App) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive subtopic table",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
}

func (a *App) runTUI(cmd *cobra.Command) error {
	if err := RequiresTTY("open the table"); err != nil {
		return err
	}
	// Build the logger first with the console core off.
	if _, err := a.config(); err != nil {
		return err
	}
	if _, err := a.logger(false); err != nil {
		return err
	}
	svc, err := a.open(cmd.Context())
	if err != nil {
		return err
	}

	model := ui.New(ui.Options{
		Service:    svc,
		Catalog:    a.client,
		Theme:      styles.NewNamedTheme(a.cfg.UI.Theme),
		Stream:     a.cfg.UI.StreamByDefault,
		BackendURL: a.client.BaseURL(),
		Limiter:    a.refreshLimiter(a.cfg.Refresh.RatePerSecond),
		Logger:     a.log,
		Context:    cmd.Context(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// =============================================================================
// CLEAR
// =============================================================================

func (a *App) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted course document",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := a.confirm("Delete the saved course document?")
				if err != nil {
					return err
				}
				if !ok {
					return &CommandError{Command: "clear", Reason: "not confirmed"}
				}
			}
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Store().Clear(cmd.Context()); err != nil {
				return err
			}
			return a.emit(cmd, map[string]bool{"cleared": true}, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Cleared\n", RenderStatus("ok"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// =============================================================================
// LOGS
// =============================================================================

func (a *App) logsCommand() *cobra.Command {
	var level string
	var limit int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries of the log file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.Logging.File == "" {
				return &UsageError{Arg: "logging.file", Reason: "file logging is disabled"}
			}
			if level != "" {
				if _, err := logging.ParseLevel(level); err != nil {
					return &UsageError{Arg: "level", Value: level, Reason: err.Error()}
				}
			}
			entries, err := logging.Tail(cfg.Logging.File, level, limit)
			if err != nil {
				return err
			}
			return a.emit(cmd, entries, func(w io.Writer) error {
				if len(entries) == 0 {
					fmt.Fprintln(w, DimStyle.Render("No log entries."))
					return nil
				}
				for _, e := range entries {
					lvl := strings.ToLower(e.Level)
					switch lvl {
					case "error":
						lvl = ErrorStyle.Render(lvl)
					case "warn":
						lvl = WarningStyle.Render(lvl)
					default:
						lvl = DimStyle.Render(lvl)
					}
					fmt.Fprintf(w, "%s %-5s %s %s\n", DimStyle.Render(e.Timestamp), lvl, DimStyle.Render(e.Logger), e.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "only this level")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries")
	return cmd
}

// =============================================================================
// VERSION
// =============================================================================

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("coursedeck"), Version)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Commit:"), GitCommit)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Built:"), BuildDate)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Go:"), runtime.Version())
				return nil
			})
		},
	}
}
