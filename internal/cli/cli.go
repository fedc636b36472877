// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/config"
	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/logging"
	"github.com/jeranaias/coursedeck/internal/storage"
	"github.com/jeranaias/coursedeck/internal/store"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP
// =============================================================================

// App holds the global flags and the wiring shared by every command. The
// client, store and service are built on first use so that config and
// version never touch storage or the network.
type App struct {
	out    io.Writer
	errOut io.Writer

	// Global flags
	jsonMode   bool
	configPath string
	backendURL string
	storageOpt string
	verbose    bool

	cfg     *config.Config
	log     *zap.Logger
	client  *api.Client
	kv      storage.KV
	store   *store.Store
	service *course.Service
}

// NewApp creates an App writing to out and errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{out: out, errOut: errOut}
}

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "coursedeck",
		Short: "Course authoring client for the slide backend",
		Long: `coursedeck uploads course documents to the authoring backend, keeps the
extracted competencies and subtopics in a local store, and generates slides.

Run without arguments on a terminal to open the interactive table.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if IsTTY() && IsStdoutTTY() {
				return a.runTUI(cmd)
			}
			return cmd.Help()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Arg: "flag", Reason: err.Error(), Example: cmd.UseLine()}
	})

	pf := root.PersistentFlags()
	pf.BoolVar(&a.jsonMode, "json", false, "print one JSON response envelope")
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.coursedeck/config.toml)")
	pf.StringVar(&a.backendURL, "backend", "", "backend base URL (overrides backend.base_url)")
	pf.StringVar(&a.storageOpt, "storage", "", "storage backend: file, sqlite or redis")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddGroup(
		&cobra.Group{ID: "document", Title: "Course Commands:"},
		&cobra.Group{ID: "backend", Title: "Backend Commands:"},
		&cobra.Group{ID: "tools", Title: "Tool Commands:"},
	)
	for _, c := range a.documentCommands() {
		c.GroupID = "document"
		root.AddCommand(c)
	}
	for _, c := range a.backendCommands() {
		c.GroupID = "backend"
		root.AddCommand(c)
	}
	for _, c := range a.toolCommands() {
		c.GroupID = "tools"
		root.AddCommand(c)
	}
	root.AddCommand(a.configCommand())
	root.SetHelpCommandGroupID("tools")
	root.SetCompletionCommandGroupID("tools")
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return NewApp(os.Stdout, os.Stderr).Run(ctx, args)
}

// Run executes args against a fresh command tree.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.Close()
	root := a.RootCommand()
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}
	name := root.Name()
	if cmd != nil {
		name = cmd.CommandPath()
	}
	w := a.errOut
	if a.jsonMode {
		w = a.out
	}
	DisplayError(w, name, err, a.jsonMode)
	if a.log != nil {
		a.log.Error("command failed", zap.String("command", name), zap.Error(err))
	}
	return GetExitCode(err)
}

// Close releases the storage backend and flushes the log.
func (a *App) Close() {
	if a.kv != nil {
		_ = a.kv.Close()
		a.kv = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// =============================================================================
// LAZY WIRING
// =============================================================================

// config loads the config file once and applies flag overrides.
func (a *App) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if a.backendURL != "" {
		cfg.Backend.BaseURL = a.backendURL
	}
	if a.storageOpt != "" {
		cfg.Storage.Backend = a.storageOpt
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.UI.NoColor {
		DisableColors()
	}
	applyColorProfile()
	a.cfg = cfg
	return cfg, nil
}

// logger builds the zap logger. The console core is off for the TUI so log
// lines never paint over the screen.
func (a *App) logger(console bool) (*zap.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{
		Level:         level,
		File:          cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxBackups:    cfg.Logging.MaxBackups,
		Console:       console && (cfg.Logging.Console || a.verbose),
		ConsoleWriter: a.errOut,
	})
	if err != nil {
		return nil, err
	}
	a.log = log
	return log, nil
}

// backend returns the API client.
func (a *App) backend() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	log, err := a.logger(true)
	if err != nil {
		return nil, err
	}
	a.client = api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout.Duration,
		Logger:  log,
	})
	return a.client, nil
}

// open builds the store and service and loads the persisted document.
func (a *App) open(ctx context.Context) (*course.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	client, err := a.backend()
	if err != nil {
		return nil, err
	}
	kv, err := storage.Open(storage.Options{
		Backend:  cfg.Storage.Backend,
		Dir:      cfg.Storage.Dir,
		RedisURL: cfg.Storage.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.kv = kv
	a.store = store.New(kv, store.WithKey(cfg.Storage.Key), store.WithLogger(a.log))
	if err := a.store.Load(ctx); err != nil {
		return nil, err
	}
	a.service = course.NewService(client, a.store, a.log)
	a.log.Debug("store opened", zap.String("backend", a.store.Backend()), zap.String("key", a.store.Key()))
	return a.service, nil
}

// refreshLimiter paces bulk refreshes. Zero or less disables pacing.
func (a *App) refreshLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// =============================================================================
// OUTPUT
// =============================================================================

// emit prints data as a JSON envelope in JSON mode, otherwise calls human.
func (a *App) emit(cmd *cobra.Command, data any, human func(w io.Writer) error) error {
	if a.jsonMode {
		resp := NewJSONResponse(cmd.CommandPath(), data)
		if ColorsEnabled() {
			b, err := resp.Bytes()
			if err != nil {
				return err
			}
			return highlightJSON(a.out, b)
		}
		return resp.Write(a.out)
	}
	return human(a.out)
}

// progress writes human-readable progress to stderr.
func (a *App) progress(format string, args ...any) {
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

// =============================================================================
// ARGUMENTS
// =============================================================================

var keyPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// resolvePart accepts a subtopic ID or its "c-p" table key.
func (a *App) resolvePart(ref string) (string, error) {
	if m := keyPattern.FindStringSubmatch(ref); m != nil {
		ci, _ := strconv.Atoi(m[1])
		pi, _ := strconv.Atoi(m[2])
		if id, ok := a.store.PartAt(store.Position{Comp: ci, Part: pi}); ok {
			return id, nil
		}
		return "", &NotFoundError{Resource: "subtopic", ID: ref}
	}
	if _, ok := a.store.Part(ref); ok {
		return ref, nil
	}
	return "", &NotFoundError{Resource: "subtopic", ID: ref}
}

func parseIndex(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &UsageError{Arg: name, Value: s, Reason: "must be a non-negative integer"}
	}
	return n, nil
}

// exactArgs is cobra.ExactArgs reporting a UsageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &UsageError{Arg: "arguments", Reason: fmt.Sprintf("accepts %d arg(s), received %d", n, len(args)), Example: cmd.UseLine()}
		}
		return nil
	}
}

// minArgs is cobra.MinimumNArgs reporting a UsageError.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return &UsageError{Arg: "arguments", Reason: fmt.Sprintf("requires at least %d arg(s), received %d", n, len(args)), Example: cmd.UseLine()}
		}
		return nil
	}
}
