// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for coursedeck.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value and save the file
//   reset               Write the default configuration
//   path                Show configuration file path
//
// Examples:
//   coursedeck config set backend.base_url http://10.0.0.5:8000
//   coursedeck config set storage.backend sqlite
//   coursedeck config set refresh.rate_per_second 0.5
//   coursedeck config get ui.theme --json
//
// Keys use dot notation, see 'coursedeck config show' for the full list.

package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/coursedeck/internal/config"
)

func (a *App) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "View and modify configuration",
		GroupID: "tools",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig(cmd)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig(cmd)
		},
	}

	get := &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one configuration value",
		Args:      exactArgs(1),
		ValidArgs: config.AllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return &NotFoundError{Resource: "config key", ID: args[0]}
			}
			data := map[string]any{"key": args[0], "value": v}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintln(w, v)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value and save the file",
		Args:      exactArgs(2),
		ValidArgs: config.AllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			cfg, err := loadForEdit(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				if strings.HasPrefix(err.Error(), "unknown field") {
					return &NotFoundError{Resource: "config key", ID: args[0]}
				}
				return &UsageError{Arg: args[0], Value: args[1], Reason: err.Error()}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			v, _ := cfg.Get(args[0])
			data := map[string]any{"key": args[0], "value": v, "path": path}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s = %v\n", RenderStatus("ok"), args[0], v)
				return nil
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Write the default configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			if err := config.SaveTo(config.Default(), path); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"path": path}, func(w io.Writer) error {
				fmt.Fprintf(w, "%s Reset %s\n", RenderStatus("ok"), path)
				return nil
			})
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			_, statErr := os.Stat(path)
			data := map[string]any{"path": path, "exists": statErr == nil}
			return a.emit(cmd, data, func(w io.Writer) error {
				fmt.Fprintln(w, path)
				return nil
			})
		},
	}

	cmd.AddCommand(show, get, set, reset, pathCmd)
	return cmd
}

// configFile is --config or the default path.
func (a *App) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}

// loadForEdit reads path, or defaults when the file does not exist yet.
func loadForEdit(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.LoadFrom(path)
}

func (a *App) showConfig(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	keys := config.AllKeys()
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && key == "storage.redis_url" {
			v = redactURL(s)
		}
		values[key] = v
	}
	return a.emit(cmd, values, func(w io.Writer) error {
		fmt.Fprintln(w, TitleStyle.Render("coursedeck configuration"))
		section := ""
		for _, key := range keys {
			sec, name, _ := strings.Cut(key, ".")
			if sec != section {
				section = sec
				fmt.Fprintln(w, SectionStyle.Render("["+sec+"]"))
			}
			fmt.Fprintf(w, "  %s%s\n", RenderLabel(name), ValueStyle.Render(fmt.Sprint(values[key])))
		}
		return nil
	})
}

// redactURL hides the password of a URL with user info.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, has := u.User.Password(); !has {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "REDACTED")
	return u.String()
}
