// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger shared by every component.
//
// Records go to a rotated JSON file and, optionally, to a human-readable
// console core. The TUI turns the console core off so log lines never paint
// over the screen.
package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	Level      string // debug, info, warn, error
	File       string // empty disables the file core
	MaxSizeMB  int
	MaxBackups int
	Console    bool
	// ConsoleWriter defaults to stderr.
	ConsoleWriter io.Writer
}

// ParseLevel maps a level name to a zap level. Unknown names are an error.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// New builds a logger from opts. With neither a file nor the console
// enabled it returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     30,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(rotator),
			lvl,
		))
	}
	if opts.Console {
		w := opts.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(enc),
			zapcore.Lock(zapcore.AddSync(w)),
			lvl,
		))
	}
	if len(cores) == 0 {
		return Nop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

func fileEncoderConfig() zapcore.EncoderConfig {
	c := zap.NewProductionEncoderConfig()
	c.TimeKey = "timestamp"
	c.EncodeTime = zapcore.ISO8601TimeEncoder
	c.MessageKey = "message"
	c.LevelKey = "level"
	c.EncodeLevel = zapcore.CapitalLevelEncoder
	return c
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// =============================================================================
// READING
// =============================================================================

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"-"`
}

// Tail returns the last limit entries of the log file at path, newest
// first, optionally filtered by level. A missing file yields no entries.
func Tail(path, level string, limit int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var raw map[string]any
		if json.Unmarshal(sc.Bytes(), &raw) != nil {
			continue
		}
		e := Entry{Fields: map[string]any{}}
		for k, v := range raw {
			s, _ := v.(string)
			switch k {
			case "timestamp":
				e.Timestamp = s
			case "level":
				e.Level = s
			case "logger":
				e.Logger = s
			case "message":
				e.Message = s
			case "caller":
			default:
				e.Fields[k] = v
			}
		}
		if level != "" && !strings.EqualFold(e.Level, level) {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
