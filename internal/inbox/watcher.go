// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package inbox watches a directory for dropped source files and hands
// each one to an ingest function once it has stopped changing.
package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 750 * time.Millisecond

// pollInterval is how often pending files are checked against the debounce.
const pollInterval = 100 * time.Millisecond

// IngestFunc processes one settled file.
type IngestFunc func(ctx context.Context, path string) error

// =============================================================================
// WATCHER
// =============================================================================

// Watcher debounces fsnotify events for one directory. Subdirectories and
// hidden or partial files ("~", ".part", ".tmp") are ignored.
type Watcher struct {
	dir      string
	debounce time.Duration
	ingest   IngestFunc
	log      *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for dir. The directory is created if missing.
func New(dir string, debounce time.Duration, fn IngestFunc, log *zap.Logger) (*Watcher, error) {
	if fn == nil {
		return nil, errors.New("inbox: nil ingest function")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		ingest:   fn,
		log:      log.Named("inbox"),
		watcher:  fw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run processes events until ctx is done, then closes the fsnotify watcher.
// Files are ingested one at a time in name order.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.touch(event.Name)
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.forget(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.log.Info("ingesting", zap.String("path", path))
				if err := w.ingest(ctx, path); err != nil {
					w.log.Error("ingest failed", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

// Pending returns the number of files waiting for the debounce.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Watcher) touch(path string) {
	if Ignored(path) {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// settled removes and returns files quiet for at least the debounce.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// Ignored reports whether a file name looks hidden or still being written.
func Ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".part", ".tmp", ".crdownload", ".swp":
		return true
	}
	return false
}
