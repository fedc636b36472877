// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnored(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.pdf", false},
		{"/in/Chapter 1.docx", false},
		{".hidden.pdf", true},
		{"draft.pdf~", true},
		{"big.pdf.part", true},
		{"x.TMP", true},
		{"file.crdownload", true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Ignored(tc.path))
		})
	}
}

func TestNew_RequiresFunc(t *testing.T) {
	_, err := New(t.TempDir(), 0, nil, nil)
	assert.Error(t, err)
}

func TestNew_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w, err := New(dir, 0, func(context.Context, string) error { return nil }, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, w.Dir())
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestSettled_Debounce(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, time.Second, func(context.Context, string) error { return nil }, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	now := time.Now()
	w.pending["b.pdf"] = now.Add(-2 * time.Second)
	w.pending["a.pdf"] = now.Add(-3 * time.Second)
	w.pending["c.pdf"] = now

	ready := w.settled(now)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, ready)
	assert.Equal(t, 1, w.Pending())
}

func TestTouch_SkipsDirsAndPartials(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, time.Second, func(context.Context, string) error { return nil }, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	partial := filepath.Join(dir, "x.part")
	require.NoError(t, os.WriteFile(partial, []byte("x"), 0o644))
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("x"), 0o644))

	w.touch(sub)
	w.touch(partial)
	w.touch(good)
	w.touch(filepath.Join(dir, "missing.txt"))
	assert.Equal(t, 1, w.Pending())

	w.forget(good)
	assert.Equal(t, 0, w.Pending())
}

func TestRun_IngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 1)

	w, err := New(dir, 50*time.Millisecond, func(_ context.Context, path string) error {
		mu.Lock()
		got = append(got, filepath.Base(path))
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lecture.txt"), []byte("cardiology"), 0o644))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("file was not ingested")
	}
	cancel()
	require.NoError(t, <-errc)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Equal(t, "lecture.txt", got[0])
}
