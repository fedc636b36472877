// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jeranaias/coursedeck/internal/util"
)

// FileKV stores each key as a JSON file under BaseDir.
type FileKV struct {
	// BaseDir is the directory holding one file per key.
	BaseDir string
}

// NewFileKV creates the directory if needed.
func NewFileKV(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &StorageError{Message: "failed to create data directory", Key: baseDir, Cause: err}
	}
	return &FileKV{BaseDir: baseDir}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func (f *FileKV) path(key string) string {
	return filepath.Join(f.BaseDir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get reads the file for key.
func (f *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(key)
		}
		return nil, &StorageError{Message: "failed to read", Key: key, Cause: err}
	}
	return data, nil
}

// Put writes the file for key atomically.
func (f *FileKV) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := util.AtomicWriteFile(f.path(key), data, 0644); err != nil {
		return &StorageError{Message: "failed to write", Key: key, Cause: err}
	}
	return nil
}

// Delete removes the file for key.
func (f *FileKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Message: "failed to delete", Key: key, Cause: err}
	}
	return nil
}

// Name returns a description including the directory.
func (f *FileKV) Name() string {
	return fmt.Sprintf("file:%s", f.BaseDir)
}

// Close is a no-op.
func (f *FileKV) Close() error {
	return nil
}
