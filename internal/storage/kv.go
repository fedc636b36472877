// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// INTERFACE
// =============================================================================

// KV is a minimal byte store keyed by string.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs and status output.
	Name() string

	// Close releases any held resources.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "key not found"}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Key     string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func notFound(key string) error {
	return &StorageError{Message: ErrNotFound.Message, Key: key}
}

// =============================================================================
// FACTORY
// =============================================================================

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Dir      string
	RedisURL string
}

// DefaultDir returns ~/.coursedeck/data.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".coursedeck", "data"), nil
}

// Open creates the backend named in opts.
func Open(opts Options) (KV, error) {
	dir := opts.Dir
	if dir == "" && opts.Backend != BackendRedis {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileKV(dir)
	case BackendSQLite:
		return NewSQLiteKV(filepath.Join(dir, "coursedeck.db"))
	case BackendRedis:
		return NewRedisKV(opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: file, sqlite, redis)", opts.Backend)
	}
}
