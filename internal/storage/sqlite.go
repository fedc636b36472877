// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteSchema holds one row per key.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteKV stores keys in a local SQLite database.
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// NewSQLiteKV opens or creates the database at path.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serialises writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteKV{db: db, path: path}, nil
}

// Get returns the value for key.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(key)
		}
		return nil, &StorageError{Message: "failed to read", Key: key, Cause: err}
	}
	return value, nil
}

// Put upserts the value for key.
func (s *SQLiteKV) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return &StorageError{Message: "failed to write", Key: key, Cause: err}
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &StorageError{Message: "failed to delete", Key: key, Cause: err}
	}
	return nil
}

// Name returns a description including the database path.
func (s *SQLiteKV) Name() string {
	return "sqlite:" + s.path
}

// Close closes the database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
