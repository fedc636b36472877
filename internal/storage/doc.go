// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value backends that hold the persisted
// copy of the current document.
//
// Every backend stores opaque JSON bytes under a string key. The document
// store above it always writes the whole document, so no backend needs
// partial updates.
//
// # Backends
//
//   - FileKV: one JSON file per key, written atomically (default)
//   - SQLiteKV: a single table in a local SQLite database
//   - RedisKV: plain GET/SET against a Redis server
//
// # Usage
//
//	kv, err := storage.Open(storage.Options{Backend: "file", Dir: dataDir})
//	data, err := kv.Get(ctx, "globalData")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // nothing persisted yet
//	}
//
// # Storage Location
//
// File and SQLite backends default to ~/.coursedeck/data/.
package storage
