// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for coursedeck.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: where the authoring backend listens
//   - StorageConfig: which KV backend holds the persisted document
//   - LoggingConfig: zap level and lumberjack rotation
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (COURSEDECK_*), including any loaded from .env
//   - ~/.coursedeck/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClientWithConfig(&api.ClientConfig{
//	    BaseURL: cfg.Backend.BaseURL,
//	    Timeout: cfg.Backend.Timeout.Duration,
//	})
package config
