// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for coursedeck.
//
// Configuration file location: ~/.coursedeck/config.toml, then built-in
// defaults. COURSEDECK_* environment variables are applied last.
package config

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/coursedeck/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete coursedeck configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Watch   WatchConfig   `toml:"watch" json:"watch"`
	Refresh RefreshConfig `toml:"refresh" json:"refresh"`
}

// BackendConfig points at the authoring backend.
type BackendConfig struct {
	BaseURL string   `toml:"base_url" json:"base_url"`
	Timeout Duration `toml:"timeout" json:"timeout"`
}

// StorageConfig selects where the persisted document lives.
type StorageConfig struct {
	// Backend is file, sqlite or redis.
	Backend  string `toml:"backend" json:"backend"`
	Dir      string `toml:"dir" json:"dir"`
	Key      string `toml:"key" json:"key"`
	RedisURL string `toml:"redis_url" json:"redis_url"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	Console    bool   `toml:"console" json:"console"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme           string `toml:"theme" json:"theme"`
	StreamByDefault bool   `toml:"stream_by_default" json:"stream_by_default"`
	NoColor         bool   `toml:"no_color" json:"no_color"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Inbox    string   `toml:"inbox" json:"inbox"`
	Debounce Duration `toml:"debounce" json:"debounce"`
}

// RefreshConfig paces bulk document refreshes.
type RefreshConfig struct {
	RatePerSecond float64 `toml:"rate_per_second" json:"rate_per_second"`
}

// Duration is a time.Duration written as "90s" in config files.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultKey     = "globalData"
)

// Default returns a config with every field set to its default.
func Default() *Config {
	dir, _ := ConfigDir()
	return &Config{
		Backend: BackendConfig{
			BaseURL: DefaultBaseURL,
			Timeout: Duration{120 * time.Second},
		},
		Storage: StorageConfig{
			Backend:  "file",
			Dir:      filepath.Join(dir, "data"),
			Key:      DefaultKey,
			RedisURL: "redis://127.0.0.1:6379/0",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(dir, "logs", "coursedeck.log"),
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		UI: UIConfig{
			Theme:           "auto",
			StreamByDefault: true,
		},
		Watch: WatchConfig{
			Inbox:    filepath.Join(dir, "inbox"),
			Debounce: Duration{750 * time.Millisecond},
		},
		Refresh: RefreshConfig{
			RatePerSecond: 2,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the coursedeck configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".coursedeck"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.coursedeck/config.toml if it exists, then applies
// environment overrides and validates.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from a specific TOML file with full validation.
// Fields missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that would make the config unusable.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = d.Backend.BaseURL
	}
	if c.Backend.Timeout.Duration == 0 {
		c.Backend.Timeout = d.Backend.Timeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}
	if c.Storage.Key == "" {
		c.Storage.Key = d.Storage.Key
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Watch.Debounce.Duration == 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
	if c.Refresh.RatePerSecond == 0 {
		c.Refresh.RatePerSecond = d.Refresh.RatePerSecond
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg as TOML to path. The write is atomic.
func SaveTo(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# coursedeck configuration file\n")
	b.WriteString("# Generated by coursedeck - edit with care\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends  = map[string]bool{"file": true, "sqlite": true, "redis": true}
	validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validThemes    = map[string]bool{"auto": true, "dark": true, "light": true}
)

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("invalid URL %q", c.Backend.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	}
	if c.Backend.Timeout.Duration < 0 {
		errs = append(errs, ValidationError{Field: "backend.timeout", Message: "must not be negative"})
	}

	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, redis", c.Storage.Backend),
		})
	}
	if strings.EqualFold(c.Storage.Backend, "redis") && c.Storage.RedisURL == "" {
		errs = append(errs, ValidationError{Field: "storage.redis_url", Message: "required for the redis backend"})
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{Field: "logging", Message: "sizes must not be negative"})
	}

	if c.UI.Theme != "" && !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if c.Watch.Debounce.Duration < 0 {
		errs = append(errs, ValidationError{Field: "watch.debounce", Message: "must not be negative"})
	}
	if c.Refresh.RatePerSecond < 0 {
		errs = append(errs, ValidationError{Field: "refresh.rate_per_second", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - COURSEDECK_BACKEND_URL: backend.base_url
//   - COURSEDECK_TIMEOUT: backend.timeout
//   - COURSEDECK_STORAGE: storage.backend
//   - COURSEDECK_DATA_DIR: storage.dir
//   - COURSEDECK_REDIS_URL: storage.redis_url
//   - COURSEDECK_LOG_LEVEL: logging.level
//   - COURSEDECK_NO_COLOR / NO_COLOR: ui.no_color
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("COURSEDECK_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("COURSEDECK_TIMEOUT"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil {
			c.Backend.Timeout = d
		}
	}
	if v := os.Getenv("COURSEDECK_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("COURSEDECK_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("COURSEDECK_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("COURSEDECK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("COURSEDECK_NO_COLOR"); v != "" {
		c.UI.NoColor = parseBool(v)
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.NoColor = true
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.base_url").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if d, ok := field.Interface().(Duration); ok {
		return d.String(), nil
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "storage.backend").
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. "base_url" becomes "BaseUrl", which matches BaseURL case-insensitively.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(strVal))
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// AllKeys returns all configuration keys in dot notation.
func AllKeys() []string {
	return []string{
		"backend.base_url",
		"backend.timeout",
		"storage.backend",
		"storage.dir",
		"storage.key",
		"storage.redis_url",
		"logging.level",
		"logging.file",
		"logging.max_size_mb",
		"logging.max_backups",
		"logging.console",
		"ui.theme",
		"ui.stream_by_default",
		"ui.no_color",
		"watch.inbox",
		"watch.debounce",
		"refresh.rate_per_second",
	}
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON with the Redis URL redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if u, err := url.Parse(safe.Storage.RedisURL); err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "REDACTED")
			safe.Storage.RedisURL = u.String()
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
