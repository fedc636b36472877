// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the course-authoring backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by error type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Cause == nil && t.StatusCode == 0 && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeBadStatus
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeUnreachable, Message: "backend unreachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrBadStatus   = &ClientError{Type: ErrTypeBadStatus, Message: "unexpected status"}
)

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeTimeout
}

// IsUnreachable reports whether the backend could not be reached.
func IsUnreachable(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeUnreachable
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is where the authoring backend listens by default.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout for non-streaming requests (default: 120s, slide generation is slow)
	Timeout time.Duration

	// Logger receives fail-soft errors. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the authoring backend.
//
// Read endpoints fail soft: they log and return an empty value. Write and
// generate endpoints return errors. Nothing is retried or cached.
//
// The Client is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	log          *zap.Logger
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		// Streams stay open as long as the backend keeps producing.
		streamClient: &http.Client{},
		log:          logger.Named("api"),
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends req and maps transport errors and non-2xx statuses to ClientError.
// The caller owns the returned body.
func (c *Client) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "backend unreachable at " + c.config.BaseURL, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg := req.Method + " " + req.URL.Path + " failed: " + resp.Status
		if detail := readDetail(resp.Body); detail != "" {
			msg += " (" + detail + ")"
		}
		return nil, &ClientError{Type: ErrTypeBadStatus, Message: msg, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// readDetail extracts a FastAPI-style {"detail": ...} message if present.
func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

// send executes req on the buffered client and decodes into out when non-nil.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.do(c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response from " + req.URL.Path, Cause: err}
	}
	return nil
}

// softFail logs an error from a fail-soft endpoint.
func (c *Client) softFail(endpoint string, err error) {
	fields := []zap.Field{zap.String("endpoint", endpoint), zap.Error(err)}
	var ce *ClientError
	if errors.As(err, &ce) && ce.StatusCode != 0 {
		fields = append(fields, zap.Int("status", ce.StatusCode))
	}
	c.log.Warn("request failed", fields...)
}
