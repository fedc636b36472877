// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for coursedeck commands.
//
// Commands always return errors. Execute displays them once, in text or
// JSON, and maps them to an exit code.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/coursedeck/internal/api"
	"github.com/jeranaias/coursedeck/internal/config"
	"github.com/jeranaias/coursedeck/internal/course"
	"github.com/jeranaias/coursedeck/internal/export"
	"github.com/jeranaias/coursedeck/internal/model"
	"github.com/jeranaias/coursedeck/internal/store"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command with context.
type CommandError struct {
	Command string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is bad command-line input.
type UsageError struct {
	Arg     string
	Value   string
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Arg, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError is a missing subtopic, source or key.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to an exit code by type.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var notFound *NotFoundError
	var cfgErrs config.ValidationErrors
	switch {
	case errors.As(err, &usage),
		course.IsValidation(err),
		errors.Is(err, model.ErrNoChapter),
		errors.Is(err, export.ErrEmptyDocument):
		return ExitUsageError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.As(err, &notFound),
		errors.Is(err, store.ErrPartNotFound),
		errors.Is(err, store.ErrDocIndex):
		return ExitNotFoundError
	case api.IsTimeout(err):
		return ExitTimeoutError
	case api.IsUnreachable(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON envelope in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		resp := NewJSONErrorResponse(command, err)
		resp.ErrorType = errorType(err)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitNetworkError:
		return "network_error"
	case ExitTimeoutError:
		return "timeout_error"
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return "command_error"
	}
	return "generic_error"
}

// =============================================================================
// COMMON ERROR CONSTRUCTORS
// =============================================================================

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, example string) error {
	return &UsageError{Arg: argName, Reason: "argument is required", Example: example}
}
