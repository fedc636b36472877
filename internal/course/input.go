// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package course

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// INPUTS
// =============================================================================

// AddSubtopicInput is a new subtopic typed by the user.
type AddSubtopicInput struct {
	Competency int    `validate:"gte=0"`
	Name       string `validate:"required,max=200"`
}

// UploadInput is a set of source files for extraction.
type UploadInput struct {
	Paths []string `validate:"required,min=1,dive,required"`
}

// AugmentInput names the subtopic to augment.
type AugmentInput struct {
	Topic    string `validate:"omitempty,max=200"`
	Subtopic string `validate:"required,max=200"`
}

// AttachInput adds files or gallery URLs to a subtopic.
type AttachInput struct {
	PartID string   `validate:"required"`
	Paths  []string `validate:"dive,required"`
	URLs   []string `validate:"dive,url"`
}

// SummaryInput lists the subtopics whose summaries feed the summary slide.
type SummaryInput struct {
	PartIDs []string `validate:"required,min=1,dive,required"`
}

// NormalizeName trims a subtopic name and converts it to NFC so visually
// identical names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a rejected user input. It is shown inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is every problem found in one input.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// IsValidation reports whether err is a user input problem.
func IsValidation(err error) bool {
	var one *ValidationError
	var many ValidationErrors
	return errors.As(err, &one) || errors.As(err, &many)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks v against its struct tags.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "Name" || fe.Field() == "Subtopic" {
			return "please enter a valid subtopic"
		}
		return "is required"
	case "min":
		return fmt.Sprintf("needs at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "url":
		return fmt.Sprintf("%q is not a URL", fe.Value())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
