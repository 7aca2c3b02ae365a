package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryCompile    Category = "compile"
	CategoryMatch      Category = "match"
	CategoryPreload    Category = "preload"
	CategoryNavigation Category = "navigation"
	CategoryConfig     Category = "config"
)

// NavError is a structured error with a code, category, and fix suggestion.
type NavError struct {
	// Code is a unique error identifier (e.g., "W101").
	Code string

	// Category is the error type (compile, match, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NavError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NavError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a NavError with the same code.
// This lets callers compare against registry sentinels with errors.Is.
func (e *NavError) Is(target error) bool {
	t, ok := target.(*NavError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *NavError) WithDetail(format string, args ...any) *NavError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *NavError) WithSuggestion(s string) *NavError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *NavError) Wrap(err error) *NavError {
	e.Wrapped = err
	return e
}

// New creates a NavError from a registered error code.
func New(code string) *NavError {
	template, ok := registry[code]
	if !ok {
		return &NavError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	// The registry's Detail stays behind as reference documentation;
	// Detail on the error itself is contextual, added via WithDetail.
	return &NavError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new NavError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *NavError {
	return &NavError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a NavError.
func FromError(err error, code string) *NavError {
	if err == nil {
		return nil
	}
	if ne, ok := err.(*NavError); ok {
		return ne
	}
	return New(code).Wrap(err)
}
