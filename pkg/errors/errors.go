// Package errors provides structured error types for pybale.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across commands
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the bundling error taxonomy: input errors are fatal and
// reported before any processing, parse/resolution/tool errors are
// recoverable and aggregated into the end-of-run report, and cycle errors
// are fatal and raised before any artifact is written.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFileNotFound, "entry point %s does not exist", path)
//	if errors.Is(err, errors.ErrCodeFileNotFound) {
//	    // Handle missing input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors (fatal before processing starts)
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeNotADirectory Code = "NOT_A_DIRECTORY"
	ErrCodeInvalidModule Code = "INVALID_MODULE"

	// Recoverable per-file conditions (aggregated into the report)
	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeUnresolvedImport Code = "UNRESOLVED_IMPORT"

	// Fatal graph conditions (no artifact is written)
	ErrCodeCycle Code = "CYCLE_DETECTED"

	// External tool errors (artifact already written is preserved)
	ErrCodeToolFailed Code = "TOOL_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
