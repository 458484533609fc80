// Package errors provides structured error types for ifcwatch.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP feed and the node host
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - CLIPBOARD_*, RESIZE_*, STORE_*: failures of a specific collaborator
//   - INTERNAL_*: Unexpected internal errors
//
// Render-path conditions (absent data, unrecognized shapes, malformed
// elements) are never reported through this package: they degrade to a
// visible state instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidMode, "unknown display mode: %s", mode)
//	if errors.Is(err, errors.ErrCodeInvalidMode) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "update node %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidMode    Code = "INVALID_MODE"
	ErrCodeInvalidPayload Code = "INVALID_PAYLOAD"
	ErrCodeInvalidStatus  Code = "INVALID_STATUS"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidNodeID  Code = "INVALID_NODE_ID"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	// Collaborator errors
	ErrCodeClipboardUnavailable Code = "CLIPBOARD_UNAVAILABLE"
	ErrCodeResizeActive         Code = "RESIZE_ACTIVE"
	ErrCodeStore                Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsValidation reports whether err carries one of the INVALID_* codes.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidMode, ErrCodeInvalidPayload,
		ErrCodeInvalidStatus, ErrCodeInvalidConfig, ErrCodeInvalidNodeID:
		return true
	}
	return false
}

// IsNotFound reports whether err carries one of the *_NOT_FOUND codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeFileNotFound, ErrCodeNodeNotFound:
		return true
	}
	return false
}
