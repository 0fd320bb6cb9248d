// Package errors provides coded errors for the repository and transport
// layers.
//
// Codes split failures into retryable ones (a later attempt may succeed, e.g.
// the repository was being rewritten while we read it) and fatal ones (bad
// input, unknown revision). The layout engine never produces these; it has no
// failure modes of its own.
//
//	err := errors.Wrap(errors.ErrCodeNotFound, cause, "unknown revision %q", ref)
//	if errors.Is(err, errors.ErrCodeNotFound) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeRepository   Code = "REPOSITORY"
	ErrCodeInternal     Code = "INTERNAL_ERROR"

	// Retryable
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeUnavailable Code = "UNAVAILABLE"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

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

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err. Context errors map to TIMEOUT, anything
// uncoded to INTERNAL_ERROR, and nil to "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// IsRetryable reports whether retrying the failed operation may succeed.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeTimeout, ErrCodeUnavailable:
		return true
	}
	return false
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
