package chartflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyInput is returned when a request carries no messages.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory tells callers whether a provider failure is worth retrying.
type ErrorCategory string

const (
	// ErrorTransient covers rate limits, overload and other failures that
	// may succeed on retry.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent covers authentication, permission and unknown-model
	// failures.
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput covers malformed requests the caller must change.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is implemented by errors carrying provider failure metadata.
type CategorizedError interface {
	error
	Category() ErrorCategory
	Retryable() bool
	StatusCode() int           // 0 when not an HTTP failure
	RetryAfter() time.Duration // 0 when the server gave no hint
}

// Error is the CategorizedError produced by the provider backends.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int
	RetryDelay time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
func (e *Error) Category() ErrorCategory { return e.Cat }
func (e *Error) Retryable() bool { return e.Cat == ErrorTransient }
func (e *Error) StatusCode() int { return e.Code }
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a retryable error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewPermanentError creates an error that retrying will not fix.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error for a request the caller must correct.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// NewStatusError categorizes an HTTP failure by status code. Any positive
// retryAfter makes the error transient.
func NewStatusError(msg string, code int, retryAfter time.Duration, cause error) *Error {
	cat := ErrorPermanent
	switch {
	case retryAfter > 0, code == 429, code == 529, code >= 500 && code < 600:
		cat = ErrorTransient
	case code == 400, code == 404, code == 413, code == 422:
		cat = ErrorUserInput
	}
	return &Error{Msg: msg, Cat: cat, Code: code, RetryDelay: retryAfter, Cause: cause}
}

func categorized(err error) (CategorizedError, bool) {
	var ce CategorizedError
	ok := errors.As(err, &ce)
	return ce, ok
}

// IsTransient reports whether err, or an error it wraps, is transient.
func IsTransient(err error) bool {
	ce, ok := categorized(err)
	return ok && ce.Category() == ErrorTransient
}

// IsPermanent reports whether err, or an error it wraps, is permanent.
func IsPermanent(err error) bool {
	ce, ok := categorized(err)
	return ok && ce.Category() == ErrorPermanent
}

// IsUserInput reports whether err, or an error it wraps, is a user input error.
func IsUserInput(err error) bool {
	ce, ok := categorized(err)
	return ok && ce.Category() == ErrorUserInput
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	if ce, ok := categorized(err); ok {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the server's retry hint carried by err, or 0.
func RetryAfterOf(err error) time.Duration {
	if ce, ok := categorized(err); ok {
		return ce.RetryAfter()
	}
	return 0
}

// UnmarshalError is returned when a structured reply cannot be decoded
// into the expected type.
type UnmarshalError struct {
	Content    string
	TargetType string
	Err        error
}

func (e *UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal response into %s: %v", e.TargetType, e.Err)
}

func (e *UnmarshalError) Unwrap() error {
	return e.Err
}
