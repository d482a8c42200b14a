package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for palicanon.
// It carries a code from the taxonomy in codes.go plus context for logs and CLI output.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, so errors.Is(err, NotFound("")) works for any identifier.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NotFound reports an identifier absent from the index.
func NotFound(id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("identifier not found: %s", id), nil).
		WithDetail("id", id)
}

// MalformedData reports a local file that exists but fails to parse.
func MalformedData(path string, cause error) *Error {
	return New(ErrCodeMalformedLocalData, fmt.Sprintf("malformed local data: %s", path), cause).
		WithDetail("path", path)
}

// Upstream reports a remote service or sync failure.
func Upstream(message string, cause error) *Error {
	return New(ErrCodeUpstreamUnavailable, message, cause)
}

// StageFailed reports a fatal pipeline stage failure.
func StageFailed(stage string, cause error) *Error {
	return New(ErrCodePipelineStage, fmt.Sprintf("pipeline stage %q failed", stage), cause).
		WithDetail("stage", stage)
}

// ConcurrentRun reports a trigger received while a run is active.
func ConcurrentRun() *Error {
	return New(ErrCodeConcurrentRun, "a pipeline run is already in progress", nil).
		WithSuggestion("Wait for the current run to finish, then check 'palicanon status'")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// IsNotFound reports whether err carries the NotFound code anywhere in its chain.
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeNotFound
}

// GetCode extracts the error code from the first Error in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from the first Error in the chain.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}
