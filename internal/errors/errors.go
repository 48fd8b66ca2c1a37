package errors

import (
	"fmt"
)

// FinderError carries an error code plus the classification derived from it.
// Stage code hands these to logging and to the API surface; the code string
// is stable, the message is for humans.
type FinderError struct {
	Code     string
	Message  string
	Category Category
	Severity Severity

	// Details holds extra context for logs, keyed free-form.
	Details map[string]string

	// Cause is the wrapped underlying error, reachable via Unwrap.
	Cause error

	// Retryable marks failures a caller may reasonably try again.
	Retryable bool
}

func (e *FinderError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FinderError) Unwrap() error {
	return e.Cause
}

// Is matches two FinderErrors by code, so errors.Is works across instances
// of the same failure class.
func (e *FinderError) Is(target error) bool {
	if t, ok := target.(*FinderError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail attaches one key-value pair and returns the error for chaining.
func (e *FinderError) WithDetail(key, value string) *FinderError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New builds a FinderError; category, severity and retryability all follow
// from the code.
func New(code string, message string, cause error) *FinderError {
	return &FinderError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap classifies an existing error under a code, keeping it as the cause.
// A nil err yields nil.
func Wrap(code string, err error) *FinderError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError reports unusable configuration.
func ConfigError(message string, cause error) *FinderError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// CatalogError reports a catalog store failure.
func CatalogError(message string, cause error) *FinderError {
	return New(ErrCodeCatalogUnavailable, message, cause)
}

// TimeoutError reports a stage that ran out of its call budget. These always
// resolve into the stage's fallback and never leave the orchestrator.
func TimeoutError(stage string, cause error) *FinderError {
	return New(ErrCodeStageTimeout, fmt.Sprintf("stage %q exceeded its deadline", stage), cause)
}

// MalformedError reports unparsable structured output from an external call.
func MalformedError(message string, cause error) *FinderError {
	return New(ErrCodeMalformedResponse, message, cause)
}

// IsRetryable reports whether err is a FinderError marked retryable.
func IsRetryable(err error) bool {
	if fe, ok := err.(*FinderError); ok {
		return fe.Retryable
	}
	return false
}
