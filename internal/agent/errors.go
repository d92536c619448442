// Package agent defines the error taxonomy shared by the gates, the
// orchestrator, and the HTTP surface. Every failure a turn can produce is
// reported as an *Error with a machine-readable kind, so callers can map
// failures to responses without string matching.
package agent

import (
	"errors"
	"fmt"
)

// Kind categorizes a turn failure.
type Kind string

const (
	// KindSecurityRejection means the input was judged not to be a
	// legitimate feature request.
	KindSecurityRejection Kind = "security_rejection"
	// KindContextDeviation means a follow-up message was judged unrelated
	// to the session's feature discussion.
	KindContextDeviation Kind = "context_deviation"
	// KindParsingError means the model output could not be parsed even
	// after a repair attempt.
	KindParsingError Kind = "parsing_error"
	// KindValidationError means parsed output failed a structural check,
	// such as a document with no usable title.
	KindValidationError Kind = "validation_error"
	// KindInternal covers provider failures, storage failures, and
	// anything else not caused by the input.
	KindInternal Kind = "internal_server_error"
)

// Error is a categorized turn failure. Message is safe to surface to the
// end user; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a categorized error with a user-safe message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError attaches a kind and user-safe message to an underlying error.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to
// KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// UserMessage extracts the user-safe message from an error chain. For
// uncategorized errors it returns a generic message rather than leaking
// internals.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "An internal error occurred. Please try again."
}
