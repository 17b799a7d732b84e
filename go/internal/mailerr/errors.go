// Package mailerr defines the tagged error kinds returned by draft generation and delivery.
package mailerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindConfig          Kind = "config_error"
	KindInvalidInput    Kind = "invalid_input"
	KindModel           Kind = "model_error"
	KindEmptyResponse   Kind = "empty_response"
	KindMalformedOutput Kind = "malformed_output"
	KindIncompleteDraft Kind = "incomplete_draft"
	KindTransport       Kind = "transport_error"
)

// Error is the failure value of every fallible generation or delivery operation.
// Raw carries the unmodified model output for generation failures.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Raw     string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	if e.Raw != "" {
		sb.WriteString("\nRaw output:\n")
		sb.WriteString(e.Raw)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindConfig}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// New builds an Error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// WithRaw attaches raw model output for diagnostics.
func (e *Error) WithRaw(raw string) *Error {
	e.Raw = raw
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Errorf is a shorthand for New with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}
