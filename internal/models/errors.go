package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the user.
type ErrorKind string

const (
	KindConfiguration      ErrorKind = "ConfigurationError"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindResponseParse      ErrorKind = "ResponseParseError"
	KindMalformedAnalysis  ErrorKind = "MalformedAnalysis"
	KindNoSearchQueries    ErrorKind = "NoSearchQueries"
	KindUnknown            ErrorKind = "UnknownError"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration      = &Error{Kind: KindConfiguration}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrResponseParse      = &Error{Kind: KindResponseParse}
	ErrMalformedAnalysis  = &Error{Kind: KindMalformedAnalysis}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// Error is a classified failure from one of the upstream clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds a classified error with a formatted message.
func NewError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// ErrorInfo is the user-visible description of a failure.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// InfoFromError classifies err. Anything that is not an *Error becomes an
// UnknownError carrying the original message.
func InfoFromError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return &ErrorInfo{Kind: classified.Kind, Message: classified.Error()}
	}
	msg := err.Error()
	if msg == "" {
		msg = "An unexpected error occurred."
	}
	return &ErrorInfo{Kind: KindUnknown, Message: msg}
}
