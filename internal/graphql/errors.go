package graphql

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MessageUnauthorized is the message the backend puts on an expired or
	// missing session.
	MessageUnauthorized = "unauthorized"
	// CodeUnauthorized is the structured discriminator carried in the
	// sub-error extensions when the backend provides one.
	CodeUnauthorized = "UNAUTHORIZED"
)

// SubError is one entry of a GraphQL "errors" array.
type SubError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, or "" when absent.
func (s SubError) Code() string {
	code, _ := s.Extensions["code"].(string)
	return code
}

// Error is the failure of one operation: either a transport failure or a
// response carrying one or more GraphQL errors.
type Error struct {
	Network error
	GraphQL []SubError
}

func (e *Error) Error() string {
	if e.Network != nil {
		return "network error: " + e.Network.Error()
	}
	msgs := make([]string, len(e.GraphQL))
	for i, s := range e.GraphQL {
		msgs[i] = s.Message
	}
	return strings.Join(msgs, "\n")
}

func (e *Error) Unwrap() error {
	return e.Network
}

// First returns the first sub-error, if any.
func (e *Error) First() (SubError, bool) {
	if len(e.GraphQL) == 0 {
		return SubError{}, false
	}
	return e.GraphQL[0], true
}

// Errorf builds a single sub-error response.
func Errorf(format string, args ...any) *Error {
	return &Error{GraphQL: []SubError{{Message: fmt.Sprintf(format, args...)}}}
}

// Unauthorized is the error returned for operations without a valid session.
func Unauthorized() *Error {
	return &Error{GraphQL: []SubError{{
		Message:    MessageUnauthorized,
		Extensions: map[string]any{"code": CodeUnauthorized},
	}}}
}

// NetworkError wraps a transport failure.
func NetworkError(err error) *Error {
	return &Error{Network: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr, true
	}
	return nil, false
}
