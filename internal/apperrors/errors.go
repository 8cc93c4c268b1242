// Package apperrors defines the error kinds the service and gate layers use to classify failures.
// Handlers only map a Kind to an HTTP status; they never inspect the wrapped cause.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind int

const (
	KindInfrastructure Kind = iota
	KindInvalidInput
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// genericMessage is shown for infrastructure failures so internals never leak
const genericMessage = "internal server error"

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindConflict:
		return "Conflict"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	default:
		return "Infrastructure"
	}
}

// Status maps a kind to its HTTP status code
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidInput creates a caller-correctable validation error
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

// Conflict creates an error for a resource that already exists
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Unauthenticated creates an error for a missing, invalid or expired identity
func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

// Forbidden creates an error for a known identity lacking permission
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound creates an error for a missing resource
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Infrastructure wraps a server-side failure. The public message is always generic.
func Infrastructure(err error) *Error {
	return Wrap(KindInfrastructure, genericMessage, err)
}

// KindOf returns the kind of err. Unclassified errors are infrastructure failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInfrastructure
}

// PublicMessage returns the message safe to show to a client
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInfrastructure {
		return appErr.Message
	}
	return genericMessage
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
