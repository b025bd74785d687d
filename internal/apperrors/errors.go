// Package apperrors defines the error kinds surfaced by the request handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP surface.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindMethodNotAllowed
	KindUpstream
	KindConfigurationMissing
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindUpstream:
		return "upstream_failure"
	case KindConfigurationMissing:
		return "configuration_missing"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is what the caller sees in the
// `error` field of the JSON response.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadRequest reports missing or invalid input.
func BadRequest(format string, args ...any) *Error {
	return newf(KindBadRequest, format, args...)
}

// Unauthenticated reports a missing or rejected bearer token.
func Unauthenticated(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

// Forbidden reports a caller whose role is not allowed.
func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

// NotFound reports a missing record.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// MethodNotAllowed reports a wrong HTTP method; want is the accepted one.
func MethodNotAllowed(want string) *Error {
	return newf(KindMethodNotAllowed, "Use %s", want)
}

// Upstream reports a non-success answer from an external service.
// The upstream text is embedded verbatim in the message.
func Upstream(err error, format string, args ...any) *Error {
	e := newf(KindUpstream, format, args...)
	e.Err = err
	return e
}

// ConfigurationMissing reports required configuration that is absent.
func ConfigurationMissing(format string, args ...any) *Error {
	return newf(KindConfigurationMissing, format, args...)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf maps err to an HTTP status code.
func StatusOf(err error) int {
	return KindOf(err).Status()
}

// MessageOf returns the caller-visible message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
