/*-------------------------------------------------------------------------
 *
 * errors.go
 *    Typed error kinds for the coupling runtime
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/cerr/errors.go
 *
 *-------------------------------------------------------------------------
 */

package cerr

import (
	"errors"
	"fmt"
)

/* Kind classifies a runtime error per the protocol's error taxonomy */
type Kind string

const (
	Config   Kind = "config"   /* malformed or inconsistent configuration */
	Usage    Kind = "usage"    /* contract violation by the caller */
	State    Kind = "state"    /* operation valid but wrong lifecycle phase */
	Protocol Kind = "protocol" /* inter-participant inconsistency at runtime */
	Transport Kind = "transport" /* channel-level I/O failure, always fatal */
	Internal Kind = "internal" /* failed invariant assertion, always fatal */
)

/* Error wraps a Kind and an optional cause */
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

/* Kind returns the error's classification */
func (e *Error) Kind() Kind {
	return e.kind
}

func new_(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: cause}
}

func ConfigError(format string, args ...interface{}) *Error {
	return new_(Config, format, args...)
}

func ConfigErrorf(cause error, format string, args ...interface{}) *Error {
	return wrap(Config, cause, format, args...)
}

func UsageError(format string, args ...interface{}) *Error {
	return new_(Usage, format, args...)
}

func StateError(format string, args ...interface{}) *Error {
	return new_(State, format, args...)
}

func ProtocolError(format string, args ...interface{}) *Error {
	return new_(Protocol, format, args...)
}

func ProtocolErrorf(cause error, format string, args ...interface{}) *Error {
	return wrap(Protocol, cause, format, args...)
}

func TransportError(format string, args ...interface{}) *Error {
	return new_(Transport, format, args...)
}

func TransportErrorf(cause error, format string, args ...interface{}) *Error {
	return wrap(Transport, cause, format, args...)
}

func InternalError(format string, args ...interface{}) *Error {
	return new_(Internal, format, args...)
}

func InternalErrorf(cause error, format string, args ...interface{}) *Error {
	return wrap(Internal, cause, format, args...)
}

/* Is reports whether err carries the given Kind */
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
