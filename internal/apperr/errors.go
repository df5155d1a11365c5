// Package apperr provides the error taxonomy shared by the game engine, the
// session gateway and both transports.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups codes by how a caller should react to them.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindIllegalState     Kind = "illegal_state"
	KindConflict         Kind = "conflict"
	KindAuthorization    Kind = "authorization"
	KindUnauthenticated  Kind = "unauthenticated"
	KindTransientStorage Kind = "transient_storage"
	KindInternal         Kind = "internal"
)

// Error is a classified error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an error of the given kind and code.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates an error of the given kind and code around cause.
func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

func Validation(code Code, message string) *Error {
	return New(KindValidation, code, message)
}

func NotFound(code Code, message string) *Error {
	return New(KindNotFound, code, message)
}

func IllegalState(code Code, message string) *Error {
	return New(KindIllegalState, code, message)
}

func Conflict(code Code, message string) *Error {
	return New(KindConflict, code, message)
}

func Authorization(code Code, message string) *Error {
	return New(KindAuthorization, code, message)
}

func Unauthenticated(code Code, message string) *Error {
	return New(KindUnauthenticated, code, message)
}

// TransientStorage wraps a persistence failure. The whole load-mutate-save
// attempt may be retried from scratch.
func TransientStorage(message string, cause error) *Error {
	return Wrap(KindTransientStorage, CodeStorageUnavailable, message, cause)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// Retryable reports whether err is eligible for automatic retry.
func Retryable(err error) bool {
	return KindOf(err) == KindTransientStorage
}
