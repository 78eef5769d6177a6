// Package apperr defines the closed set of failures that the user and
// authentication operations can report. Every failure carries a Kind; the
// HTTP layer and the session holder switch on the Kind, never on messages.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies one variant of the failure taxonomy.
type Kind int

const (
	// KindSystem is the zero value so that an unclassified error is treated
	// as an unexpected failure.
	KindSystem Kind = iota
	KindValidation
	KindNotFound
	KindDuplicateEmail
	KindUnknownEmail
	KindAccountInactive
	KindWrongPassword
	KindStorage
	// KindConnection is only produced client-side when the server cannot be
	// reached or returns something unreadable.
	KindConnection
)

// Tag returns the machine-readable "type" value sent on the wire. The login
// tags (email, password, account) name the form field or banner the
// presentation layer should use.
func (k Kind) Tag() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindUnknownEmail:
		return "email"
	case KindAccountInactive:
		return "account"
	case KindWrongPassword:
		return "password"
	case KindStorage:
		return "storage"
	case KindConnection:
		return "connection"
	default:
		return "system"
	}
}

// HTTPStatus maps the kind to the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDuplicateEmail:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnknownEmail, KindAccountInactive, KindWrongPassword:
		return http.StatusUnauthorized
	case KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsAuthFailure reports whether k is one of the three credential failures.
func (k Kind) IsAuthFailure() bool {
	return k == KindUnknownEmail || k == KindAccountInactive || k == KindWrongPassword
}

// KindFromTag is the inverse of Tag. Unknown tags map to KindSystem.
func KindFromTag(tag string) Kind {
	for _, k := range []Kind{
		KindValidation, KindNotFound, KindDuplicateEmail, KindUnknownEmail,
		KindAccountInactive, KindWrongPassword, KindStorage, KindConnection,
	} {
		if k.Tag() == tag {
			return k
		}
	}
	return KindSystem
}

// Error is the single error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field hints keyed by input name (email, password, ...).
	Fields map[string]string
	// Err is the underlying cause. It is logged, never sent to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindSystem if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindSystem
}

// As extracts the *Error from err. A non-nil error that is not an *Error is
// wrapped as KindSystem.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return System(err)
}

// Validation builds a KindValidation error with optional field hints.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func DuplicateEmail(message string, cause error) *Error {
	return &Error{Kind: KindDuplicateEmail, Message: message, Fields: map[string]string{"email": message}, Err: cause}
}

func UnknownEmail(message string) *Error {
	return &Error{Kind: KindUnknownEmail, Message: message}
}

func AccountInactive(message string) *Error {
	return &Error{Kind: KindAccountInactive, Message: message}
}

func WrongPassword(message string) *Error {
	return &Error{Kind: KindWrongPassword, Message: message}
}

// Storage wraps a persistence failure. The message is generic; the cause
// stays in Err for server-side logs.
func Storage(cause error) *Error {
	return &Error{Kind: KindStorage, Message: "Internal server error", Err: cause}
}

// System wraps an unexpected failure with the generic user-facing message.
func System(cause error) *Error {
	return &Error{Kind: KindSystem, Message: "Terjadi kesalahan sistem. Silakan coba lagi.", Err: cause}
}

func Connection(cause error) *Error {
	return &Error{Kind: KindConnection, Message: "Koneksi ke server gagal. Periksa koneksi internet Anda.", Err: cause}
}
