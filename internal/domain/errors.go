package domain

import (
	"errors"
	"strings"
)

// ErrKind groups errors by how a caller should react. The HTTP layer maps
// each kind to one status code.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"
	KindAuth           ErrKind = "auth"
	KindForbidden      ErrKind = "forbidden"
	KindNotFound       ErrKind = "not_found"
	KindConflict       ErrKind = "conflict"
	KindRateLimited    ErrKind = "rate_limited"
	KindInfrastructure ErrKind = "infrastructure"
	KindInternal       ErrKind = "internal"
)

// Machine codes. Clients and metrics key on these, so they never change.
const (
	CodeInvalidJSON       = "invalid_json"
	CodeMissingField      = "missing_field"
	CodeInvalidField      = "invalid_field"
	CodeResetTokenInvalid = "reset_token_invalid"

	CodeTokenMissing = "token_missing"
	CodeTokenInvalid = "token_invalid"
	CodeTokenExpired = "token_expired"

	CodeUserNotFound  = "user_not_found"
	CodeEmailNotFound = "email_not_found"

	CodeResetKeyConflict = "reset_key_conflict"
	CodeRateLimited      = "rate_limited"

	CodeDBUnavailable       = "db_unavailable"
	CodeNotifierUnavailable = "notifier_unavailable"
	CodeHashFailed          = "hash_failed"
	CodeRandomFailed        = "random_failed"
	CodeInternal            = "internal_error"
)

// Error carries a client-safe Message and optional Meta; Cause is only for logs.
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether err carries a domain error with the given code.
func Is(err error, code string) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// request shape

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, CodeInvalidJSON, "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, CodeMissingField, "missing required field"),
		map[string]string{"field": field})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, CodeInvalidField, "invalid field"),
		map[string]string{"field": field, "reason": reason})
}

// ErrResetTokenInvalid covers unknown, consumed and empty reset tokens alike.
func ErrResetTokenInvalid() *Error {
	return New(KindValidation, CodeResetTokenInvalid, "reset token invalid")
}

// bearer tokens

func ErrTokenMissing() *Error { return New(KindAuth, CodeTokenMissing, "no token provided") }
func ErrTokenInvalid() *Error { return New(KindAuth, CodeTokenInvalid, "invalid token") }
func ErrTokenExpired() *Error { return New(KindAuth, CodeTokenExpired, "token is expired") }

// lookups

func ErrUserNotFound() *Error {
	return New(KindNotFound, CodeUserNotFound, "user not found")
}

func ErrEmailNotFound() *Error {
	return New(KindNotFound, CodeEmailNotFound, "email not found")
}

// ErrResetKeyConflict means a freshly minted token already belongs to another account.
func ErrResetKeyConflict() *Error {
	return New(KindConflict, CodeResetKeyConflict, "reset key collision")
}

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, CodeRateLimited, "too many requests"),
		map[string]string{"scope": scope})
}

// dependencies

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, CodeDBUnavailable, "database unavailable", cause)
}

func ErrNotifierUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, CodeNotifierUnavailable, "notification transport unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, CodeHashFailed, "password hashing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, CodeRandomFailed, "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, CodeInternal, "internal error", cause)
}
