// Package apperr defines the failure kinds shared by the identity and book
// services. Every error returned by a service wraps exactly one kind, so
// callers branch with errors.Is and never inspect messages.
package apperr

import (
	"errors"

	"github.com/samber/oops"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrNoAuthHeader       = errors.New("no authorization header")
	ErrMalformedHeader    = errors.New("malformed authorization header")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Machine codes attached to oops errors.
const (
	CodeValidation         = "VALIDATION"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidIdentifier  = "INVALID_IDENTIFIER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// Validation reports a constraint violation on a single input field.
func Validation(field, format string, args ...any) error {
	return oops.Code(CodeValidation).With("field", field).Wrapf(ErrValidation, format, args...)
}

func DuplicateIdentity(email string) error {
	return oops.Code(CodeDuplicateIdentity).With("email", email).Wrapf(ErrDuplicateIdentity, "email already registered")
}

// NotFound reports an absent record of the given kind ("book", "identity").
func NotFound(kind, key string) error {
	return oops.Code(CodeNotFound).With("kind", kind, "key", key).Wrapf(ErrNotFound, "%s not found", kind)
}

func InvalidIdentifier(id string) error {
	return oops.Code(CodeInvalidIdentifier).With("id", id).Wrapf(ErrInvalidIdentifier, "malformed id")
}

// InvalidToken wraps a verification failure; the cause is kept as context only.
func InvalidToken(cause error) error {
	b := oops.Code(CodeInvalidToken)
	if cause != nil {
		b = b.With("cause", cause.Error())
	}
	return b.Wrap(ErrInvalidToken)
}

func InvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// StorageUnavailable wraps a store failure that the caller may retry.
func StorageUnavailable(op string, cause error) error {
	b := oops.Code(CodeStorageUnavailable).With("op", op)
	if cause != nil {
		b = b.With("cause", cause.Error())
	}
	return b.Wrap(ErrStorageUnavailable)
}

// LogFields returns zap-style key/value pairs describing err, including the
// oops code and context when present.
func LogFields(err error) []any {
	fields := []any{"err", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		fields = append(fields, "code", oopsErr.Code())
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			fields = append(fields, "context", ctx)
		}
	}
	return fields
}
