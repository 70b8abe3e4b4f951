package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Query and storage errors
	ErrValidation         = errors.New("validation failed")
	ErrInvalidPattern     = &validationError{msg: "invalid filter pattern"}
	ErrStorageUnavailable = errors.New("storage unavailable")

	// User lifecycle errors
	ErrImmutableField      = errors.New("field cannot be changed")
	ErrInvalidVerification = errors.New("invalid verification code")
)

// validationError is a sentinel that also matches ErrValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// ConflictError reports which unique field collided on create or edit.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " is already in use"
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ImmutableFieldError reports an attempt to change a write-once field.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return e.Field + " cannot be changed"
}

func (e *ImmutableFieldError) Unwrap() error { return ErrImmutableField }
