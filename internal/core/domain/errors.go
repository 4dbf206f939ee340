package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("service unavailable")
)

// NotFoundError names the missing entity and the id that failed to resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' was not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError is a business-rule violation such as a duplicate email.
type ConflictError struct {
	Message string
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict || target == ErrInvalidOperation
}

// FieldError is a single invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError carries every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

// Invalid builds a ValidationError for one field.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Error: msg}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
