package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnavailable        = errors.New("store unavailable")
)

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field      string
	Constraint string
	Msg        string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Msg)
}

func (e *FieldError) Is(target error) bool { return target == ErrInvalidArgument }

// ConflictError reports which unique field collided.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s is already in use", ErrAlreadyExists, e.Field)
}

func (e *ConflictError) Is(target error) bool { return target == ErrAlreadyExists }

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NewFieldError(field, constraint, msg string) error {
	return &FieldError{Field: field, Constraint: constraint, Msg: msg}
}

func NewConflict(field string) error {
	return &ConflictError{Field: field}
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func WrapUnavailable(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// ConflictField returns the colliding field of a conflict error, or "".
func ConflictField(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// InvalidField returns the offending field of a validation error, or "".
func InvalidField(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
