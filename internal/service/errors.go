package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the addressed recipe, user, tag or ingredient does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned by login for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError reports malformed or rule-violating input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PermissionError is returned when the acting user may not modify the resource
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// AlreadyExistsError is returned when adding a relation or record that already exists
type AlreadyExistsError struct {
	Message string
}

func (e *AlreadyExistsError) Error() string {
	return e.Message
}

// NotFoundError is returned when removing a relation that does not exist.
// Unlike ErrNotFound it describes missing state, not a missing resource.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// SelfReferenceError is returned when a user tries to follow themselves
type SelfReferenceError struct{}

func (e *SelfReferenceError) Error() string {
	return "you cannot subscribe to yourself"
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
