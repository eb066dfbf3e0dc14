// Package common holds the error taxonomy shared by controllers and handlers.
// Match with errors.Is against the sentinels; the typed errors carry detail.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError names the existing contract that already owns a business key.
type ConflictError struct {
	PolicyNo       string
	RegistrationNr string
	ExistingID     int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"contract with policy %q and registration %q already exists (id %d)",
		e.PolicyNo, e.RegistrationNr, e.ExistingID,
	)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type PermissionError struct {
	Operation string
	Role      string
	Required  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q cannot %s, requires %q", e.Role, e.Operation, e.Required)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

func NotFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}
