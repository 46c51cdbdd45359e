// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrPrecondition = errors.New("precondition failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStaleVersion = database.ErrStaleVersion
)

// ServiceError is an expected, caller-facing failure with a message safe to return verbatim.
type ServiceError struct {
	Kind    error
	Message string
}

func (e *ServiceError) Error() string { return e.Message }
func (e *ServiceError) Unwrap() error { return e.Kind }

func notFound(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func precondition(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrPrecondition, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(message string) error {
	return &ServiceError{Kind: ErrUnauthorized, Message: message}
}

// lookupError maps gorm.ErrRecordNotFound to a NotFound service error and wraps anything else.
func lookupError(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("%s not found with ID: %d", entity, id)
	}
	return fmt.Errorf("database error: %w", err)
}

// writeError maps optimistic-lock and unique-key failures on save.
func writeError(err error, duplicateMessage string) error {
	switch {
	case errors.Is(err, database.ErrStaleVersion):
		return &ServiceError{Kind: ErrStaleVersion, Message: err.Error()}
	case errors.Is(err, gorm.ErrDuplicatedKey) && duplicateMessage != "":
		return conflict("%s", duplicateMessage)
	}
	return err
}

// IsExpected reports whether err is a ServiceError (as opposed to an internal failure).
func IsExpected(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
