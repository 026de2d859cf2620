package domain

import (
	"errors"
	"strings"
)

var (
	ErrBugNotFound        = errors.New("Bug not found")
	ErrInvalidBugID       = errors.New("Invalid bug id")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError aggregates every rule a bug payload violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// StorageValidationError is raised when a write is rejected by the storage
// schema, whether by the repository's own check or by the database.
type StorageValidationError struct {
	Entity   string
	Problems []string
}

func (e *StorageValidationError) Error() string {
	msg := e.Entity + " validation failed"
	if len(e.Problems) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(e.Problems, ", ")
}
