// Package schema enforces the storage-level constraints of persisted records.
// Repositories run these checks before every write so a record that somehow
// bypassed the request validator is still rejected.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckBug validates a complete bug document.
func CheckBug(b *domain.Bug) error {
	return check("Bug", validate.Struct(b))
}

// CheckBugUpdate validates the fields an update writes. The reporter is only
// checked when the update carries one.
func CheckBugUpdate(b *domain.Bug) error {
	if b.CreatedBy == "" {
		return check("Bug", validate.StructExcept(b, "CreatedBy"))
	}
	return CheckBug(b)
}

// CheckUser validates a user document.
func CheckUser(u *domain.User) error {
	return check("User", validate.Struct(u))
}

func check(entity string, err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problems = append(problems, fieldError(fe))
	}
	return &domain.StorageValidationError{Entity: entity, Problems: problems}
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
