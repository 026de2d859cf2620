package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

func validBug() *domain.Bug {
	return &domain.Bug{
		Title:       "Valid bug title",
		Description: "A description long enough",
		Severity:    domain.SeverityMedium,
		Status:      domain.StatusOpen,
		CreatedBy:   "user@example.com",
	}
}

func TestCheckBug_Valid(t *testing.T) {
	assert.NoError(t, CheckBug(validBug()))
}

func TestCheckBug_Violations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Bug)
		want   string
	}{
		{"short title", func(b *domain.Bug) { b.Title = "abc" }, "title must be at least 5 characters"},
		{"long title", func(b *domain.Bug) { b.Title = strings.Repeat("x", 101) }, "title cannot exceed 100 characters"},
		{"short description", func(b *domain.Bug) { b.Description = "short" }, "description must be at least 10 characters"},
		{"bad severity", func(b *domain.Bug) { b.Severity = "urgent" }, "severity must be one of: low medium high critical"},
		{"bad status", func(b *domain.Bug) { b.Status = "closed" }, "status must be one of: open in-progress resolved"},
		{"missing reporter", func(b *domain.Bug) { b.CreatedBy = "" }, "createdBy is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBug()
			tc.mutate(b)

			err := CheckBug(b)
			var se *domain.StorageValidationError
			require.True(t, errors.As(err, &se), "expected StorageValidationError, got %v", err)
			assert.Equal(t, "Bug", se.Entity)
			assert.Contains(t, se.Problems, tc.want)
		})
	}
}

func TestCheckBugUpdate_ReporterOptional(t *testing.T) {
	b := validBug()
	b.CreatedBy = ""
	assert.NoError(t, CheckBugUpdate(b))

	b.Title = "abc"
	assert.Error(t, CheckBugUpdate(b))
}

func TestCheckUser(t *testing.T) {
	ok := &domain.User{Email: "test@example.com", PasswordHash: "hash"}
	assert.NoError(t, CheckUser(ok))

	bad := &domain.User{Email: "invalid-email", PasswordHash: "hash"}
	err := CheckUser(bad)
	var se *domain.StorageValidationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"email must be a valid email"}, se.Problems)
}
