package domain

import (
	"strings"
	"unicode/utf8"
)

// ValidateNewBug checks a create payload and returns the normalised bug.
// Unlike updates, the reporter (createdBy) must be present.
func ValidateNewBug(in BugInput) (*Bug, error) {
	return validateBug(in, true)
}

// ValidateBugUpdate checks an update payload. Title and description are still
// required; createdBy may be omitted and is then left untouched by the store.
func ValidateBugUpdate(in BugInput) (*Bug, error) {
	return validateBug(in, false)
}

func validateBug(in BugInput, requireReporter bool) (*Bug, error) {
	var problems []string

	title := strings.TrimSpace(in.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		problems = append(problems, "Title is required")
	case n < TitleMinLength:
		problems = append(problems, "Title must be at least 5 characters")
	case n > TitleMaxLength:
		problems = append(problems, "Title cannot exceed 100 characters")
	}

	description := strings.TrimSpace(in.Description)
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		problems = append(problems, "Description is required")
	case n < DescriptionMinLength:
		problems = append(problems, "Description must be at least 10 characters")
	}

	if in.Severity != "" && !Severity(in.Severity).Valid() {
		problems = append(problems, "Invalid severity level")
	}
	if in.Status != "" && !BugStatus(in.Status).Valid() {
		problems = append(problems, "Invalid status")
	}

	// Presence only: createdBy is not trimmed.
	if requireReporter && in.CreatedBy == "" {
		problems = append(problems, "CreatedBy is required")
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	bug := &Bug{
		Title:       title,
		Description: description,
		Severity:    SeverityMedium,
		Status:      StatusOpen,
		CreatedBy:   in.CreatedBy,
	}
	if in.Severity != "" {
		bug.Severity = Severity(in.Severity)
	}
	if in.Status != "" {
		bug.Status = BugStatus(in.Status)
	}
	if in.Assignee != "" {
		assignee := in.Assignee
		bug.Assignee = &assignee
	}
	return bug, nil
}
