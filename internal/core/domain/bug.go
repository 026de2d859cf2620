package domain

import "time"

// Severity is the qualitative impact label of a bug.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// BugStatus is the workflow state of a bug.
type BugStatus string

const (
	StatusOpen       BugStatus = "open"
	StatusInProgress BugStatus = "in-progress"
	StatusResolved   BugStatus = "resolved"
)

var (
	severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	statuses   = []BugStatus{StatusOpen, StatusInProgress, StatusResolved}
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	for _, known := range severities {
		if s == known {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s BugStatus) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Field limits shared by the validator and the storage schema.
const (
	TitleMinLength       = 5
	TitleMaxLength       = 100
	DescriptionMinLength = 10
)

// Bug is the persisted defect report.
type Bug struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"       validate:"required,min=5,max=100"`
	Description string    `json:"description" validate:"required,min=10"`
	Severity    Severity  `json:"severity"    validate:"required,oneof=low medium high critical"`
	Status      BugStatus `json:"status"      validate:"required,oneof=open in-progress resolved"`
	Assignee    *string   `json:"assignee"`
	CreatedBy   string    `json:"createdBy"   validate:"required"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BugInput is an unvalidated bug payload as received from a client.
type BugInput struct {
	Title       string
	Description string
	Severity    string
	Status      string
	Assignee    string
	CreatedBy   string
}
