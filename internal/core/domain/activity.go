package domain

import "time"

// ActivityAction names the kind of mutation recorded for a bug.
type ActivityAction string

const (
	ActionCreated ActivityAction = "created"
	ActionUpdated ActivityAction = "updated"
	ActionDeleted ActivityAction = "deleted"
)

// BugActivity is one entry of a bug's audit trail. Entries outlive the bug
// they describe, so a deleted bug still has its history.
type BugActivity struct {
	ID         string         `json:"_id"`
	BugID      string         `json:"bugId"`
	Action     ActivityAction `json:"action"`
	Title      string         `json:"title"`
	Status     BugStatus      `json:"status"`
	Severity   Severity       `json:"severity"`
	Actor      string         `json:"actor,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewBugActivity snapshots bug for the given action.
func NewBugActivity(action ActivityAction, bug *Bug, actor string, at time.Time) BugActivity {
	return BugActivity{
		BugID:      bug.ID,
		Action:     action,
		Title:      bug.Title,
		Status:     bug.Status,
		Severity:   bug.Severity,
		Actor:      actor,
		OccurredAt: at.UTC(),
	}
}
