package ports

import (
	"context"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// ActivityRepository persists the bug audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.BugActivity) error
	// ListByBug returns the entries for bugID, newest first.
	ListByBug(ctx context.Context, bugID string) ([]*domain.BugActivity, error)
}

// ActivityRecorder accepts activity entries for asynchronous persistence.
type ActivityRecorder interface {
	Enqueue(activity domain.BugActivity)
}

// ActivityService records and reads bug activity.
type ActivityService interface {
	Record(ctx context.Context, activity domain.BugActivity) error
	History(ctx context.Context, bugID string) ([]*domain.BugActivity, error)
}
