package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mern-bugtracker/bug-tracker/internal/api/metrics"
	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
)

type activityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService returns an ActivityService implementation.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, log: log}
}

// Record persists a single activity entry. It is called from the dispatcher
// workers, never on the request path.
func (s *activityService) Record(ctx context.Context, activity domain.BugActivity) error {
	if err := s.repo.Insert(ctx, &activity); err != nil {
		metrics.ActivityRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record activity: %w", err)
	}

	metrics.ActivityRecordedTotal.WithLabelValues("ok").Inc()
	s.log.Debug().
		Str("bug_id", activity.BugID).
		Str("action", string(activity.Action)).
		Msg("activity recorded")
	return nil
}

// History returns the audit trail of a bug, newest first.
func (s *activityService) History(ctx context.Context, bugID string) ([]*domain.BugActivity, error) {
	return s.repo.ListByBug(ctx, bugID)
}
