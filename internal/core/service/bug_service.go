package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mern-bugtracker/bug-tracker/internal/api/metrics"
	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
)

type BugService struct {
	repo     ports.BugRepository
	activity ports.ActivityRecorder
	replays  ports.IdempotencyStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewBugService wires the bug use cases. replays may be nil, in which case
// idempotency keys are ignored.
func NewBugService(repo ports.BugRepository, activity ports.ActivityRecorder, replays ports.IdempotencyStore, logger zerolog.Logger) *BugService {
	return &BugService{
		repo:     repo,
		activity: activity,
		replays:  replays,
		logger:   logger,
		now:      time.Now,
	}
}

// ListBugs returns all bugs, newest first.
func (s *BugService) ListBugs(ctx context.Context) ([]*domain.Bug, error) {
	return s.repo.List(ctx)
}

// GetBug returns a single bug by id.
func (s *BugService) GetBug(ctx context.Context, id string) (*domain.Bug, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateBug validates and stores a new bug. When an idempotency key is given
// and was already used, the bug created by the first request is returned.
func (s *BugService) CreateBug(ctx context.Context, input ports.CreateBugInput) (*ports.CreateBugResult, error) {
	if replayed := s.replay(ctx, input.IdempotencyKey); replayed != nil {
		metrics.IdempotentReplaysTotal.Inc()
		s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("bug_id", replayed.ID).Msg("idempotent replay")
		return &ports.CreateBugResult{Bug: replayed, Replayed: true}, nil
	}

	payload := input.Bug
	if payload.CreatedBy == "" {
		payload.CreatedBy = input.Actor
	}

	bug, err := domain.ValidateNewBug(payload)
	if err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues("create").Inc()
		return nil, err
	}

	created, err := s.repo.Create(ctx, bug)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create bug")
		return nil, err
	}

	if input.IdempotencyKey != "" && s.replays != nil {
		if err := s.replays.Remember(ctx, input.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.BugsCreatedTotal.WithLabelValues(string(created.Severity)).Inc()
	s.record(domain.ActionCreated, created, actorOr(input.Actor, created.CreatedBy))
	s.logger.Info().Str("bug_id", created.ID).Str("severity", string(created.Severity)).Msg("bug created")

	return &ports.CreateBugResult{Bug: created}, nil
}

// UpdateBug re-validates the full record and applies it to the stored bug.
func (s *BugService) UpdateBug(ctx context.Context, id string, input domain.BugInput, actor string) (*domain.Bug, error) {
	bug, err := domain.ValidateBugUpdate(input)
	if err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues("update").Inc()
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, bug)
	if err != nil {
		return nil, err
	}

	metrics.BugsUpdatedTotal.WithLabelValues(string(updated.Status)).Inc()
	s.record(domain.ActionUpdated, updated, actor)
	s.logger.Info().Str("bug_id", updated.ID).Str("status", string(updated.Status)).Msg("bug updated")

	return updated, nil
}

// DeleteBug removes a bug and returns its last state.
func (s *BugService) DeleteBug(ctx context.Context, id string, actor string) (*domain.Bug, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.BugsDeletedTotal.Inc()
	s.record(domain.ActionDeleted, deleted, actor)
	s.logger.Info().Str("bug_id", deleted.ID).Msg("bug deleted")

	return deleted, nil
}

// replay returns the bug previously created under key, or nil.
func (s *BugService) replay(ctx context.Context, key string) *domain.Bug {
	if key == "" || s.replays == nil {
		return nil
	}

	bugID, err := s.replays.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if bugID == "" {
		return nil
	}

	existing, err := s.repo.FindByID(ctx, bugID)
	if err != nil {
		// The original bug may have been deleted since; treat as a fresh request.
		if !errors.Is(err, domain.ErrBugNotFound) {
			s.logger.Warn().Err(err).Str("bug_id", bugID).Msg("idempotent replay lookup failed")
		}
		return nil
	}
	return existing
}

func (s *BugService) record(action domain.ActivityAction, bug *domain.Bug, actor string) {
	if s.activity == nil {
		return
	}
	s.activity.Enqueue(domain.NewBugActivity(action, bug, actor, s.now()))
}

func actorOr(actor, fallback string) string {
	if actor != "" {
		return actor
	}
	return fallback
}
