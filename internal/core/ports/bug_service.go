package ports

import (
	"context"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// CreateBugInput carries a create payload plus transport metadata.
type CreateBugInput struct {
	Bug domain.BugInput
	// IdempotencyKey, when set, makes repeated submissions return the bug
	// created by the first one.
	IdempotencyKey string
	// Actor is the authenticated caller, if any. It is recorded in the
	// activity trail and used as the reporter when the payload omits one.
	Actor string
}

// CreateBugResult is returned by BugService.CreateBug.
type CreateBugResult struct {
	Bug *domain.Bug
	// Replayed is true when the idempotency key matched an earlier request.
	Replayed bool
}

// BugService defines use-case operations for bugs.
type BugService interface {
	ListBugs(ctx context.Context) ([]*domain.Bug, error)
	GetBug(ctx context.Context, id string) (*domain.Bug, error)
	CreateBug(ctx context.Context, input CreateBugInput) (*CreateBugResult, error)
	UpdateBug(ctx context.Context, id string, input domain.BugInput, actor string) (*domain.Bug, error)
	DeleteBug(ctx context.Context, id string, actor string) (*domain.Bug, error)
}

// IdempotencyStore remembers which bug a client-supplied key produced.
type IdempotencyStore interface {
	// Lookup returns the bug id stored for key, or "" when the key is unknown.
	Lookup(ctx context.Context, key string) (string, error)
	Remember(ctx context.Context, key, bugID string) error
}
