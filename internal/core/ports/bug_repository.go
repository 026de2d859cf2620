package ports

import (
	"context"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// BugRepository defines persistence operations for bugs.
//
// Identifiers that are not well-formed yield domain.ErrInvalidBugID; well-formed
// identifiers with no matching document yield domain.ErrBugNotFound.
type BugRepository interface {
	// List returns every bug, newest first.
	List(ctx context.Context) ([]*domain.Bug, error)
	FindByID(ctx context.Context, id string) (*domain.Bug, error)
	// Create stores bug and returns it with its id and timestamps assigned.
	Create(ctx context.Context, bug *domain.Bug) (*domain.Bug, error)
	// Update overwrites the mutable fields of the bug and returns the stored
	// result. An empty CreatedBy leaves the stored reporter unchanged.
	Update(ctx context.Context, id string, bug *domain.Bug) (*domain.Bug, error)
	// Delete removes the bug and returns the removed document.
	Delete(ctx context.Context, id string) (*domain.Bug, error)
}
