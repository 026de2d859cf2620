package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// ActivityRepository is an append-only in-memory audit trail.
type ActivityRepository struct {
	mu      sync.RWMutex
	entries []domain.BugActivity
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Insert(_ context.Context, a *domain.BugActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = primitive.NewObjectID().Hex()
	r.entries = append(r.entries, *a)
	return nil
}

// ListByBug walks the log backwards so the newest entry comes first.
func (r *ActivityRepository) ListByBug(_ context.Context, bugID string) ([]*domain.BugActivity, error) {
	if err := checkID(bugID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.BugActivity, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].BugID == bugID {
			e := r.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}
