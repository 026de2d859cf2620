// Package memory holds process-local repositories. They back the server when
// ENV=test and the HTTP tests, and honour the same contracts as the MongoDB
// repositories including ObjectID identifiers and storage schema checks.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/schema"
)

// BugRepository is a concurrency-safe in-memory ports.BugRepository.
type BugRepository struct {
	mu   sync.RWMutex
	bugs map[string]*domain.Bug
	// seq breaks ties between bugs created within the same millisecond.
	seq   map[string]uint64
	next  uint64
	clock func() time.Time
}

func NewBugRepository() *BugRepository {
	return &BugRepository{
		bugs:  make(map[string]*domain.Bug),
		seq:   make(map[string]uint64),
		clock: time.Now,
	}
}

func (r *BugRepository) now() time.Time {
	return r.clock().UTC().Truncate(time.Millisecond)
}

func checkID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return domain.ErrInvalidBugID
	}
	return nil
}

func cloneBug(b *domain.Bug) *domain.Bug {
	c := *b
	if b.Assignee != nil {
		a := *b.Assignee
		c.Assignee = &a
	}
	return &c
}

func (r *BugRepository) List(_ context.Context) ([]*domain.Bug, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Bug, 0, len(r.bugs))
	for _, b := range r.bugs {
		out = append(out, cloneBug(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out, nil
}

func (r *BugRepository) FindByID(_ context.Context, id string) (*domain.Bug, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bugs[id]
	if !ok {
		return nil, domain.ErrBugNotFound
	}
	return cloneBug(b), nil
}

func (r *BugRepository) Create(_ context.Context, bug *domain.Bug) (*domain.Bug, error) {
	if err := schema.CheckBug(bug); err != nil {
		return nil, err
	}

	stored := cloneBug(bug)
	stored.ID = primitive.NewObjectID().Hex()
	ts := r.now()
	stored.CreatedAt = ts
	stored.UpdatedAt = ts

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.seq[stored.ID] = r.next
	r.bugs[stored.ID] = stored
	return cloneBug(stored), nil
}

func (r *BugRepository) Update(_ context.Context, id string, bug *domain.Bug) (*domain.Bug, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := schema.CheckBugUpdate(bug); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bugs[id]
	if !ok {
		return nil, domain.ErrBugNotFound
	}

	updated := cloneBug(existing)
	updated.Title = bug.Title
	updated.Description = bug.Description
	updated.Severity = bug.Severity
	updated.Status = bug.Status
	updated.Assignee = nil
	if bug.Assignee != nil {
		a := *bug.Assignee
		updated.Assignee = &a
	}
	if bug.CreatedBy != "" {
		updated.CreatedBy = bug.CreatedBy
	}
	updated.UpdatedAt = r.now()

	r.bugs[id] = updated
	return cloneBug(updated), nil
}

func (r *BugRepository) Delete(_ context.Context, id string) (*domain.Bug, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bugs[id]
	if !ok {
		return nil, domain.ErrBugNotFound
	}
	delete(r.bugs, id)
	delete(r.seq, id)
	return b, nil
}
