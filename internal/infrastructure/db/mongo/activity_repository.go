package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

const collectionActivity = "bug_activity"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
// Entries reference bugs by id hex and are never removed.
type ActivityRepository struct {
	col *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity)}
}

type activityDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	BugID      string             `bson:"bugId"`
	Action     string             `bson:"action"`
	Title      string             `bson:"title"`
	Status     string             `bson:"status"`
	Severity   string             `bson:"severity"`
	Actor      string             `bson:"actor,omitempty"`
	OccurredAt time.Time          `bson:"occurredAt"`
}

// Insert appends an entry to the bug_activity audit collection.
func (r *ActivityRepository) Insert(ctx context.Context, a *domain.BugActivity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := activityDocument{
		ID:         primitive.NewObjectID(),
		BugID:      a.BugID,
		Action:     string(a.Action),
		Title:      a.Title,
		Status:     string(a.Status),
		Severity:   string(a.Severity),
		Actor:      a.Actor,
		OccurredAt: a.OccurredAt.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert activity")
	}
	a.ID = doc.ID.Hex()
	return nil
}

// ListByBug returns the trail of one bug, newest first.
func (r *ActivityRepository) ListByBug(ctx context.Context, bugID string) ([]*domain.BugActivity, error) {
	if _, err := parseBugID(bugID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"bugId": bugID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list activity")
	}

	var docs []activityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode activity")
	}

	out := make([]*domain.BugActivity, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.BugActivity{
			ID:         d.ID.Hex(),
			BugID:      d.BugID,
			Action:     domain.ActivityAction(d.Action),
			Title:      d.Title,
			Status:     domain.BugStatus(d.Status),
			Severity:   domain.Severity(d.Severity),
			Actor:      d.Actor,
			OccurredAt: d.OccurredAt.UTC(),
		})
	}
	return out, nil
}

// EnsureIndexes creates the lookup index on the activity collection.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bugId", Value: 1}, {Key: "occurredAt", Value: -1}},
	})
	return errors.Wrap(err, "create activity indexes")
}
