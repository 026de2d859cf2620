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
	"github.com/mern-bugtracker/bug-tracker/internal/infrastructure/db/schema"
)

const collectionBugs = "bugs"

// BugRepository implements ports.BugRepository using MongoDB.
type BugRepository struct {
	col *mongo.Collection
}

func NewBugRepository(db *mongo.Database) *BugRepository {
	return &BugRepository{col: db.Collection(collectionBugs)}
}

type bugDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Severity    string             `bson:"severity"`
	Status      string             `bson:"status"`
	Assignee    *string            `bson:"assignee"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *bugDocument) toDomain() *domain.Bug {
	return &domain.Bug{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Severity:    domain.Severity(d.Severity),
		Status:      domain.BugStatus(d.Status),
		Assignee:    d.Assignee,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func parseBugID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidBugID
	}
	return oid, nil
}

// List returns all bugs sorted by creation time, newest first.
func (r *BugRepository) List(ctx context.Context) ([]*domain.Bug, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list bugs")
	}

	var docs []bugDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode bugs")
	}

	bugs := make([]*domain.Bug, 0, len(docs))
	for i := range docs {
		bugs = append(bugs, docs[i].toDomain())
	}
	return bugs, nil
}

// FindByID retrieves a bug by its ObjectID hex string.
func (r *BugRepository) FindByID(ctx context.Context, id string) (*domain.Bug, error) {
	oid, err := parseBugID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bugDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBugNotFound
		}
		return nil, errors.Wrap(err, "find bug")
	}
	return doc.toDomain(), nil
}

// Create inserts a new bug document, stamping both timestamps.
func (r *BugRepository) Create(ctx context.Context, bug *domain.Bug) (*domain.Bug, error) {
	if err := schema.CheckBug(bug); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ts := now()
	doc := bugDocument{
		ID:          primitive.NewObjectID(),
		Title:       bug.Title,
		Description: bug.Description,
		Severity:    string(bug.Severity),
		Status:      string(bug.Status),
		Assignee:    bug.Assignee,
		CreatedBy:   bug.CreatedBy,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, translateWriteError("Bug", err)
	}
	return doc.toDomain(), nil
}

// Update applies the mutable fields with $set and returns the updated document.
func (r *BugRepository) Update(ctx context.Context, id string, bug *domain.Bug) (*domain.Bug, error) {
	oid, err := parseBugID(id)
	if err != nil {
		return nil, err
	}
	if err := schema.CheckBugUpdate(bug); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"title":       bug.Title,
		"description": bug.Description,
		"severity":    string(bug.Severity),
		"status":      string(bug.Status),
		"assignee":    bug.Assignee,
		"updatedAt":   now(),
	}
	if bug.CreatedBy != "" {
		set["createdBy"] = bug.CreatedBy
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bugDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBugNotFound
		}
		return nil, translateWriteError("Bug", err)
	}
	return doc.toDomain(), nil
}

// Delete removes a bug and returns the removed document.
func (r *BugRepository) Delete(ctx context.Context, id string) (*domain.Bug, error) {
	oid, err := parseBugID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bugDocument
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBugNotFound
		}
		return nil, errors.Wrap(err, "delete bug")
	}
	return doc.toDomain(), nil
}

// EnsureSchema installs the collection validator and the listing index.
func (r *BugRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := ensureValidator(ctx, r.col.Database(), collectionBugs, bugJSONSchema()); err != nil {
		return err
	}

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return errors.Wrap(err, "create bug indexes")
}
