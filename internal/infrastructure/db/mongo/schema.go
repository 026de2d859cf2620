package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

// Server error codes the repositories react to.
const (
	codeNamespaceExists           = 48
	codeDocumentValidationFailure = 121
)

// ensureValidator creates the collection with a $jsonSchema validator, or
// replaces the validator when the collection already exists.
func ensureValidator(ctx context.Context, db *mongo.Database, name string, jsonSchema bson.M) error {
	validator := bson.M{"$jsonSchema": jsonSchema}

	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator))
	if err == nil {
		return nil
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.HasErrorCode(codeNamespaceExists) {
		cmd := bson.D{{Key: "collMod", Value: name}, {Key: "validator", Value: validator}}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return errors.Wrapf(err, "update validator of %s", name)
		}
		return nil
	}
	return errors.Wrapf(err, "create collection %s", name)
}

func bugJSONSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"title", "description", "severity", "status", "createdBy", "createdAt", "updatedAt"},
		"properties": bson.M{
			"title": bson.M{
				"bsonType":  "string",
				"minLength": domain.TitleMinLength,
				"maxLength": domain.TitleMaxLength,
			},
			"description": bson.M{
				"bsonType":  "string",
				"minLength": domain.DescriptionMinLength,
			},
			"severity": bson.M{
				"enum": bson.A{
					string(domain.SeverityLow), string(domain.SeverityMedium),
					string(domain.SeverityHigh), string(domain.SeverityCritical),
				},
			},
			"status": bson.M{
				"enum": bson.A{string(domain.StatusOpen), string(domain.StatusInProgress), string(domain.StatusResolved)},
			},
			"assignee":  bson.M{"bsonType": bson.A{"string", "null"}},
			"createdBy": bson.M{"bsonType": "string"},
			"createdAt": bson.M{"bsonType": "date"},
			"updatedAt": bson.M{"bsonType": "date"},
		},
	}
}

func userJSONSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"email", "passwordHash"},
		"properties": bson.M{
			"email":        bson.M{"bsonType": "string", "pattern": `^[^\s@]+@[^\s@]+\.[^\s@]+$`},
			"passwordHash": bson.M{"bsonType": "string"},
			"name":         bson.M{"bsonType": "string"},
		},
	}
}

// translateWriteError maps server-side schema rejections to the domain error
// and attaches a stack trace to anything else.
func translateWriteError(entity string, err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeDocumentValidationFailure) {
		return &domain.StorageValidationError{
			Entity:   entity,
			Problems: []string{"document failed schema validation"},
		}
	}
	return errors.WithStack(err)
}
