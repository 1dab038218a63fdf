package repositories

import (
	"context"
	"errors"
	"reflect"

	"toolsnest/internal/models"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned when an _id filter value is malformed for the backend.
	ErrInvalidID = errors.New("invalid document id")
	// ErrDuplicate is returned when a write repeats an _id or a unique field value.
	ErrDuplicate = errors.New("duplicate document key")
)

// uniqueFields names the field a collection keeps unique besides _id.
var uniqueFields = map[string]string{
	models.UserCollection: "email",
}

// uniqueValue returns the value of collection's unique field in doc, if any.
func uniqueValue(collection string, doc models.Document) (string, bool) {
	field, ok := uniqueFields[collection]
	if !ok {
		return "", false
	}
	v, ok := doc[field].(string)
	return v, ok && v != ""
}

// DocumentStore defines filter-based access to named document collections.
type DocumentStore interface {
	FindOne(ctx context.Context, collection string, filter models.Filter) (models.Document, error)
	FindMany(ctx context.Context, collection string, filter models.Filter) ([]models.Document, error)
	// UpsertOne merges patch into the first document matching filter, inserting
	// filter merged with patch when nothing matches.
	UpsertOne(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error)
	InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error)
	DeleteOne(ctx context.Context, collection string, filter models.Filter) (*models.DeleteResult, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// matches reports whether every filter field is present in doc with an equal value.
func matches(doc models.Document, filter models.Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// merge applies patch over doc in place and reports whether anything changed.
func merge(doc models.Document, patch models.Document) bool {
	changed := false
	for k, v := range patch {
		if k == models.IDField {
			continue
		}
		if old, ok := doc[k]; !ok || !reflect.DeepEqual(old, v) {
			changed = true
		}
		doc[k] = v
	}
	return changed
}

// seed builds the document inserted by an upsert that matched nothing.
func seed(filter models.Filter, patch models.Document) models.Document {
	doc := models.Document{}
	for k, v := range filter {
		doc[k] = v
	}
	merge(doc, patch)
	return doc
}

func clone(doc models.Document) models.Document {
	out := make(models.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
