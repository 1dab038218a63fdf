package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"toolsnest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentRecord is the row layout used to keep documents in a SQL database.
type documentRecord struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Collection string `gorm:"primaryKey;type:varchar(64);uniqueIndex:idx_documents_unique_key,priority:1"`
	// UniqueKey holds the collection's unique field value, NULL when it has none.
	UniqueKey *string `gorm:"type:varchar(320);uniqueIndex:idx_documents_unique_key,priority:2"`
	Body      string  `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newRecord(id, collection string, doc models.Document) (*documentRecord, error) {
	body, err := encodeBody(doc)
	if err != nil {
		return nil, err
	}
	rec := &documentRecord{ID: id, Collection: collection, Body: body}
	if key, ok := uniqueValue(collection, doc); ok {
		rec.UniqueKey = &key
	}
	return rec, nil
}

func createError(collection string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w in %s: %v", ErrDuplicate, collection, err)
	}
	return fmt.Errorf("failed to insert into %s: %w", collection, err)
}

func (documentRecord) TableName() string { return "documents" }

// GORMDocumentStore is a GORM implementation of DocumentStore. Each document is
// stored as a JSON body; only _id lookups hit an index, other filters are
// evaluated over the collection's rows.
type GORMDocumentStore struct {
	db *gorm.DB
}

// NewGORMDocumentStore creates a GORMDocumentStore and migrates its table.
// Driver constraint errors are translated so duplicates surface as ErrDuplicate.
func NewGORMDocumentStore(db *gorm.DB) (*GORMDocumentStore, error) {
	db.TranslateError = true
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &GORMDocumentStore{db: db}, nil
}

func (r documentRecord) document() (models.Document, error) {
	doc := models.Document{}
	if err := json.Unmarshal([]byte(r.Body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	doc[models.IDField] = r.ID
	return doc, nil
}

func encodeBody(doc models.Document) (string, error) {
	body := clone(doc)
	delete(body, models.IDField)
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

// normalize round-trips a value through JSON so filters compare against
// decoded bodies on equal terms.
func normalize(filter models.Filter) models.Filter {
	raw, err := json.Marshal(filter)
	if err != nil {
		return filter
	}
	out := models.Filter{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return filter
	}
	return out
}

// scan returns the records of collection that match filter, at most limit
// when limit > 0.
func (s *GORMDocumentStore) scan(tx *gorm.DB, collection string, filter models.Filter, limit int) ([]documentRecord, []models.Document, error) {
	if err := validateUUIDFilter(filter); err != nil {
		return nil, nil, err
	}
	q := tx.Where("collection = ?", collection)
	if id, ok := filter[models.IDField]; ok {
		q = q.Where("id = ?", id)
	}
	var rows []documentRecord
	if err := q.Order("created_at").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	want := normalize(filter)
	var recs []documentRecord
	var docs []models.Document
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, nil, err
		}
		if !matches(doc, want) {
			continue
		}
		recs = append(recs, row)
		docs = append(docs, doc)
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return recs, docs, nil
}

// FindOne retrieves the first document matching filter.
func (s *GORMDocumentStore) FindOne(ctx context.Context, collection string, filter models.Filter) (models.Document, error) {
	_, docs, err := s.scan(s.db.WithContext(ctx), collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s %v: %w", collection, filter, ErrNotFound)
	}
	return docs[0], nil
}

// FindMany retrieves all documents matching filter.
func (s *GORMDocumentStore) FindMany(ctx context.Context, collection string, filter models.Filter) ([]models.Document, error) {
	_, docs, err := s.scan(s.db.WithContext(ctx), collection, filter, 0)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// UpsertOne merges patch into the first match, or inserts filter+patch, in a
// single transaction. An insert that loses a race on the unique key is retried
// once and then merges into the winner.
func (s *GORMDocumentStore) UpsertOne(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	res, err := s.upsert(ctx, collection, filter, patch)
	if errors.Is(err, ErrDuplicate) {
		return s.upsert(ctx, collection, filter, patch)
	}
	return res, err
}

func (s *GORMDocumentStore) upsert(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	var res *models.UpdateResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recs, docs, err := s.scan(tx, collection, filter, 1)
		if err != nil {
			return err
		}

		if len(docs) == 1 {
			res = &models.UpdateResult{MatchedCount: 1}
			if !merge(docs[0], models.Document(normalize(models.Filter(patch)))) {
				return nil
			}
			updated, err := newRecord(recs[0].ID, collection, docs[0])
			if err != nil {
				return err
			}
			if err := tx.Model(&recs[0]).Updates(map[string]interface{}{
				"body":       updated.Body,
				"unique_key": updated.UniqueKey,
			}).Error; err != nil {
				return fmt.Errorf("failed to update %s/%s: %w", collection, recs[0].ID, err)
			}
			res.ModifiedCount = 1
			return nil
		}

		doc := seed(filter, patch)
		id, _ := doc[models.IDField].(string)
		if id == "" {
			id = uuid.New().String()
		}
		rec, err := newRecord(id, collection, doc)
		if err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return createError(collection, err)
		}
		res = &models.UpdateResult{UpsertedCount: 1, UpsertedID: id}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// InsertOne creates a new document, generating its id when absent.
func (s *GORMDocumentStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	id, _ := doc[models.IDField].(string)
	if id == "" {
		id = uuid.New().String()
	}
	rec, err := newRecord(id, collection, doc)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, createError(collection, err)
	}
	return &models.InsertResult{InsertedID: id}, nil
}

// DeleteOne deletes the first document matching filter.
func (s *GORMDocumentStore) DeleteOne(ctx context.Context, collection string, filter models.Filter) (*models.DeleteResult, error) {
	db := s.db.WithContext(ctx)
	recs, _, err := s.scan(db, collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return &models.DeleteResult{DeletedCount: 0}, nil
	}
	res := db.Where("collection = ? AND id = ?", collection, recs[0].ID).Delete(&documentRecord{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete %s/%s: %w", collection, recs[0].ID, res.Error)
	}
	return &models.DeleteResult{DeletedCount: res.RowsAffected}, nil
}

// Ping checks the underlying SQL connection.
func (s *GORMDocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the SQL connection pool.
func (s *GORMDocumentStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidDB) {
			return nil
		}
		return err
	}
	return sqlDB.Close()
}
