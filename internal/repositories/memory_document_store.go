package repositories

import (
	"context"
	"fmt"
	"sync"

	"toolsnest/internal/models"

	"github.com/google/uuid"
)

// MemoryDocumentStore is an in-memory implementation of DocumentStore.
// Identifiers are UUID strings. Documents keep insertion order.
type MemoryDocumentStore struct {
	collections map[string][]models.Document
	mu          sync.RWMutex
}

// NewMemoryDocumentStore creates a new, empty MemoryDocumentStore.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string][]models.Document),
	}
}

func validateUUIDFilter(filter models.Filter) error {
	raw, ok := filter[models.IDField]
	if !ok {
		return nil
	}
	id, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidID, raw)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return nil
}

// FindOne returns the first document matching filter.
func (s *MemoryDocumentStore) FindOne(_ context.Context, collection string, filter models.Filter) (models.Document, error) {
	if err := validateUUIDFilter(filter); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			return clone(doc), nil
		}
	}
	return nil, fmt.Errorf("%s %v: %w", collection, filter, ErrNotFound)
}

// FindMany returns every document matching filter.
func (s *MemoryDocumentStore) FindMany(_ context.Context, collection string, filter models.Filter) ([]models.Document, error) {
	if err := validateUUIDFilter(filter); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			docs = append(docs, clone(doc))
		}
	}
	return docs, nil
}

// UpsertOne merges patch into the first match or inserts a new document.
func (s *MemoryDocumentStore) UpsertOne(_ context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	if err := validateUUIDFilter(filter); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			res := &models.UpdateResult{MatchedCount: 1}
			if merge(doc, patch) {
				res.ModifiedCount = 1
			}
			return res, nil
		}
	}

	doc := seed(filter, patch)
	if _, ok := doc[models.IDField]; !ok {
		doc[models.IDField] = uuid.New().String()
	}
	s.collections[collection] = append(s.collections[collection], doc)
	return &models.UpdateResult{UpsertedCount: 1, UpsertedID: doc[models.IDField]}, nil
}

// InsertOne adds a new document, generating its id when absent.
func (s *MemoryDocumentStore) InsertOne(_ context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(doc)
	if _, ok := stored[models.IDField]; !ok {
		stored[models.IDField] = uuid.New().String()
	}
	key, unique := uniqueValue(collection, stored)
	for _, existing := range s.collections[collection] {
		if existing[models.IDField] == stored[models.IDField] {
			return nil, fmt.Errorf("%w: %s %v in %s", ErrDuplicate, models.IDField, stored[models.IDField], collection)
		}
		if other, ok := uniqueValue(collection, existing); unique && ok && other == key {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicate, key, collection)
		}
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return &models.InsertResult{InsertedID: stored[models.IDField]}, nil
}

// DeleteOne removes the first document matching filter.
func (s *MemoryDocumentStore) DeleteOne(_ context.Context, collection string, filter models.Filter) (*models.DeleteResult, error) {
	if err := validateUUIDFilter(filter); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return &models.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &models.DeleteResult{DeletedCount: 0}, nil
}

func (s *MemoryDocumentStore) Ping(context.Context) error { return nil }

func (s *MemoryDocumentStore) Close(context.Context) error { return nil }
