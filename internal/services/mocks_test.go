package services_test

import (
	"context"
	"time"

	"toolsnest/internal/cache"
	"toolsnest/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockDocumentStore is a mock implementation of repositories.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) FindOne(ctx context.Context, collection string, filter models.Filter) (models.Document, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Document), args.Error(1)
}

func (m *MockDocumentStore) FindMany(ctx context.Context, collection string, filter models.Filter) ([]models.Document, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Document), args.Error(1)
}

func (m *MockDocumentStore) UpsertOne(ctx context.Context, collection string, filter models.Filter, patch models.Document) (*models.UpdateResult, error) {
	args := m.Called(ctx, collection, filter, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpdateResult), args.Error(1)
}

func (m *MockDocumentStore) InsertOne(ctx context.Context, collection string, doc models.Document) (*models.InsertResult, error) {
	args := m.Called(ctx, collection, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InsertResult), args.Error(1)
}

func (m *MockDocumentStore) DeleteOne(ctx context.Context, collection string, filter models.Filter) (*models.DeleteResult, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeleteResult), args.Error(1)
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDocumentStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

// MockGateway is a mock payment gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	args := m.Called(ctx, amount, currency)
	return args.String(0), args.Error(1)
}

// mapCache is an in-memory services.Cache.
type mapCache struct {
	entries map[string][]byte
	gets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.gets++
	data, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (c *mapCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.entries[key] = data
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
