package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"toolsnest/internal/cache"
	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
)

// Cache is the byte cache used for product reads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const allProductsKey = "products:list"

func productKey(id string) string { return "products:id:" + id }

// ProductService handles product operations. Reads go through the cache when
// one is configured; every write invalidates the affected keys.
type ProductService struct {
	store repositories.DocumentStore
	cache Cache
	ttl   time.Duration
}

// NewProductService creates a new ProductService. productCache may be nil.
func NewProductService(store repositories.DocumentStore, productCache Cache, ttl time.Duration) *ProductService {
	return &ProductService{
		store: store,
		cache: productCache,
		ttl:   ttl,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Document, error) {
	var products []models.Document
	if s.cached(ctx, allProductsKey, &products) {
		return products, nil
	}
	products, err := s.store.FindMany(ctx, models.ProductCollection, models.Filter{})
	if err != nil {
		return nil, err
	}
	s.remember(ctx, allProductsKey, products)
	return products, nil
}

// GetProductByID retrieves a single product by its id.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (models.Document, error) {
	var product models.Document
	if s.cached(ctx, productKey(id), &product) {
		return product, nil
	}
	product, err := s.store.FindOne(ctx, models.ProductCollection, models.ByID(id))
	if err != nil {
		return nil, err
	}
	s.remember(ctx, productKey(id), product)
	return product, nil
}

// CreateProduct inserts a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product models.Product) (*models.InsertResult, error) {
	res, err := s.store.InsertOne(ctx, models.ProductCollection, product.Document())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, allProductsKey)
	return res, nil
}

// UpdateProduct upserts patch into the product with id.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.UpdateResult, error) {
	res, err := s.store.UpsertOne(ctx, models.ProductCollection, models.ByID(id), patch.Patch())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, allProductsKey, productKey(id))
	return res, nil
}

// DeleteProduct deletes a product by its id.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.DeleteResult, error) {
	res, err := s.store.DeleteOne(ctx, models.ProductCollection, models.ByID(id))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, allProductsKey, productKey(id))
	return res, nil
}

func (s *ProductService) cached(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("product cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("product cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *ProductService) remember(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		slog.Warn("product cache write failed", "key", key, "error", err)
	}
}

func (s *ProductService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("product cache invalidation failed", "keys", keys, "error", err)
	}
}
