package services

import (
	"context"

	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
)

// ReviewService handles the append-only review collection.
type ReviewService struct {
	store repositories.DocumentStore
}

func NewReviewService(store repositories.DocumentStore) *ReviewService {
	return &ReviewService{store: store}
}

func (s *ReviewService) GetAllReviews(ctx context.Context) ([]models.Document, error) {
	return s.store.FindMany(ctx, models.ReviewCollection, models.Filter{})
}

func (s *ReviewService) CreateReview(ctx context.Context, review models.Review) (*models.InsertResult, error) {
	return s.store.InsertOne(ctx, models.ReviewCollection, review.Document())
}
