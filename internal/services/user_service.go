package services

import (
	"context"
	"fmt"

	"toolsnest/internal/models"
	"toolsnest/internal/repositories"
)

// UserService handles user profile and admin flag operations. Users are keyed
// by email.
type UserService struct {
	store  repositories.DocumentStore
	tokens *TokenService
}

// NewUserService creates a new UserService.
func NewUserService(store repositories.DocumentStore, tokens *TokenService) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
	}
}

// LoginResult is returned when a user signs in through the profile upsert.
type LoginResult struct {
	Result *models.UpdateResult `json:"result"`
	Token  string               `json:"token"`
}

// Login upserts the user's profile and issues a fresh access token for email.
func (s *UserService) Login(ctx context.Context, email string, profile models.UserProfile) (*LoginResult, error) {
	res, err := s.store.UpsertOne(ctx, models.UserCollection, models.ByEmail(email), profile.Patch())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", email, err)
	}
	token, err := s.tokens.Issue(email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Result: res, Token: token}, nil
}

// GetUser retrieves a user by email.
func (s *UserService) GetUser(ctx context.Context, email string) (models.Document, error) {
	return s.store.FindOne(ctx, models.UserCollection, models.ByEmail(email))
}

// GetAllUsers retrieves every user.
func (s *UserService) GetAllUsers(ctx context.Context) ([]models.Document, error) {
	return s.store.FindMany(ctx, models.UserCollection, models.Filter{})
}

// UpdateProfile upserts the allowlisted profile fields by email.
func (s *UserService) UpdateProfile(ctx context.Context, email string, profile models.UserProfile) (*models.UpdateResult, error) {
	return s.store.UpsertOne(ctx, models.UserCollection, models.ByEmail(email), profile.Patch())
}

// SetAdmin grants or revokes the admin flag.
func (s *UserService) SetAdmin(ctx context.Context, email string, admin bool) (*models.UpdateResult, error) {
	return s.store.UpsertOne(ctx, models.UserCollection, models.ByEmail(email), models.AdminPatch(admin))
}

// DeleteUser removes a user by email.
func (s *UserService) DeleteUser(ctx context.Context, email string) (*models.DeleteResult, error) {
	return s.store.DeleteOne(ctx, models.UserCollection, models.ByEmail(email))
}
