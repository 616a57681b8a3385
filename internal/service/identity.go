package service

import (
	"context"

	"promptgram/internal/cache"
	"promptgram/internal/model"
	"promptgram/internal/repository"
)

// IdentityService resolves users by id or email through the identity cache.
// A database hit populates both the id-keyed and email-keyed entries so a
// later lookup by either key lands on the same cached row. Resolved users
// never carry the password hash; credential checks go straight to the
// repository.
type IdentityService struct {
	userRepo repository.UserRepository
	cache    cache.Store
}

func NewIdentityService(userRepo repository.UserRepository, cacheStore cache.Store) *IdentityService {
	return &IdentityService{
		userRepo: userRepo,
		cache:    cacheStore,
	}
}

// ResolveByID returns the user with the given id, from cache when possible.
func (s *IdentityService) ResolveByID(ctx context.Context, userID int64) (*model.User, error) {
	var cached model.User
	if s.cache.Get(ctx, cache.UserKey(userID), &cached) {
		return &cached, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, user)
	return user, nil
}

// ResolveByEmail returns the user with the given email, from cache when
// possible.
func (s *IdentityService) ResolveByEmail(ctx context.Context, email string) (*model.User, error) {
	var cached model.User
	if s.cache.Get(ctx, cache.UserByEmailKey(email), &cached) {
		return &cached, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	s.store(ctx, user)
	return user, nil
}

// Invalidate drops both cache entries for a user. Callers that mutate a user
// row or its counters go through this so a follow-up read refetches.
func (s *IdentityService) Invalidate(ctx context.Context, userID int64, email string) {
	s.cache.DeleteMany(ctx, cache.UserKey(userID), cache.UserByEmailKey(email))
}

func (s *IdentityService) store(ctx context.Context, user *model.User) {
	s.cache.Set(ctx, cache.UserKey(user.ID), user, cache.UserTTL)
	s.cache.Set(ctx, cache.UserByEmailKey(user.Email), user, cache.UserTTL)
}
