package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"promptgram/internal/cache"
	"promptgram/internal/model"
	"promptgram/internal/repository"
)

// FollowService is the follow half of the counter toggle engine. The edge
// insert and both counter updates commit in one transaction; the unique
// constraint on follows is the arbiter when two toggles race. The cache is
// only ever invalidated, never consulted, on the write path.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	cache      cache.Store
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	cacheStore cache.Store,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		cache:      cacheStore,
	}
}

// Toggle applies a follow or unfollow from actor to target. Re-following and
// un-unfollowing are errors, not no-ops; the client's view of the edge was
// stale and it should learn that.
func (s *FollowService) Toggle(ctx context.Context, actorID, targetID int64, action string) (*model.FollowToggleResult, error) {
	if action != model.ActionFollow && action != model.ActionUnfollow {
		return nil, model.ErrInvalidAction
	}

	if actorID == targetID {
		return nil, model.ErrCannotFollowSelf
	}

	// Both rows are loaded up front: the existence check for the target and
	// the emails needed for identity-cache invalidation after commit.
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if action == model.ActionFollow {
		if err := s.follow(ctx, actorID, targetID); err != nil {
			return nil, err
		}

		s.invalidateUsers(ctx, actor, target)
		log.Printf("[FollowService] Follow OK: actor=%d target=%d", actorID, targetID)
		return &model.FollowToggleResult{IsFollowing: true}, nil
	}

	if err := s.unfollow(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	s.invalidateUsers(ctx, actor, target)
	log.Printf("[FollowService] Unfollow OK: actor=%d target=%d", actorID, targetID)
	return &model.FollowToggleResult{IsFollowing: false}, nil
}

// follow inserts the edge and moves both counters atomically.
func (s *FollowService) follow(ctx context.Context, actorID, targetID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Create(ctx, tx, actorID, targetID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadyFollowing
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, 1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, actorID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// unfollow deletes the edge and moves both counters atomically.
func (s *FollowService) unfollow(ctx context.Context, actorID, targetID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.followRepo.Delete(ctx, tx, actorID, targetID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, -1); err != nil {
		return err
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, actorID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// invalidateUsers drops both users' identity-cache entries after a committed
// toggle so the next read sees the new counters.
func (s *FollowService) invalidateUsers(ctx context.Context, actor, target *model.User) {
	s.cache.DeleteMany(ctx,
		cache.UserKey(actor.ID),
		cache.UserByEmailKey(actor.Email),
		cache.UserKey(target.ID),
		cache.UserByEmailKey(target.Email),
	)
}

// IsFollowing reports whether actor follows target. This always hits the
// store: follow state feeds write decisions and must never come from cache.
func (s *FollowService) IsFollowing(ctx context.Context, actorID, targetID int64) (bool, error) {
	return s.followRepo.Exists(ctx, actorID, targetID)
}

// GetFollowers returns the users following userID, newest first.
func (s *FollowService) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.followRepo.GetFollowers(ctx, userID)
}

// GetFollowing returns the users userID follows, newest first.
func (s *FollowService) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	return s.followRepo.GetFollowing(ctx, userID)
}
