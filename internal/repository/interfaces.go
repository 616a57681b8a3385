package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"promptgram/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error
	Delete(ctx context.Context, userID int64) error
}

type FollowRepository interface {
	// Create inserts a follow edge inside the caller's transaction.
	// Returns false when the edge already existed; the unique constraint is
	// the arbiter under concurrency, not an application-level check.
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error)
	// Delete removes a follow edge inside the caller's transaction.
	// Returns model.ErrNotFollowing when no edge existed.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	GetByID(ctx context.Context, imageID int64) (*model.Image, error)
	Exists(ctx context.Context, imageID int64) (bool, error)
	GetAllPublic(ctx context.Context) ([]model.GalleryImage, error)
	GetByUser(ctx context.Context, userID int64) ([]model.ImageSummary, error)
	// InsertLike adds a like edge inside the caller's transaction.
	// Returns false when the like already existed.
	InsertLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error)
	// DeleteLike removes a like edge inside the caller's transaction.
	// Returns false when no like existed.
	DeleteLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error)
	// UpdateLikeCount applies delta to like_count and returns the stored
	// post-update value from the same transaction.
	UpdateLikeCount(ctx context.Context, tx *sqlx.Tx, imageID int64, delta int) (int, error)
	// IncrementRemixCount is the monotonic, best-effort remix counter bump.
	// Deliberately not transactional with remix creation.
	IncrementRemixCount(ctx context.Context, imageID int64) error
	// CheckLikes reports which of the given images the user has liked,
	// in one batch query.
	CheckLikes(ctx context.Context, userID int64, imageIDs []int64) (map[int64]bool, error)
}

type RemixRepository interface {
	Create(ctx context.Context, remix *model.RemixImage) error
	GetByUser(ctx context.Context, userID int64) ([]model.RemixImage, error)
}

// CounterRepository recomputes denormalized counters from their edge tables.
// Used by the out-of-band reconciliation worker, never on request paths.
type CounterRepository interface {
	ReconcileUser(ctx context.Context, userID int64) error
	ReconcileImage(ctx context.Context, imageID int64) error
	// ReconcileAll rewrites every drifted counter and returns how many rows
	// were corrected.
	ReconcileAll(ctx context.Context) (int64, error)
}
