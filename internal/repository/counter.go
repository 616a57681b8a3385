package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// counterRepository rewrites denormalized counters from their backing edge
// tables. Only the reconciliation worker calls this; request paths keep
// counters consistent transactionally and never recount.
type counterRepository struct {
	db *sqlx.DB
}

func NewCounterRepository(db *sqlx.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) ReconcileUser(ctx context.Context, userID int64) error {
	query := `
		UPDATE users SET
			follower_count  = (SELECT COUNT(*) FROM follows WHERE following_id = users.id),
			following_count = (SELECT COUNT(*) FROM follows WHERE follower_id = users.id),
			updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to reconcile user counters: %w", err)
	}
	return nil
}

func (r *counterRepository) ReconcileImage(ctx context.Context, imageID int64) error {
	query := `
		UPDATE images SET
			like_count  = (SELECT COUNT(*) FROM image_likes WHERE image_id = images.id),
			remix_count = (SELECT COUNT(*) FROM remix_images WHERE original_image_id = images.id)
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, imageID); err != nil {
		return fmt.Errorf("failed to reconcile image counters: %w", err)
	}
	return nil
}

// ReconcileAll corrects every drifted counter in one pass per table.
// The WHERE clauses keep the update from touching rows that are already
// consistent, so a clean database is a cheap no-op.
func (r *counterRepository) ReconcileAll(ctx context.Context) (int64, error) {
	userQuery := `
		UPDATE users SET
			follower_count  = (SELECT COUNT(*) FROM follows WHERE following_id = users.id),
			following_count = (SELECT COUNT(*) FROM follows WHERE follower_id = users.id),
			updated_at = NOW()
		WHERE follower_count  <> (SELECT COUNT(*) FROM follows WHERE following_id = users.id)
		   OR following_count <> (SELECT COUNT(*) FROM follows WHERE follower_id = users.id)
	`
	userResult, err := r.db.ExecContext(ctx, userQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile user counters: %w", err)
	}
	userRows, err := userResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	imageQuery := `
		UPDATE images SET
			like_count  = (SELECT COUNT(*) FROM image_likes WHERE image_id = images.id),
			remix_count = (SELECT COUNT(*) FROM remix_images WHERE original_image_id = images.id)
		WHERE like_count  <> (SELECT COUNT(*) FROM image_likes WHERE image_id = images.id)
		   OR remix_count <> (SELECT COUNT(*) FROM remix_images WHERE original_image_id = images.id)
	`
	imageResult, err := r.db.ExecContext(ctx, imageQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile image counters: %w", err)
	}
	imageRows, err := imageResult.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return userRows + imageRows, nil
}
