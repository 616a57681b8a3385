package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"promptgram/internal/model"
)

type remixRepository struct {
	db *sqlx.DB
}

func NewRemixRepository(db *sqlx.DB) RemixRepository {
	return &remixRepository{db: db}
}

// Create inserts a remix record. The remix_count increment on the original
// image happens separately, after this commit.
func (r *remixRepository) Create(ctx context.Context, remix *model.RemixImage) error {
	query := `
		INSERT INTO remix_images (user_id, original_image_id, remix_prompt, original_prompt, storage_url, provider_url, seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		remix.UserID,
		remix.OriginalImageID,
		remix.RemixPrompt,
		remix.OriginalPrompt,
		remix.StorageURL,
		remix.ProviderURL,
		remix.Seed,
	)

	err := row.Scan(&remix.ID, &remix.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert remix: %w", err)
	}

	return nil
}

func (r *remixRepository) GetByUser(ctx context.Context, userID int64) ([]model.RemixImage, error) {
	query := `
		SELECT id, user_id, original_image_id, remix_prompt, original_prompt,
		       storage_url, provider_url, seed, created_at
		FROM remix_images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var remixes []model.RemixImage
	err := r.db.SelectContext(ctx, &remixes, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user remixes: %w", err)
	}

	return remixes, nil
}
