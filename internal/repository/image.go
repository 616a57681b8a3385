package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"promptgram/internal/model"
)

type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create inserts a new image with zeroed counters.
func (r *imageRepository) Create(ctx context.Context, img *model.Image) error {
	query := `
		INSERT INTO images (user_id, prompt, model, seed, storage_url, provider_url, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, like_count, remix_count, created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		img.UserID,
		img.Prompt,
		img.Model,
		img.Seed,
		img.StorageURL,
		img.ProviderURL,
		img.IsPublic,
	)

	err := row.Scan(&img.ID, &img.LikeCount, &img.RemixCount, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}

	return nil
}

func (r *imageRepository) GetByID(ctx context.Context, imageID int64) (*model.Image, error) {
	query := `
		SELECT id, user_id, prompt, model, seed, storage_url, provider_url,
		       is_public, like_count, remix_count, created_at
		FROM images
		WHERE id = $1
	`

	var img model.Image
	err := r.db.GetContext(ctx, &img, query, imageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

func (r *imageRepository) Exists(ctx context.Context, imageID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM images WHERE id = $1)`, imageID)
	if err != nil {
		return false, fmt.Errorf("failed to check image exists: %w", err)
	}
	return exists, nil
}

// GetAllPublic returns every public image with its creator summary, newest
// first. This is the gallery feed; the result is what gets cached.
func (r *imageRepository) GetAllPublic(ctx context.Context) ([]model.GalleryImage, error) {
	query := `
		SELECT i.id, i.prompt, i.storage_url, i.model, i.seed, i.is_public,
		       i.like_count, i.remix_count, i.created_at,
		       u.id AS creator_id, u.name AS creator_name, u.avatar AS creator_avatar
		FROM images i
		JOIN users u ON u.id = i.user_id
		WHERE i.is_public = TRUE
		ORDER BY i.created_at DESC
	`

	type galleryRow struct {
		ID            int64     `db:"id"`
		Prompt        string    `db:"prompt"`
		StorageURL    string    `db:"storage_url"`
		Model         string    `db:"model"`
		Seed          int64     `db:"seed"`
		IsPublic      bool      `db:"is_public"`
		LikeCount     int       `db:"like_count"`
		RemixCount    int       `db:"remix_count"`
		CreatedAt     time.Time `db:"created_at"`
		CreatorID     int64     `db:"creator_id"`
		CreatorName   string    `db:"creator_name"`
		CreatorAvatar *string   `db:"creator_avatar"`
	}

	var rows []galleryRow
	err := r.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get public images: %w", err)
	}

	images := make([]model.GalleryImage, len(rows))
	for i, row := range rows {
		images[i] = model.GalleryImage{
			ID:         row.ID,
			Prompt:     row.Prompt,
			ImageURL:   row.StorageURL,
			Model:      row.Model,
			Seed:       row.Seed,
			IsPublic:   row.IsPublic,
			LikeCount:  row.LikeCount,
			RemixCount: row.RemixCount,
			CreatedAt:  row.CreatedAt,
			Creator: model.UserSummary{
				ID:     row.CreatorID,
				Name:   row.CreatorName,
				Avatar: row.CreatorAvatar,
			},
		}
	}

	return images, nil
}

func (r *imageRepository) GetByUser(ctx context.Context, userID int64) ([]model.ImageSummary, error) {
	query := `
		SELECT id, prompt, storage_url, like_count, remix_count, created_at
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var images []model.ImageSummary
	err := r.db.SelectContext(ctx, &images, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user images: %w", err)
	}

	return images, nil
}

func (r *imageRepository) InsertLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error) {
	query := `
		INSERT INTO image_likes (user_id, image_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, image_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, userID, imageID)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *imageRepository) DeleteLike(ctx context.Context, tx *sqlx.Tx, userID, imageID int64) (bool, error) {
	query := `DELETE FROM image_likes WHERE user_id = $1 AND image_id = $2`
	result, err := tx.ExecContext(ctx, query, userID, imageID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// UpdateLikeCount applies delta and returns the stored post-update count so
// the caller can report the authoritative value from the same transaction.
func (r *imageRepository) UpdateLikeCount(ctx context.Context, tx *sqlx.Tx, imageID int64, delta int) (int, error) {
	query := `UPDATE images SET like_count = like_count + $1 WHERE id = $2 RETURNING like_count`

	var likeCount int
	err := tx.GetContext(ctx, &likeCount, query, delta, imageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, model.ErrImageNotFound
		}
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}

	return likeCount, nil
}

func (r *imageRepository) IncrementRemixCount(ctx context.Context, imageID int64) error {
	query := `UPDATE images SET remix_count = remix_count + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, imageID)
	if err != nil {
		return fmt.Errorf("failed to increment remix count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrImageNotFound
	}

	return nil
}

func (r *imageRepository) CheckLikes(ctx context.Context, userID int64, imageIDs []int64) (map[int64]bool, error) {
	if len(imageIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT image_id FROM image_likes WHERE user_id = $1 AND image_id = ANY($2)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(imageIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range imageIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}
