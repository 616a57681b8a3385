package model

import (
	"errors"
	"time"
)

// Image is a generated image. LikeCount and RemixCount are denormalized
// counters mirroring the image_likes and remix_images tables. LikeCount is
// mutated only inside like-toggle transactions; RemixCount only by the
// best-effort increment after a remix row commits.
type Image struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Prompt      string    `db:"prompt" json:"prompt"`
	Model       string    `db:"model" json:"model"`
	Seed        int64     `db:"seed" json:"seed"`
	StorageURL  string    `db:"storage_url" json:"image_url"`
	ProviderURL *string   `db:"provider_url" json:"provider_url,omitempty"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	LikeCount   int       `db:"like_count" json:"like_count"`
	RemixCount  int       `db:"remix_count" json:"remix_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ImageSummary is the lightweight projection used in profile reads.
type ImageSummary struct {
	ID         int64     `db:"id" json:"id"`
	Prompt     string    `db:"prompt" json:"prompt"`
	StorageURL string    `db:"storage_url" json:"image_url"`
	LikeCount  int       `db:"like_count" json:"like_count"`
	RemixCount int       `db:"remix_count" json:"remix_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ImageLike is an edge: user liked image. Unique per (user, image).
type ImageLike struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ImageID   int64     `db:"image_id" json:"image_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RemixImage records one remix generation. Creating it triggers a
// best-effort increment of the original image's remix_count; there is no
// un-remix, the counter is monotonic.
type RemixImage struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	OriginalImageID int64     `db:"original_image_id" json:"original_image_id"`
	RemixPrompt     string    `db:"remix_prompt" json:"remix_prompt"`
	OriginalPrompt  string    `db:"original_prompt" json:"original_prompt"`
	StorageURL      string    `db:"storage_url" json:"image_url"`
	ProviderURL     *string   `db:"provider_url" json:"provider_url,omitempty"`
	Seed            int64     `db:"seed" json:"seed"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// GalleryImage is the denormalized gallery item: image + creator summary.
// IsLiked is per-viewer and is stitched in after the shared cache fetch,
// never cached.
type GalleryImage struct {
	ID         int64       `json:"id"`
	Prompt     string      `json:"prompt"`
	ImageURL   string      `json:"image_url"`
	Model      string      `json:"model"`
	Seed       int64       `json:"seed"`
	IsPublic   bool        `json:"is_public"`
	LikeCount  int         `json:"like_count"`
	RemixCount int         `json:"remix_count"`
	CreatedAt  time.Time   `json:"created_at"`
	Creator    UserSummary `json:"creator"`
	IsLiked    bool        `json:"is_liked"`
}

// GenerateImageRequest is the request body for image generation.
type GenerateImageRequest struct {
	Prompt   string `json:"prompt" validate:"required,min=1,max=2000"`
	Model    string `json:"model" validate:"required,min=1,max=64"`
	IsPublic bool   `json:"is_public"`
}

// LikeToggleResult carries the post-transaction authoritative state.
// LikeCount is read back inside the same transaction, never recomputed
// from a cached value.
type LikeToggleResult struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}

// RemixImageRequest is the request body for remix generation.
type RemixImageRequest struct {
	OriginalImageID int64  `json:"original_image_id" validate:"required,gt=0"`
	RemixPrompt     string `json:"remix_prompt" validate:"required,min=1,max=2000"`
}

// RemixImageResponse returns the persisted remix artifact.
type RemixImageResponse struct {
	ID             int64   `json:"id"`
	RemixPrompt    string  `json:"remix_prompt"`
	OriginalPrompt string  `json:"original_prompt"`
	ImageURL       string  `json:"image_url"`
	ProviderURL    *string `json:"provider_url,omitempty"`
}

var (
	ErrImageNotFound = errors.New("image not found")

	// ErrLikeConflict is returned when a like toggle loses a race so badly
	// that neither the insert nor the delete applied; the caller should
	// re-read and retry deliberately.
	ErrLikeConflict = errors.New("like state changed concurrently")

	// ErrRateLimited is returned when a user exceeds the generation quota.
	ErrRateLimited = errors.New("generation rate limit exceeded")
)
