package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/jmoiron/sqlx"

	"promptgram/internal/cache"
	"promptgram/internal/generation"
	"promptgram/internal/model"
	"promptgram/internal/queue"
	"promptgram/internal/repository"
)

// ImageService owns generation, the like toggle, remixing and the gallery
// read path. Like counts only ever change inside the toggle transaction;
// remix counts are bumped best-effort after the remix row commits, with a
// drift event published when the bump fails.
type ImageService struct {
	imageRepo repository.ImageRepository
	remixRepo repository.RemixRepository
	db        *sqlx.DB
	cache     cache.Store
	generator *generation.Client
	publisher queue.Publisher
	rateLimit int64
}

func NewImageService(
	imageRepo repository.ImageRepository,
	remixRepo repository.RemixRepository,
	db *sqlx.DB,
	cacheStore cache.Store,
	generator *generation.Client,
	publisher queue.Publisher,
	rateLimit int64,
) *ImageService {
	return &ImageService{
		imageRepo: imageRepo,
		remixRepo: remixRepo,
		db:        db,
		cache:     cacheStore,
		generator: generator,
		publisher: publisher,
		rateLimit: rateLimit,
	}
}

// Generate produces an image from a prompt and persists it. The per-user
// rate limit rides on the cache; when the cache is down the limiter fails
// open rather than blocking generation.
func (s *ImageService) Generate(ctx context.Context, userID int64, req *model.GenerateImageRequest) (*model.Image, error) {
	count := s.cache.Incr(ctx, cache.RateLimitGenerateKey(userID), cache.RateLimitWindow)
	if count > s.rateLimit {
		log.Printf("[ImageService] Generate rate limited: user=%d count=%d", userID, count)
		return nil, model.ErrRateLimited
	}

	seed := rand.Int63n(1_000_000)

	result, err := s.generator.Generate(ctx, generation.Options{
		Prompt: req.Prompt,
		Model:  req.Model,
		Seed:   seed,
	})
	if err != nil {
		return nil, err
	}

	image := &model.Image{
		UserID:      userID,
		Prompt:      req.Prompt,
		Model:       req.Model,
		Seed:        seed,
		StorageURL:  result.ImageURL,
		ProviderURL: &result.ProviderURL,
		IsPublic:    req.IsPublic,
	}

	if err := s.imageRepo.Create(ctx, image); err != nil {
		return nil, err
	}

	s.cache.DeleteMany(ctx, cache.GalleryFeedKey(), cache.UserImagesKey(userID))
	log.Printf("[ImageService] Generate OK: user=%d image=%d model=%s", userID, image.ID, image.Model)

	return image, nil
}

// ToggleLike flips the like edge for (user, image) and returns the
// authoritative post-transaction state. The unique constraint on image_likes
// arbitrates races: the insert either takes effect or reports the edge as
// already present, and the counter moves only when the edge actually moved.
func (s *ImageService) ToggleLike(ctx context.Context, userID, imageID int64) (*model.LikeToggleResult, error) {
	exists, err := s.imageRepo.Exists(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrImageNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var result model.LikeToggleResult

	inserted, err := s.imageRepo.InsertLike(ctx, tx, userID, imageID)
	if err != nil {
		return nil, err
	}

	if inserted {
		likeCount, err := s.imageRepo.UpdateLikeCount(ctx, tx, imageID, 1)
		if err != nil {
			return nil, err
		}
		result = model.LikeToggleResult{IsLiked: true, LikeCount: likeCount}
	} else {
		deleted, err := s.imageRepo.DeleteLike(ctx, tx, userID, imageID)
		if err != nil {
			return nil, err
		}
		if !deleted {
			// Another request removed the like between our insert attempt
			// and the delete. Surface the conflict instead of guessing.
			return nil, model.ErrLikeConflict
		}

		likeCount, err := s.imageRepo.UpdateLikeCount(ctx, tx, imageID, -1)
		if err != nil {
			return nil, err
		}
		result = model.LikeToggleResult{IsLiked: false, LikeCount: likeCount}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.cache.DeleteMany(ctx, cache.ImageKey(imageID), cache.GalleryFeedKey())
	log.Printf("[ImageService] ToggleLike OK: user=%d image=%d liked=%t count=%d",
		userID, imageID, result.IsLiked, result.LikeCount)

	return &result, nil
}

// Remix generates a variation of an existing image. The remix row is the
// durable record; the original's remix_count bump is best-effort and a
// failure only degrades the displayed counter until reconciliation.
func (s *ImageService) Remix(ctx context.Context, userID int64, req *model.RemixImageRequest) (*model.RemixImageResponse, error) {
	original, err := s.imageRepo.GetByID(ctx, req.OriginalImageID)
	if err != nil {
		return nil, err
	}

	count := s.cache.Incr(ctx, cache.RateLimitGenerateKey(userID), cache.RateLimitWindow)
	if count > s.rateLimit {
		log.Printf("[ImageService] Remix rate limited: user=%d count=%d", userID, count)
		return nil, model.ErrRateLimited
	}

	// Remixing reuses the original's model and seed so the variation stays
	// anchored to the source image on a URL-addressed provider.
	result, err := s.generator.Generate(ctx, generation.Options{
		Prompt: req.RemixPrompt,
		Model:  original.Model,
		Seed:   original.Seed,
	})
	if err != nil {
		return nil, err
	}

	remix := &model.RemixImage{
		UserID:          userID,
		OriginalImageID: original.ID,
		RemixPrompt:     req.RemixPrompt,
		OriginalPrompt:  original.Prompt,
		StorageURL:      result.ImageURL,
		ProviderURL:     &result.ProviderURL,
		Seed:            original.Seed,
	}

	if err := s.remixRepo.Create(ctx, remix); err != nil {
		return nil, err
	}

	if err := s.IncrementRemixCount(ctx, original.ID); err != nil {
		// Non-fatal: the remix itself is already persisted.
		log.Printf("[ImageService] CounterDriftWarning: remix_count bump failed, image=%d: %v", original.ID, err)
	}

	log.Printf("[ImageService] Remix OK: user=%d original=%d remix=%d", userID, original.ID, remix.ID)

	return &model.RemixImageResponse{
		ID:             remix.ID,
		RemixPrompt:    remix.RemixPrompt,
		OriginalPrompt: remix.OriginalPrompt,
		ImageURL:       remix.StorageURL,
		ProviderURL:    remix.ProviderURL,
	}, nil
}

// IncrementRemixCount bumps an image's remix counter and invalidates its
// cache entries. On failure a drift event is published so the reconciliation
// worker can recount the image from its edge table.
func (s *ImageService) IncrementRemixCount(ctx context.Context, imageID int64) error {
	if err := s.imageRepo.IncrementRemixCount(ctx, imageID); err != nil {
		event := queue.NewImageCounterDriftEvent(imageID, "remix_count increment failed")
		if _, pubErr := s.publisher.Publish(ctx, queue.StreamReconcile, event); pubErr != nil {
			log.Printf("[ImageService] Publish drift event FAILED: image=%d: %v", imageID, pubErr)
		}
		return err
	}

	s.cache.DeleteMany(ctx, cache.ImageKey(imageID), cache.GalleryFeedKey())
	return nil
}

// Gallery returns all public images, newest first, through a shared
// read-through cache. The per-viewer is_liked flags are stitched in after
// the cache fetch so the cached entry stays viewer-agnostic.
func (s *ImageService) Gallery(ctx context.Context, viewerID *int64) ([]model.GalleryImage, error) {
	var images []model.GalleryImage

	if !s.cache.Get(ctx, cache.GalleryFeedKey(), &images) {
		var err error
		images, err = s.imageRepo.GetAllPublic(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, cache.GalleryFeedKey(), images, cache.GalleryTTL)
	}

	if viewerID == nil || len(images) == 0 {
		return images, nil
	}

	imageIDs := make([]int64, len(images))
	for i, img := range images {
		imageIDs[i] = img.ID
	}

	liked, err := s.imageRepo.CheckLikes(ctx, *viewerID, imageIDs)
	if err != nil {
		// Like flags are decoration on the gallery; serve it without them
		// rather than failing the whole read.
		log.Printf("[ImageService] CheckLikes FAILED: user=%d: %v", *viewerID, err)
		return images, nil
	}

	for i := range images {
		images[i].IsLiked = liked[images[i].ID]
	}

	return images, nil
}

// GetImage returns one image through its read-through cache entry.
func (s *ImageService) GetImage(ctx context.Context, imageID int64) (*model.Image, error) {
	var image model.Image
	if s.cache.Get(ctx, cache.ImageKey(imageID), &image) {
		return &image, nil
	}

	loaded, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.ImageKey(imageID), loaded, cache.ImageTTL)
	return loaded, nil
}

// GetUserImages returns a user's generated images through the per-user
// read-through cache.
func (s *ImageService) GetUserImages(ctx context.Context, userID int64) ([]model.ImageSummary, error) {
	var images []model.ImageSummary
	if s.cache.Get(ctx, cache.UserImagesKey(userID), &images) {
		return images, nil
	}

	images, err := s.imageRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cache.UserImagesKey(userID), images, cache.UserImagesTTL)
	return images, nil
}

// GetUserRemixes returns a user's remix history, newest first.
func (s *ImageService) GetUserRemixes(ctx context.Context, userID int64) ([]model.RemixImage, error) {
	return s.remixRepo.GetByUser(ctx, userID)
}
