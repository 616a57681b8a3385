package cache

import (
	"fmt"
	"time"
)

// TTLs per entry class. Reads may serve data this stale; writers invalidate
// explicitly so the bound only matters when an invalidation is missed.
const (
	UserTTL       = 1 * time.Hour
	GalleryTTL    = 5 * time.Minute
	ImageTTL      = 30 * time.Minute
	UserImagesTTL = 20 * time.Minute

	// RateLimitWindow is the rolling window for generation rate limiting.
	RateLimitWindow = 1 * time.Hour
)

// Key builders. Every cached entity gets exactly one canonical key shape so
// invalidation sites and read sites can never drift apart.

func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func UserByEmailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func GalleryFeedKey() string {
	return "gallery:feed"
}

func ImageKey(imageID int64) string {
	return fmt.Sprintf("image:%d", imageID)
}

func UserImagesKey(userID int64) string {
	return fmt.Sprintf("user:%d:images", userID)
}

func RateLimitGenerateKey(userID int64) string {
	return fmt.Sprintf("ratelimit:generate:%d", userID)
}
