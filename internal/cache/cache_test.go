package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"promptgram/internal/cache"
)

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user", cache.UserKey(42), "user:42"},
		{"user by email", cache.UserByEmailKey("ada@example.com"), "user:email:ada@example.com"},
		{"gallery feed", cache.GalleryFeedKey(), "gallery:feed"},
		{"image", cache.ImageKey(7), "image:7"},
		{"user images", cache.UserImagesKey(42), "user:42:images"},
		{"rate limit", cache.RateLimitGenerateKey(42), "ratelimit:generate:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := cache.NewNoopStore()

	store.Set(ctx, "k", map[string]int{"a": 1}, time.Minute)

	var dest map[string]int
	if store.Get(ctx, "k", &dest) {
		t.Error("NoopStore.Get should always miss")
	}

	if n := store.Incr(ctx, "k", time.Minute); n != 0 {
		t.Errorf("NoopStore.Incr = %d, want 0 (rate limiting must fail open)", n)
	}

	// Deletes are no-ops but must not panic.
	store.Delete(ctx, "k")
	store.DeleteMany(ctx, "a", "b")
}

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)
	return client
}

func TestRedisStore(t *testing.T) {
	client := setupTestRedis(t)
	defer func() {
		client.FlushDB(context.Background())
		client.Close()
	}()

	ctx := context.Background()
	store := cache.NewStore(client)

	type profile struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	t.Run("set then get round-trips", func(t *testing.T) {
		store.Set(ctx, cache.UserKey(1), profile{ID: 1, Name: "Ada"}, time.Minute)

		var got profile
		if !store.Get(ctx, cache.UserKey(1), &got) {
			t.Fatal("expected a cache hit")
		}
		if got.Name != "Ada" {
			t.Errorf("name = %q, want %q", got.Name, "Ada")
		}
	})

	t.Run("get on missing key is a miss", func(t *testing.T) {
		var got profile
		if store.Get(ctx, cache.UserKey(999), &got) {
			t.Error("expected a miss for an absent key")
		}
	})

	t.Run("corrupt entry is dropped", func(t *testing.T) {
		client.Set(ctx, "corrupt", "{not json", time.Minute)

		var got profile
		if store.Get(ctx, "corrupt", &got) {
			t.Error("expected a miss for a corrupt entry")
		}
		if err := client.Get(ctx, "corrupt").Err(); err != redis.Nil {
			t.Error("corrupt entry should be deleted so the next read repopulates")
		}
	})

	t.Run("delete many removes all keys", func(t *testing.T) {
		store.Set(ctx, cache.UserKey(2), profile{ID: 2}, time.Minute)
		store.Set(ctx, cache.UserByEmailKey("two@example.com"), profile{ID: 2}, time.Minute)

		store.DeleteMany(ctx, cache.UserKey(2), cache.UserByEmailKey("two@example.com"))

		var got profile
		if store.Get(ctx, cache.UserKey(2), &got) || store.Get(ctx, cache.UserByEmailKey("two@example.com"), &got) {
			t.Error("both entries should be gone after DeleteMany")
		}
	})

	t.Run("incr counts within the window", func(t *testing.T) {
		key := cache.RateLimitGenerateKey(1)
		for want := int64(1); want <= 3; want++ {
			if got := store.Incr(ctx, key, time.Minute); got != want {
				t.Errorf("Incr = %d, want %d", got, want)
			}
		}

		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			t.Fatalf("TTL failed: %v", err)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Errorf("rate limit key TTL = %v, want within (0, 1m]", ttl)
		}
	})
}
