package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpTimeout bounds every cache operation. A down or slow Redis degrades a
// request to a cache miss instead of stalling it.
const OpTimeout = 1 * time.Second

// Store is the read-through cache contract consumed by services.
//
// The cache is never the source of truth: toggle existence checks always go to
// the database, and every Store method is fail-open. Get reports a miss on any
// backend error, Set/Delete swallow errors after logging. Callers therefore
// never branch on cache health.
type Store interface {
	// Get unmarshals the cached JSON value into dest and reports whether a
	// usable entry was found.
	Get(ctx context.Context, key string, dest interface{}) bool

	// Set stores value as JSON with the given TTL. Best-effort.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)

	// Delete removes a single entry. Best-effort.
	Delete(ctx context.Context, key string)

	// DeleteMany removes several entries in one round trip. Best-effort.
	DeleteMany(ctx context.Context, keys ...string)

	// Incr increments a counter key, setting the TTL on first use.
	// Returns 0 on backend failure so rate limiting fails open.
	Incr(ctx context.Context, key string, ttl time.Duration) int64
}

// RedisStore implements Store on top of go-redis.
type RedisStore struct {
	client *redis.Client
}

// NewStore creates a Store backed by Redis.
func NewStore(client *redis.Client) Store {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("[Cache] Get FAILED: key=%s err=%v", key, err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// Corrupt entry; drop it so the next read repopulates.
		log.Printf("[Cache] Get unmarshal error: key=%s err=%v", key, err)
		s.client.Del(ctx, key)
		return false
	}

	return true
}

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] Set marshal error: key=%s err=%v", key, err)
		return
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Cache] Set FAILED: key=%s err=%v", key, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[Cache] Delete FAILED: key=%s err=%v", key, err)
	}
}

func (s *RedisStore) DeleteMany(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[Cache] DeleteMany FAILED: keys=%v err=%v", keys, err)
	}
}

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) int64 {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[Cache] Incr FAILED: key=%s err=%v", key, err)
		return 0
	}

	// First increment owns the TTL; later ones leave the window alone.
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			log.Printf("[Cache] Incr expire FAILED: key=%s err=%v", key, err)
		}
	}

	return count
}

// NoopStore satisfies Store while caching nothing. Used when CACHE_ENABLED is
// off and as the default in tests.
type NoopStore struct{}

func NewNoopStore() Store {
	return NoopStore{}
}

func (NoopStore) Get(ctx context.Context, key string, dest interface{}) bool { return false }

func (NoopStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {}

func (NoopStore) Delete(ctx context.Context, key string) {}

func (NoopStore) DeleteMany(ctx context.Context, keys ...string) {}

func (NoopStore) Incr(ctx context.Context, key string, ttl time.Duration) int64 { return 0 }
