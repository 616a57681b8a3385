package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client is the one Redis handle the application shares: the cache, the
// reconciliation stream publisher, and the workers all ride its pool.
type Client struct {
	*redis.Client
}

// NewClient parses a redis:// URL (password and db number included) and
// opens a client against it.
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &Client{Client: redis.NewClient(opts)}, nil
}

// Ping round-trips to the server. Run at startup so a bad Redis URL fails
// the boot instead of every later cache call.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
