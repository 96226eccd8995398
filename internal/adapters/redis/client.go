package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"oitracker/internal/adapters/config"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// Summary reads sit on the request path, so Redis gets short deadlines
// and a miss falls back to Postgres instead of waiting
const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 500 * time.Millisecond
	pingTimeout = 5 * time.Second
)

// Client owns the connection shared by the summary cache and the run lock
type Client struct {
	rdb *redis.Client
}

// NewClient connects and pings once
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(errors.ErrUnavailable, "redis at %s: %v", cfg.Addr(), err)
	}

	logger.Get().Infow("Redis connected",
		"addr", cfg.Addr(),
		"db", cfg.DB,
		"summary_ttl", cfg.CacheTTL,
		"lock_ttl", cfg.LockTTL,
	)
	return &Client{rdb: rdb}, nil
}

// Client returns the go-redis handle for repositories
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health is the readiness check
func (c *Client) Health(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}
