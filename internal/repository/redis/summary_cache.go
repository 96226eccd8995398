package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"oitracker/internal/domain/snapshot"
	"oitracker/pkg/errors"
)

const summaryPrefix = "oi:summary:"

// Compile-time check
var _ snapshot.Cache = (*SummaryCache)(nil)

// SummaryCache implements snapshot.Cache using Redis
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a summary cache whose entries expire after ttl
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// GetSummary retrieves a cached summary
func (c *SummaryCache) GetSummary(ctx context.Context, stock string) (*snapshot.Summary, error) {
	data, err := c.client.Get(ctx, summaryKey(stock)).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "summary not cached: stock=%s", stock)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get summary from redis: stock=%s", stock)
	}

	var summary snapshot.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal summary: stock=%s", stock)
	}

	return &summary, nil
}

// SetSummary stores a summary with the cache TTL
func (c *SummaryCache) SetSummary(ctx context.Context, stock string, summary *snapshot.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal summary: stock=%s", stock)
	}

	if err := c.client.Set(ctx, summaryKey(stock), data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save summary to redis: stock=%s", stock)
	}

	return nil
}

// Invalidate drops the summaries of the given securities
func (c *SummaryCache) Invalidate(ctx context.Context, stocks ...string) error {
	if len(stocks) == 0 {
		return nil
	}

	keys := make([]string, len(stocks))
	for i, stock := range stocks {
		keys[i] = summaryKey(stock)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete summaries from redis")
	}
	return nil
}

// InvalidateAll drops every cached summary
func (c *SummaryCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, summaryPrefix+"*", 200).Iterator()

	keys := make([]string, 0, 200)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "failed to scan summary keys")
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete summaries from redis")
	}
	return nil
}

func summaryKey(stock string) string {
	return summaryPrefix + strings.ToUpper(strings.TrimSpace(stock))
}
