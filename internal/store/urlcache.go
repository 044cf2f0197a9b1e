package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// URLCache is a best-effort Redis front for processed_urls: a positive
// hit skips the database round trip, a miss or a Redis error falls
// through to the authoritative table. It also hands out the crawl run
// lock that keeps overlapping scheduled runs from piling up.
type URLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewURLCache wraps an existing Redis client. A nil client disables the
// cache, every lookup then reports a miss and TryRunLock always grants.
func NewURLCache(client *redis.Client, ttl time.Duration) *URLCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &URLCache{client: client, ttl: ttl}
}

func (c *URLCache) key(url string) string { return "spravodaj:seen:" + url }

// Seen reports whether the URL was recently marked processed. Errors are
// treated as misses.
func (c *URLCache) Seen(ctx context.Context, url string) bool {
	if c == nil || c.client == nil {
		return false
	}
	n, err := c.client.Exists(ctx, c.key(url)).Result()
	return err == nil && n > 0
}

// MarkSeen records each URL form in the cache.
func (c *URLCache) MarkSeen(ctx context.Context, urls ...string) {
	if c == nil || c.client == nil {
		return
	}
	for _, u := range urls {
		c.client.Set(ctx, c.key(u), "1", c.ttl)
	}
}

// TryRunLock claims the crawl run lock for the given TTL. It returns
// true when the lock was acquired or no Redis client is configured.
func (c *URLCache) TryRunLock(ctx context.Context, ttl time.Duration) bool {
	if c == nil || c.client == nil {
		return true
	}
	ok, err := c.client.SetNX(ctx, "spravodaj:crawl:lock", "1", ttl).Result()
	return err == nil && ok
}

// ReleaseRunLock drops the crawl run lock early.
func (c *URLCache) ReleaseRunLock(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, "spravodaj:crawl:lock")
}
