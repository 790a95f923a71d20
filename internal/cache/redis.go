package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// FeedCache mirrors the three feed collections into Redis: one JSON-encoded
// array per category plus a single last-write timestamp covering the whole
// cache. Every operation degrades to a no-op or a miss when Redis is down;
// the feed must keep flowing without its cache.
type FeedCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

// NewFeedCache wraps an existing Redis client.
func NewFeedCache(client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *FeedCache {
	if ttl <= 0 {
		ttl = constants.FeedCacheTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &FeedCache{client: client, ttl: ttl, logger: logger}
}

func feedKey(category string) string {
	return constants.FeedKeyPrefix + category
}

// SaveFeed serializes the collection under its category key and stamps the
// cache-wide last-write marker.
func (c *FeedCache) SaveFeed(ctx context.Context, category string, records []*models.TokenRecord) {
	b, err := json.Marshal(records)
	if err != nil {
		c.logger.WithError(err).Warn("feed cache marshal failed")
		return
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, feedKey(category), b, 0)
	pipe.Set(ctx, constants.FeedLastWriteKey, strconv.FormatInt(time.Now().UnixMilli(), 10), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).Warn("feed cache write failed")
	}
}

// LoadFeed returns the persisted collection for a category, or (nil, false)
// on miss or any storage failure.
func (c *FeedCache) LoadFeed(ctx context.Context, category string) ([]*models.TokenRecord, bool) {
	val, err := c.client.Get(ctx, feedKey(category)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("feed cache read failed")
		return nil, false
	}

	var records []*models.TokenRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		c.logger.WithError(err).Warn("feed cache decode failed")
		return nil, false
	}
	return records, true
}

// IsStale reports whether the whole cache has outlived its TTL. A missing or
// unreadable last-write marker counts as stale.
func (c *FeedCache) IsStale(ctx context.Context) bool {
	val, err := c.client.Get(ctx, constants.FeedLastWriteKey).Result()
	if err != nil {
		return true
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return true
	}
	return time.Since(time.UnixMilli(ms)) > c.ttl
}

// ClearAll removes the three collection keys and the last-write marker.
func (c *FeedCache) ClearAll(ctx context.Context) {
	keys := []string{
		feedKey(constants.CategoryNewPairs),
		feedKey(constants.CategoryFinalStretch),
		feedKey(constants.CategoryMigrated),
		constants.FeedLastWriteKey,
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).Warn("feed cache clear failed")
	}
}
