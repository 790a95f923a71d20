package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(_ *testing.T, client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func sampleRecords() []*models.TokenRecord {
	return []*models.TokenRecord{
		{
			ID:          "mintA",
			MintAddress: "mintA",
			Name:        "Token A",
			Symbol:      "TKA",
			Category:    models.CategoryNewPairs,
			Tags:        []string{"Pump"},
		},
		{
			ID:          "mintB",
			MintAddress: "mintB",
			Name:        "Token B",
			Symbol:      "TKB",
			Category:    models.CategoryNewPairs,
		},
	}
}

func TestFeedCacheRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)
	ctx := context.Background()

	records := sampleRecords()
	c.SaveFeed(ctx, constants.CategoryNewPairs, records)

	got, ok := c.LoadFeed(ctx, constants.CategoryNewPairs)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "mintA", got[0].MintAddress)
	assert.Equal(t, "Token A", got[0].Name)
	assert.Equal(t, []string{"Pump"}, got[0].Tags)
	assert.Equal(t, "mintB", got[1].MintAddress)
}

func TestFeedCacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)

	got, ok := c.LoadFeed(context.Background(), constants.CategoryMigrated)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestFeedCacheMissOnCorruptPayload(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, feedKey(constants.CategoryNewPairs), "{not json", 0).Err())

	_, ok := c.LoadFeed(ctx, constants.CategoryNewPairs)
	assert.False(t, ok)
}

func TestFeedCacheStaleness(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)
	ctx := context.Background()

	// Empty cache is stale by definition.
	assert.True(t, c.IsStale(ctx))

	c.SaveFeed(ctx, constants.CategoryNewPairs, sampleRecords())
	assert.False(t, c.IsStale(ctx))

	// Backdate the last write past the TTL.
	old := time.Now().Add(-31 * time.Minute).UnixMilli()
	require.NoError(t, client.Set(ctx, constants.FeedLastWriteKey, strconv.FormatInt(old, 10), 0).Err())
	assert.True(t, c.IsStale(ctx))

	// An unreadable marker counts as stale too.
	require.NoError(t, client.Set(ctx, constants.FeedLastWriteKey, "garbage", 0).Err())
	assert.True(t, c.IsStale(ctx))
}

func TestFeedCacheSaveRefreshesStaleness(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)
	ctx := context.Background()

	old := time.Now().Add(-31 * time.Minute).UnixMilli()
	require.NoError(t, client.Set(ctx, constants.FeedLastWriteKey, strconv.FormatInt(old, 10), 0).Err())
	require.True(t, c.IsStale(ctx))

	// Any save stamps the cache-wide marker fresh.
	c.SaveFeed(ctx, constants.CategoryMigrated, sampleRecords())
	assert.False(t, c.IsStale(ctx))
}

func TestFeedCacheClearAll(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	c := NewFeedCache(client, 30*time.Minute, nil)
	ctx := context.Background()

	c.SaveFeed(ctx, constants.CategoryNewPairs, sampleRecords())
	c.SaveFeed(ctx, constants.CategoryFinalStretch, sampleRecords())

	c.ClearAll(ctx)

	_, ok := c.LoadFeed(ctx, constants.CategoryNewPairs)
	assert.False(t, ok)
	_, ok = c.LoadFeed(ctx, constants.CategoryFinalStretch)
	assert.False(t, ok)
	assert.True(t, c.IsStale(ctx))
}
