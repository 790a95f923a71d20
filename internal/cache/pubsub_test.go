package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

func TestPubSubDeliversRecord(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	ps := NewPubSub(client, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recs, err := ps.Subscribe(ctx, constants.PubSubChannelLive)
	require.NoError(t, err)

	want := &models.TokenRecord{
		ID:          "mintA",
		MintAddress: "mintA",
		Name:        "Token A",
		Category:    models.CategoryNewPairs,
	}
	require.NoError(t, ps.PublishRecord(ctx, want))

	select {
	case got := <-recs:
		assert.Equal(t, want.MintAddress, got.MintAddress)
		assert.Equal(t, want.Category, got.Category)
	case <-ctx.Done():
		t.Fatal("record never arrived on the firehose channel")
	}
}

func TestPubSubCategoryChannel(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	ps := NewPubSub(client, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	migrated, err := ps.Subscribe(ctx, constants.PubSubChannelPrefixByCat+constants.CategoryMigrated)
	require.NoError(t, err)

	// A new-pairs record must not land on the migrated channel.
	require.NoError(t, ps.PublishRecord(ctx, &models.TokenRecord{
		ID: "a", MintAddress: "a", Category: models.CategoryNewPairs,
	}))
	require.NoError(t, ps.PublishRecord(ctx, &models.TokenRecord{
		ID: "b", MintAddress: "b", Category: models.CategoryMigrated,
	}))

	select {
	case got := <-migrated:
		assert.Equal(t, "b", got.MintAddress)
	case <-ctx.Done():
		t.Fatal("migrated record never arrived")
	}
}
