package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// fakePersister records saves in memory and lets tests dial staleness.
type fakePersister struct {
	feeds map[string][]*models.TokenRecord
	stale bool
	saves int
}

func newFakePersister() *fakePersister {
	return &fakePersister{feeds: make(map[string][]*models.TokenRecord)}
}

func (p *fakePersister) SaveFeed(_ context.Context, category string, records []*models.TokenRecord) {
	p.feeds[category] = append([]*models.TokenRecord(nil), records...)
	p.saves++
}

func (p *fakePersister) LoadFeed(_ context.Context, category string) ([]*models.TokenRecord, bool) {
	records, ok := p.feeds[category]
	return records, ok
}

func (p *fakePersister) IsStale(_ context.Context) bool {
	return p.stale
}

func rec(mint string) *models.TokenRecord {
	return &models.TokenRecord{
		ID:          mint,
		MintAddress: mint,
		Name:        mint,
		Category:    models.CategoryNewPairs,
	}
}

func mints(records []*models.TokenRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.MintAddress
	}
	return out
}

func TestMergeIncomingFirstWins(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	ctx := context.Background()

	first := rec("mintA")
	first.Name = "original"
	accepted := s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{first})
	require.Len(t, accepted, 1)

	dup := rec("mintA")
	dup.Name = "impostor"
	accepted = s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{dup})
	assert.Empty(t, accepted)

	got := s.Snapshot(models.CategoryNewPairs)
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Name)
}

func TestMergeIncomingDedupsWithinBatch(t *testing.T) {
	s := NewStore(newFakePersister(), nil)

	accepted := s.MergeIncoming(context.Background(), models.CategoryNewPairs, []*models.TokenRecord{
		rec("a"), rec("b"), rec("a"), nil, rec("b"),
	})
	assert.Equal(t, []string{"a", "b"}, mints(accepted))
	assert.Equal(t, 2, s.Len(models.CategoryNewPairs))
}

func TestMergeIncomingPrependsMostRecentFirst(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	ctx := context.Background()

	s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("old")})
	s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("newer")})
	s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("newest")})

	assert.Equal(t, []string{"newest", "newer", "old"}, mints(s.Snapshot(models.CategoryNewPairs)))
}

func TestMergeIncomingEnforcesCap(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	ctx := context.Background()

	var batch []*models.TokenRecord
	for i := 0; i < constants.MaxFeedSize; i++ {
		batch = append(batch, rec(fmt.Sprintf("mint%03d", i)))
	}
	s.MergeIncoming(ctx, models.CategoryNewPairs, batch)
	require.Equal(t, constants.MaxFeedSize, s.Len(models.CategoryNewPairs))

	// One more pushes the oldest record off the end.
	s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("overflow")})
	got := s.Snapshot(models.CategoryNewPairs)
	require.Len(t, got, constants.MaxFeedSize)
	assert.Equal(t, "overflow", got[0].MintAddress)
	assert.Equal(t, "mint098", got[len(got)-1].MintAddress)
}

func TestMergeIncomingRefusedAfterClose(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	s.Close()

	accepted := s.MergeIncoming(context.Background(), models.CategoryNewPairs, []*models.TokenRecord{rec("late")})
	assert.Nil(t, accepted)
	assert.Zero(t, s.Len(models.CategoryNewPairs))
}

func TestMergeIncomingPersistsSnapshot(t *testing.T) {
	p := newFakePersister()
	s := NewStore(p, nil)

	s.MergeIncoming(context.Background(), models.CategoryNewPairs, []*models.TokenRecord{rec("a"), rec("b")})

	saved := p.feeds[constants.CategoryNewPairs]
	require.Len(t, saved, 2)
	assert.Equal(t, []string{"a", "b"}, mints(saved))
}

func TestCollectionsAreIndependent(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	ctx := context.Background()

	// The same mint may live in different collections at once.
	s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("shared")})
	accepted := s.MergeIncoming(ctx, models.CategoryFinalStretch, []*models.TokenRecord{rec("shared")})
	require.Len(t, accepted, 1)

	assert.Equal(t, 1, s.Len(models.CategoryNewPairs))
	assert.Equal(t, 1, s.Len(models.CategoryFinalStretch))
}

func TestLoadInitialUsesFreshCache(t *testing.T) {
	p := newFakePersister()
	p.feeds[constants.CategoryNewPairs] = []*models.TokenRecord{rec("cached")}
	s := NewStore(p, nil)

	fetched := false
	err := s.LoadInitial(context.Background(), models.CategoryNewPairs, s.Stale(context.Background()), func(context.Context) ([]*models.TokenRecord, error) {
		fetched = true
		return []*models.TokenRecord{rec("remote")}, nil
	})
	require.NoError(t, err)

	assert.False(t, fetched, "fresh cache must not trigger a remote fetch")
	assert.Equal(t, []string{"cached"}, mints(s.Snapshot(models.CategoryNewPairs)))
}

func TestLoadInitialStaleCacheForcesRefetch(t *testing.T) {
	p := newFakePersister()
	p.feeds[constants.CategoryNewPairs] = []*models.TokenRecord{rec("cached")}
	p.stale = true
	s := NewStore(p, nil)

	err := s.LoadInitial(context.Background(), models.CategoryNewPairs, s.Stale(context.Background()), func(context.Context) ([]*models.TokenRecord, error) {
		return []*models.TokenRecord{rec("remote")}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"remote"}, mints(s.Snapshot(models.CategoryNewPairs)))
	// The refreshed collection is written back for the next startup.
	assert.Equal(t, []string{"remote"}, mints(p.feeds[constants.CategoryNewPairs]))
}

func TestLoadInitialFetchError(t *testing.T) {
	p := newFakePersister()
	p.stale = true
	s := NewStore(p, nil)

	err := s.LoadInitial(context.Background(), models.CategoryNewPairs, true, func(context.Context) ([]*models.TokenRecord, error) {
		return nil, fmt.Errorf("provider down")
	})
	require.Error(t, err)
	assert.Zero(t, s.Len(models.CategoryNewPairs))
}

// markerPersister mimics the real cache: any save refreshes the cache-wide
// staleness marker.
type markerPersister struct {
	fakePersister
}

func (p *markerPersister) SaveFeed(ctx context.Context, category string, records []*models.TokenRecord) {
	p.fakePersister.SaveFeed(ctx, category, records)
	p.stale = false
}

func TestStaleDecisionSharedAcrossCollections(t *testing.T) {
	p := &markerPersister{fakePersister{
		feeds: map[string][]*models.TokenRecord{
			constants.CategoryNewPairs:     {rec("oldA")},
			constants.CategoryFinalStretch: {rec("oldB")},
		},
		stale: true,
	}}
	s := NewStore(p, nil)
	ctx := context.Background()

	stale := s.Stale(ctx)
	require.True(t, stale)

	// The first collection's write-back refreshes the marker.
	require.NoError(t, s.LoadInitial(ctx, models.CategoryNewPairs, stale, func(context.Context) ([]*models.TokenRecord, error) {
		return []*models.TokenRecord{rec("freshA")}, nil
	}))
	require.False(t, p.IsStale(ctx))

	// The sibling still holds the one decision made up front and must not
	// reuse its 30-minute-old collection.
	require.NoError(t, s.LoadInitial(ctx, models.CategoryFinalStretch, stale, func(context.Context) ([]*models.TokenRecord, error) {
		return []*models.TokenRecord{rec("freshB")}, nil
	}))
	assert.Equal(t, []string{"freshB"}, mints(s.Snapshot(models.CategoryFinalStretch)))
}

func TestStoreStaleWithoutPersister(t *testing.T) {
	s := NewStore(nil, nil)
	assert.True(t, s.Stale(context.Background()))
}

func TestLoadInitialRejectsUnknownCategory(t *testing.T) {
	s := NewStore(newFakePersister(), nil)
	err := s.LoadInitial(context.Background(), models.Category("trending"), true, nil)
	assert.Error(t, err)
}

// Mirrors the canonical ordering scenario: an initial batch [C, B, A] is
// seeded oldest-last, then a later event D lands on top.
func TestInitialBatchThenLiveEventOrdering(t *testing.T) {
	p := newFakePersister()
	p.stale = true
	s := NewStore(p, nil)
	ctx := context.Background()

	err := s.LoadInitial(ctx, models.CategoryNewPairs, s.Stale(ctx), func(context.Context) ([]*models.TokenRecord, error) {
		return []*models.TokenRecord{rec("C"), rec("B"), rec("A")}, nil
	})
	require.NoError(t, err)

	accepted := s.MergeIncoming(ctx, models.CategoryNewPairs, []*models.TokenRecord{rec("D")})
	require.Len(t, accepted, 1)

	assert.Equal(t, []string{"D", "C", "B", "A"}, mints(s.Snapshot(models.CategoryNewPairs)))
}
