// Package feed owns the three live token collections and the rules that keep
// them consistent: per-collection mint uniqueness, first-wins dedup, a fixed
// size cap, and mirroring into the persistent cache.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// Persister is the slice of the cache the store needs. Implementations must
// degrade silently; the store never handles persistence errors.
type Persister interface {
	SaveFeed(ctx context.Context, category string, records []*models.TokenRecord)
	LoadFeed(ctx context.Context, category string) ([]*models.TokenRecord, bool)
	IsStale(ctx context.Context) bool
}

// FetchFunc is a one-time snapshot fetch used to seed a collection when the
// cache cannot.
type FetchFunc func(ctx context.Context) ([]*models.TokenRecord, error)

// Store holds the three collections. It is the single writer for each; all
// mutation goes through MergeIncoming and LoadInitial.
type Store struct {
	mu          sync.RWMutex
	collections map[models.Category][]*models.TokenRecord
	closed      bool

	persister Persister
	maxSize   int
	logger    *logrus.Logger
}

// NewStore creates an empty store backed by the given persister.
func NewStore(persister Persister, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		collections: map[models.Category][]*models.TokenRecord{
			models.CategoryNewPairs:     {},
			models.CategoryFinalStretch: {},
			models.CategoryMigrated:     {},
		},
		persister: persister,
		maxSize:   constants.MaxFeedSize,
		logger:    logger,
	}
}

// MergeIncoming applies a batch of normalized records to one collection:
// records whose mint is already present are dropped (the existing record is
// never touched), survivors are deduplicated within the batch, prepended
// most-recent first, and the collection is truncated to the cap. The
// surviving records are returned so callers can fan them out.
//
// A closed store refuses the merge: late async completions after shutdown
// must not resurrect state.
func (s *Store) MergeIncoming(ctx context.Context, category models.Category, records []*models.TokenRecord) []*models.TokenRecord {
	if len(records) == 0 || !category.Valid() {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	existing := s.collections[category]
	seen := make(map[string]struct{}, len(existing)+len(records))
	for _, rec := range existing {
		seen[rec.MintAddress] = struct{}{}
	}

	var accepted []*models.TokenRecord
	for _, rec := range records {
		if rec == nil || rec.MintAddress == "" {
			continue
		}
		if _, dup := seen[rec.MintAddress]; dup {
			continue
		}
		seen[rec.MintAddress] = struct{}{}
		accepted = append(accepted, rec)
	}
	if len(accepted) == 0 {
		s.mu.Unlock()
		return nil
	}

	merged := make([]*models.TokenRecord, 0, len(accepted)+len(existing))
	merged = append(merged, accepted...)
	merged = append(merged, existing...)
	if len(merged) > s.maxSize {
		merged = merged[:s.maxSize]
	}
	s.collections[category] = merged
	snapshot := append([]*models.TokenRecord(nil), merged...)
	s.mu.Unlock()

	if s.persister != nil {
		s.persister.SaveFeed(ctx, string(category), snapshot)
	}
	return accepted
}

// Stale reports whether the persisted cache is too old to seed from. With no
// persister there is nothing to reuse. Evaluate once per startup, before any
// collection is seeded: a write-back refreshes the cache-wide marker, so a
// per-collection check could see a sibling's save and mistake its own old
// data for fresh.
func (s *Store) Stale(ctx context.Context) bool {
	return s.persister == nil || s.persister.IsStale(ctx)
}

// LoadInitial seeds one collection. When stale is false, persisted data is
// reused after a defensive re-deduplication; stale or missing data forces the
// one-time bulk fetch. Concurrent LoadInitial calls for different categories
// are safe.
func (s *Store) LoadInitial(ctx context.Context, category models.Category, stale bool, fetch FetchFunc) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}

	if s.persister != nil && !stale {
		if records, ok := s.persister.LoadFeed(ctx, string(category)); ok {
			s.seed(category, records)
			return nil
		}
	}

	if fetch == nil {
		return nil
	}
	records, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("initial fetch for %s: %w", category, err)
	}
	snapshot := s.seed(category, records)
	if s.persister != nil && snapshot != nil {
		s.persister.SaveFeed(ctx, string(category), snapshot)
	}
	return nil
}

// seed replaces a collection with a deduplicated, capped copy of records and
// returns the stored snapshot (nil when the store is closed).
func (s *Store) seed(category models.Category, records []*models.TokenRecord) []*models.TokenRecord {
	deduped := dedup(records)
	if len(deduped) > s.maxSize {
		deduped = deduped[:s.maxSize]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.collections[category] = deduped
	return append([]*models.TokenRecord(nil), deduped...)
}

// Snapshot returns a copy of one collection, most-recent first.
func (s *Store) Snapshot(category models.Category) []*models.TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.TokenRecord(nil), s.collections[category]...)
}

// Len returns the size of one collection.
func (s *Store) Len(category models.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[category])
}

// Close marks the store as shut down; subsequent merges are refused.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// dedup keeps the first occurrence of each mint, preserving order and
// skipping nils.
func dedup(records []*models.TokenRecord) []*models.TokenRecord {
	out := make([]*models.TokenRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec == nil || rec.MintAddress == "" {
			continue
		}
		if _, dup := seen[rec.MintAddress]; dup {
			continue
		}
		seen[rec.MintAddress] = struct{}{}
		out = append(out, rec)
	}
	return out
}
