package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/bitquery"
	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/flags"
	"github.com/pulsescan/pulse-feed/internal/models"
	"github.com/pulsescan/pulse-feed/internal/normalize"
)

// Publisher fans accepted records out to live subscribers.
type Publisher interface {
	PublishRecord(ctx context.Context, rec *models.TokenRecord) error
}

// Archiver appends accepted records to historical storage.
type Archiver interface {
	InsertToken(ctx context.Context, rec *models.TokenRecord) error
}

// ServiceDeps wires the feed service together. Publisher, Archiver and Flags
// are optional.
type ServiceDeps struct {
	Store     *Store
	Stream    *bitquery.Multiplexer
	Snapshots *bitquery.HTTPClient
	Publisher Publisher
	Archiver  Archiver
	Flags     *flags.Store
	Logger    *logrus.Logger
	Now       func() time.Time
}

// Service drives the live feed: it seeds the three collections from cache or
// the snapshot query, then attaches to the streaming multiplexer and merges
// every inbound batch.
type Service struct {
	store     *Store
	stream    *bitquery.Multiplexer
	snapshots *bitquery.HTTPClient
	publisher Publisher
	archiver  Archiver
	flags     *flags.Store
	log       *logrus.Entry
	now       func() time.Time

	// ctx bounds all background work started by this service so late
	// completions after Stop cannot touch shared state.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     deps.Store,
		stream:    deps.Stream,
		snapshots: deps.Snapshots,
		publisher: deps.Publisher,
		archiver:  deps.Archiver,
		flags:     deps.Flags,
		log:       logger.WithField("component", "feed"),
		now:       now,
	}
}

// Start seeds the collections and opens the stream. The three initial loads
// run in parallel and may complete in any order; a failed load only logs,
// the stream fills the collection eventually.
func (s *Service) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	// One staleness decision for all three loads; the first write-back
	// refreshes the cache-wide marker and must not flip the others.
	stale := s.store.Stale(s.ctx)

	var wg sync.WaitGroup
	for category, fetch := range map[models.Category]FetchFunc{
		models.CategoryNewPairs:     s.fetchNewPairs,
		models.CategoryFinalStretch: s.fetchFinalStretch,
		models.CategoryMigrated:     s.fetchMigrated,
	} {
		wg.Add(1)
		go func(category models.Category, fetch FetchFunc) {
			defer wg.Done()
			if err := s.store.LoadInitial(s.ctx, category, stale, fetch); err != nil {
				s.log.WithError(err).WithField("category", category).Warn("initial load failed")
				return
			}
			s.log.WithFields(logrus.Fields{
				"category": category,
				"count":    s.store.Len(category),
			}).Info("collection seeded")
		}(category, fetch)
	}
	wg.Wait()

	s.stream.Connect(s.handleFrame)
}

// Stop detaches from the stream and marks the store closed.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.stream.Disconnect()
	s.store.Close()
}

// handleFrame routes one demultiplexed data frame through the normalizer and
// into the store. Malformed payloads are logged and dropped; nothing here may
// fail loudly, the stream is unsupervised.
func (s *Service) handleFrame(subID string, data json.RawMessage) {
	now := s.now()

	var (
		category models.Category
		records  []*models.TokenRecord
	)

	switch subID {
	case bitquery.SubIDNewTokens:
		category = models.CategoryNewPairs
		var payload bitquery.NewTokensData
		if err := json.Unmarshal(data, &payload); err != nil {
			s.log.WithError(err).Debug("dropping malformed new-tokens payload")
			return
		}
		for _, ev := range payload.Solana.TokenSupplyUpdates {
			if rec := normalize.NewToken(ev, now); rec != nil {
				records = append(records, rec)
			}
		}

	case bitquery.SubIDFinalStretch:
		category = models.CategoryFinalStretch
		var payload bitquery.PoolsData
		if err := json.Unmarshal(data, &payload); err != nil {
			s.log.WithError(err).Debug("dropping malformed pools payload")
			return
		}
		for _, ev := range payload.Solana.DEXPools {
			if rec := normalize.FinalStretch(ev, now); rec != nil {
				records = append(records, rec)
			}
		}

	case bitquery.SubIDMigrated:
		category = models.CategoryMigrated
		var payload bitquery.MigrationsData
		if err := json.Unmarshal(data, &payload); err != nil {
			s.log.WithError(err).Debug("dropping malformed instructions payload")
			return
		}
		for _, ev := range payload.Solana.Instructions {
			if rec := normalize.Migration(ev, now); rec != nil {
				records = append(records, rec)
			}
		}

	default:
		s.log.WithField("id", subID).Debug("ignoring frame for unknown subscription")
		return
	}

	if len(records) == 0 {
		return
	}
	if s.paused(category) {
		return
	}

	accepted := s.store.MergeIncoming(s.ctx, category, records)
	for _, rec := range accepted {
		s.fanOut(rec)
	}
}

// paused consults the runtime toggle for one category.
func (s *Service) paused(category models.Category) bool {
	if s.flags == nil {
		return false
	}
	return s.flags.IsSet(s.ctx, flags.PauseKeyFor(string(category)), false)
}

// fanOut publishes and archives one accepted record. Both sinks are
// best-effort.
func (s *Service) fanOut(rec *models.TokenRecord) {
	if s.publisher != nil {
		if err := s.publisher.PublishRecord(s.ctx, rec); err != nil {
			s.log.WithError(err).Debug("publish failed")
		}
	}
	if s.archiver != nil {
		if err := s.archiver.InsertToken(s.ctx, rec); err != nil {
			s.log.WithError(err).Warn("archive insert failed")
		}
	}
}

func (s *Service) fetchNewPairs(ctx context.Context) ([]*models.TokenRecord, error) {
	events, err := s.snapshots.FetchNewTokens(ctx, constants.InitialFetchLimit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*models.TokenRecord, 0, len(events))
	for _, ev := range events {
		if rec := normalize.NewToken(ev, now); rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Service) fetchFinalStretch(ctx context.Context) ([]*models.TokenRecord, error) {
	events, err := s.snapshots.FetchFinalStretch(ctx, constants.InitialFetchLimit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*models.TokenRecord, 0, len(events))
	for _, ev := range events {
		if rec := normalize.FinalStretch(ev, now); rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Service) fetchMigrated(ctx context.Context) ([]*models.TokenRecord, error) {
	events, err := s.snapshots.FetchMigrated(ctx, constants.InitialFetchLimit)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*models.TokenRecord, 0, len(events))
	for _, ev := range events {
		if rec := normalize.Migration(ev, now); rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
