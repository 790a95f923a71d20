package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pulsescan/pulse-feed/internal/models"
)

const cacheKeyPrefix = "pulse:meta:"

// cacheTTL is generous: off-chain token metadata is effectively immutable.
const cacheTTL = 24 * time.Hour

// Fetcher resolves off-chain token metadata documents. Lookups are
// rate-limited and cached in Redis; any failure degrades to a nil document
// rather than an error, callers render placeholders.
type Fetcher struct {
	http    *http.Client
	cache   redis.Cmdable
	limiter *rate.Limiter
	log     *logrus.Entry
}

type FetcherOptions struct {
	// RatePerSec caps upstream fetches across all callers.
	RatePerSec float64
	Timeout    time.Duration
	Cache      redis.Cmdable
	Logger     *logrus.Logger
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Fetcher{
		http:    &http.Client{Timeout: opts.Timeout},
		cache:   opts.Cache,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), int(opts.RatePerSec)+1),
		log:     logger.WithField("component", "metadata"),
	}
}

// Fetch returns the metadata document behind uri, keyed in cache by mint.
// A nil return means the document is unavailable; that is not an error state.
func (f *Fetcher) Fetch(ctx context.Context, mint, uri string) *models.TokenMetadata {
	if uri == "" || !strings.HasPrefix(uri, "http") {
		return nil
	}

	if cached := f.fromCache(ctx, mint); cached != nil {
		return cached
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil
	}

	meta, err := f.fetchRemote(ctx, uri)
	if err != nil {
		f.log.WithError(err).WithField("mint", mint).Debug("metadata fetch failed")
		return nil
	}

	f.toCache(ctx, mint, meta)
	return meta
}

func (f *Fetcher) fetchRemote(ctx context.Context, uri string) (*models.TokenMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
	}

	var meta models.TokenMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

func (f *Fetcher) fromCache(ctx context.Context, mint string) *models.TokenMetadata {
	if f.cache == nil || mint == "" {
		return nil
	}
	raw, err := f.cache.Get(ctx, cacheKeyPrefix+mint).Result()
	if err != nil {
		return nil
	}
	var meta models.TokenMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return &meta
}

func (f *Fetcher) toCache(ctx context.Context, mint string, meta *models.TokenMetadata) {
	if f.cache == nil || mint == "" || meta == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, cacheKeyPrefix+mint, raw, cacheTTL).Err(); err != nil {
		f.log.WithError(err).Debug("metadata cache write failed")
	}
}
