package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pulsescan/pulse-feed/internal/ai"
	"github.com/pulsescan/pulse-feed/internal/cache"
	"github.com/pulsescan/pulse-feed/internal/flags"
	"github.com/pulsescan/pulse-feed/internal/jupiter"
	"github.com/pulsescan/pulse-feed/internal/metadata"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Feeds        *cache.FeedCache  // Redis-backed feed snapshot cache
	Metadata     *metadata.Fetcher // Off-chain token metadata fetcher
	Flags        *flags.Store      // Redis-backed feature flags store
	AI           *ai.Agent         // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig    // Base configuration for AI agents
	DevMode      bool              // Enable detailed error responses in development
	Logger       *logrus.Logger    // Structured logger
	Jupiter      *jupiter.Client   // Jupiter swap API client (optional)
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Feed returns one feed collection, most recent first.
// The category path parameter must be one of the three known collections.
func (h *Handlers) Feed(c echo.Context) error {
	category := models.Category(strings.TrimSpace(c.Param("category")))
	if !category.Valid() {
		return h.err(c, http.StatusBadRequest, "invalid category", map[string]any{
			"category": "must be new-pairs, final-stretch or migrated",
		})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, ok := h.Feeds.LoadFeed(ctx, string(category))
	if !ok {
		items = []*models.TokenRecord{}
	}
	return c.JSON(http.StatusOK, FeedResponse{
		Category: string(category),
		Items:    items,
		Count:    len(items),
		Stale:    h.Feeds.IsStale(ctx),
	})
}

// TokenMetadata resolves the off-chain metadata document for a mint.
// The uri query parameter points at the document; an unavailable document
// returns 404 rather than an error.
func (h *Handlers) TokenMetadata(c echo.Context) error {
	mint := strings.TrimSpace(c.Param("mint"))
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be base58"})
	}
	uri := strings.TrimSpace(c.QueryParam("uri"))
	if uri == "" {
		// Fall back to the URI carried on the cached feed record.
		uri = h.lookupURI(c.Request().Context(), mint)
	}
	if uri == "" {
		return h.err(c, http.StatusNotFound, "metadata not available", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	meta := h.Metadata.Fetch(ctx, mint, uri)
	if meta == nil {
		return h.err(c, http.StatusNotFound, "metadata not available", nil)
	}
	return c.JSON(http.StatusOK, meta)
}

// Tradable reports whether the aggregator can route the mint against SOL.
func (h *Handlers) Tradable(c echo.Context) error {
	if h.Jupiter == nil {
		return h.err(c, http.StatusBadRequest, "jupiter is not configured", nil)
	}
	mint := strings.TrimSpace(c.Param("mint"))
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be base58"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tradable, err := h.Jupiter.Tradable(ctx, mint, solana.WrappedSol.String())
	if err != nil {
		return h.err(c, http.StatusBadGateway, "availability check failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, TradableResponse{Mint: mint, Tradable: tradable})
}

// lookupURI scans the cached collections for a record carrying the mint.
func (h *Handlers) lookupURI(ctx context.Context, mint string) string {
	for _, category := range []models.Category{
		models.CategoryNewPairs, models.CategoryFinalStretch, models.CategoryMigrated,
	} {
		items, ok := h.Feeds.LoadFeed(ctx, string(category))
		if !ok {
			continue
		}
		for _, rec := range items {
			if rec.MintAddress == mint {
				return rec.URI
			}
		}
	}
	return ""
}

// FlagsUpsert creates or updates a feature flag with the given key and value
// Validates key format and returns the created/updated flag
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
// Validates key format and returns the updated flag
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// AIAsk processes natural language questions about launch data using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
