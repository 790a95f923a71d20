package bitquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient issues one-shot GraphQL queries against the provider's HTTP
// endpoint. It backs the initial snapshot fetch at mount time; the streaming
// socket has no replay, so this is the only gap-filling mechanism.
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewHTTPClient creates a query client for the given endpoint.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &HTTPClient{
		BaseURL: baseURL,
		Token:   strings.TrimSpace(token),
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Query posts a GraphQL document and decodes the data envelope into out.
func (c *HTTPClient) Query(ctx context.Context, query string, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("query http %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env graphqlEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	if len(env.Errors) > 0 {
		return fmt.Errorf("query failed: %s", env.Errors[0].Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode query data: %w", err)
		}
	}
	return nil
}

// FetchNewTokens returns up to limit most-recent mint-creation events.
func (c *HTTPClient) FetchNewTokens(ctx context.Context, limit int) ([]NewTokenEvent, error) {
	var data NewTokensData
	if err := c.Query(ctx, newTokensQuery(limit), &data); err != nil {
		return nil, err
	}
	return data.Solana.TokenSupplyUpdates, nil
}

// FetchFinalStretch returns up to limit most-recent near-graduation pool
// updates.
func (c *HTTPClient) FetchFinalStretch(ctx context.Context, limit int) ([]PoolEvent, error) {
	var data PoolsData
	if err := c.Query(ctx, finalStretchQuery(limit), &data); err != nil {
		return nil, err
	}
	return data.Solana.DEXPools, nil
}

// FetchMigrated returns up to limit most-recent migration instructions.
func (c *HTTPClient) FetchMigrated(ctx context.Context, limit int) ([]MigrationEvent, error) {
	var data MigrationsData
	if err := c.Query(ctx, migratedQuery(limit), &data); err != nil {
		return nil, err
	}
	return data.Solana.Instructions, nil
}
