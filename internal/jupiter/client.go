package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.jup.ag/swap/v1"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, fmt.Errorf("inputMint is required")
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, fmt.Errorf("outputMint is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, fmt.Errorf("amount is required")
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)

	if req.SlippageBps != nil {
		q.Set("slippageBps", fmt.Sprintf("%d", *req.SlippageBps))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if len(req.Dexes) > 0 {
		q.Set("dexes", strings.Join(req.Dexes, ","))
	}
	if len(req.ExcludeDexes) > 0 {
		q.Set("excludeDexes", strings.Join(req.ExcludeDexes, ","))
	}
	if req.RestrictIntermediateTokens != nil {
		q.Set("restrictIntermediateTokens", fmt.Sprintf("%t", *req.RestrictIntermediateTokens))
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", fmt.Sprintf("%t", *req.OnlyDirectRoutes))
	}
	if req.AsLegacyTransaction != nil {
		q.Set("asLegacyTransaction", fmt.Sprintf("%t", *req.AsLegacyTransaction))
	}
	if req.PlatformFeeBps != nil {
		q.Set("platformFeeBps", fmt.Sprintf("%d", *req.PlatformFeeBps))
	}
	if req.MaxAccounts != nil {
		q.Set("maxAccounts", fmt.Sprintf("%d", *req.MaxAccounts))
	}

	u := c.BaseURL + "/quote?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter quote response: %w", err)
	}
	return &out, nil
}

// Swap asks the aggregator to build an unsigned transaction from a previously
// obtained quote. Signing and submission happen client-side, never here.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	if req.QuoteResponse == nil {
		return nil, fmt.Errorf("quoteResponse is required")
	}
	if strings.TrimSpace(req.UserPublicKey) == "" {
		return nil, fmt.Errorf("userPublicKey is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("content-type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out SwapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter swap response: %w", err)
	}
	if out.SwapTransaction == "" {
		return nil, fmt.Errorf("jupiter returned an empty transaction")
	}
	return &out, nil
}

// Tradable reports whether the aggregator can currently route the given
// mint against SOL. Errors other than a routing failure are returned as-is
// so callers can distinguish "not tradable" from "Jupiter is down".
func (c *Client) Tradable(ctx context.Context, mint, solMint string) (bool, error) {
	_, err := c.Quote(ctx, QuoteRequest{
		InputMint:  solMint,
		OutputMint: mint,
		Amount:     "1000000", // 0.001 SOL probe
	})
	if err == nil {
		return true, nil
	}
	if isRouteFailure(err) {
		return false, nil
	}
	return false, err
}

// FriendlyError maps aggregator failures onto a message safe to surface to
// end users. Unknown failures collapse to a generic message.
func FriendlyError(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		body := strings.ToLower(string(httpErr.Body))
		switch {
		case strings.Contains(body, "no route"), strings.Contains(body, "could not find any route"):
			return "This token cannot be traded right now: no route found."
		case strings.Contains(body, "not supported"), strings.Contains(body, "not tradable"):
			return "This token is not supported for trading."
		case strings.Contains(body, "insufficient"):
			return "Insufficient balance for this trade."
		}
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return "Trading service is busy, try again shortly."
		}
	}
	return "Trade could not be prepared, try again shortly."
}

func isRouteFailure(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if httpErr.StatusCode != http.StatusBadRequest && httpErr.StatusCode != http.StatusNotFound {
		return false
	}
	body := strings.ToLower(string(httpErr.Body))
	return strings.Contains(body, "no route") ||
		strings.Contains(body, "could not find any route") ||
		strings.Contains(body, "not tradable") ||
		strings.Contains(body, "not supported")
}
