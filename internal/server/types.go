package server

import (
	"github.com/pulsescan/pulse-feed/internal/jupiter"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// FeedResponse is one feed collection as served to clients
type FeedResponse struct {
	Category string                `json:"category"` // Feed category name
	Items    []*models.TokenRecord `json:"items"`    // Records, most recent first
	Count    int                   `json:"count"`    // Number of records returned
	Stale    bool                  `json:"stale"`    // True when the snapshot is past its TTL
}

// TradableResponse reports aggregator availability for one mint
type TradableResponse struct {
	Mint     string `json:"mint"`     // Token mint address
	Tradable bool   `json:"tradable"` // Whether a route against SOL exists
}

// SwapBuildRequest asks for an unsigned swap transaction from a prior quote
type SwapBuildRequest struct {
	QuoteResponse    *jupiter.QuoteResponse `json:"quoteResponse"`    // Quote obtained from GET /v1/quote
	UserPublicKey    string                 `json:"userPublicKey"`    // Signer public key, base58
	WrapAndUnwrapSol *bool                  `json:"wrapAndUnwrapSol"` // Defaults to true
}

// SwapBuildResponse carries the unsigned transaction back to the client
type SwapBuildResponse struct {
	SwapTransaction      string `json:"swapTransaction"`      // Unsigned versioned transaction, base64
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"` // Expiry height for the transaction
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`   // Flag key (must match regex pattern)
	Value bool   `json:"value"` // Flag value (true/false)
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"` // New flag value
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about launch data
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
