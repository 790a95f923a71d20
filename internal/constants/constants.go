package constants

import "time"

// Feed categories carried on the wire and used as Redis key suffixes.
const (
	CategoryNewPairs     = "new-pairs"
	CategoryFinalStretch = "final-stretch"
	CategoryMigrated     = "migrated"
)

// Subscription ids used to demultiplex inbound data frames.
const (
	SubIDNewTokens    = "new-tokens"
	SubIDFinalStretch = "final-stretch"
	SubIDMigrated     = "migrated"
)

// Redis keys
const (
	FeedKeyPrefix    = "pulse:feed:"
	FeedLastWriteKey = "pulse:feed:last_write"
)

// Redis Pub/Sub channels
const (
	PubSubChannelLive        = "pulse:live"
	PubSubChannelPrefixByCat = "pulse:live:"
)

// Limits
const (
	MaxFeedSize       = 100 // per-category cap; oldest records evicted past this
	InitialFetchLimit = 50  // records pulled per category by the one-time snapshot query
	FeedCacheTTL      = 30 * time.Minute
)

// Reconnect policy for the streaming socket.
const (
	ReconnectBaseDelay   = 1 * time.Second
	MaxReconnectAttempts = 5
)

// Pump.fun bonding-curve program and qualification constants.
const (
	PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// Mints created through pump.fun are vanity-ground to end in this suffix.
	PumpMintSuffix = "pump"
)

// Wrapped SOL mint, excluded when scanning migration instruction accounts.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Bonding-curve reserve thresholds. A pool whose base reserve sits at the
// lower threshold is at 95% curve progress; at the upper threshold the curve
// is complete. The streaming subscription filters pools into this window.
const (
	FinalStretchLowerReserve = 206_900_000.0
	FinalStretchUpperReserve = 246_555_000.0
	FinalStretchFloorPct     = 95.0
)

// Raw on-chain amounts are integers; pump tokens carry 6 decimals and SOL 9.
const (
	BaseAmountDivisor  = 1e6
	QuoteAmountDivisor = 1e9
)

// DisplayUnknown marks display fields the streaming payload cannot fill.
// New-token mint events carry no market data; the UI renders this placeholder
// until a real price source is wired in.
const DisplayUnknown = "--"
