package models

import (
	"fmt"
	"math"
	"time"

	"github.com/pulsescan/pulse-feed/internal/constants"
)

// Category names the feed collection a token record belongs to. Assignment
// happens once at normalization time and never changes afterwards.
type Category string

const (
	CategoryNewPairs     Category = constants.CategoryNewPairs
	CategoryFinalStretch Category = constants.CategoryFinalStretch
	CategoryMigrated     Category = constants.CategoryMigrated
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNewPairs, CategoryFinalStretch, CategoryMigrated:
		return true
	}
	return false
}

// TokenRecord is the unified shape all three raw subscription payloads are
// normalized into. Records are immutable once created: a later event for the
// same mint is dropped, not merged.
type TokenRecord struct {
	ID          string   `json:"id"`
	MintAddress string   `json:"mint_address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Category    Category `json:"category"`

	// Display-only derived fields.
	PriceDisplay  string  `json:"price"`
	ChangeDisplay string  `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	MarketCap     string  `json:"market_cap"`
	Volume        string  `json:"volume"`

	// Curve progress, only meaningful for final-stretch records.
	CurveProgress float64 `json:"curve_progress,omitempty"`

	AgeSeconds int64  `json:"age_seconds"`
	AgeDisplay string `json:"age"`

	Tags []string `json:"tags,omitempty"`

	// URI points at off-chain metadata, fetched lazily and cached separately.
	URI string `json:"uri,omitempty"`

	// Timestamp is the source event time (ISO8601). It drives age display
	// only; collection ordering is insertion order.
	Timestamp string `json:"timestamp"`
}

// TokenMetadata is the off-chain document behind TokenRecord.URI.
type TokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Twitter     string `json:"twitter,omitempty"`
	Website     string `json:"website,omitempty"`
	CreatedOn   string `json:"createdOn,omitempty"`
}

// AgeFrom derives the age fields from an ISO8601 source timestamp relative to
// now. A missing or unparsable timestamp yields zero age.
func AgeFrom(timestamp string, now time.Time) (int64, string) {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return 0, "0s"
	}
	secs := int64(now.Sub(t).Seconds())
	if secs < 0 {
		secs = 0
	}
	return secs, FormatAge(secs)
}

// FormatAge renders seconds as the compact form the feed UI shows.
func FormatAge(secs int64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm", secs/60)
	default:
		return fmt.Sprintf("%dh", secs/3600)
	}
}

// FormatPrice renders a USD price for display.
func FormatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("$%.2fK", price/1000)
	case price >= 1:
		return fmt.Sprintf("$%.2f", price)
	default:
		return fmt.Sprintf("$%.6f", price)
	}
}

// FormatNumber renders a large quantity with a magnitude suffix.
func FormatNumber(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	default:
		return fmt.Sprintf("%.2f", n)
	}
}

// FormatMarketCap renders a USD market cap, scaling precision with magnitude.
func FormatMarketCap(mc float64) string {
	if mc == 0 {
		return "$0"
	}
	if mc < 0 {
		return "-" + FormatMarketCap(math.Abs(mc))
	}
	switch {
	case mc >= 1e9:
		return fmt.Sprintf("$%.1fB", mc/1e9)
	case mc >= 1e6:
		return fmt.Sprintf("$%.1fM", mc/1e6)
	case mc >= 1e4:
		return fmt.Sprintf("$%.0fK", mc/1e3)
	case mc >= 1e3:
		return fmt.Sprintf("$%.1fK", mc/1e3)
	case mc >= 100:
		return fmt.Sprintf("$%.0f", mc)
	case mc >= 10:
		return fmt.Sprintf("$%.1f", mc)
	case mc >= 1:
		return fmt.Sprintf("$%.2f", mc)
	default:
		return fmt.Sprintf("$%.3f", mc)
	}
}
