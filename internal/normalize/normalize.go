// Package normalize maps the three raw subscription payload shapes into the
// unified token record. All functions are pure: event in, record or nil out.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"github.com/pulsescan/pulse-feed/internal/bitquery"
	"github.com/pulsescan/pulse-feed/internal/constants"
	"github.com/pulsescan/pulse-feed/internal/models"
)

// NewToken maps a mint-creation event. These always qualify as long as they
// carry a decodable mint address.
func NewToken(ev bitquery.NewTokenEvent, now time.Time) *models.TokenRecord {
	cur := ev.TokenSupplyUpdate.Currency
	if !validMint(cur.MintAddress) {
		return nil
	}

	name := cur.Name
	if name == "" {
		name = cur.Symbol
	}
	ageSecs, ageDisplay := models.AgeFrom(ev.Block.Time, now)

	// The create payload carries no market data; price and change stay on
	// the unknown placeholder until a real price source is attached.
	return &models.TokenRecord{
		ID:            cur.MintAddress,
		MintAddress:   cur.MintAddress,
		Name:          name,
		Symbol:        cur.Symbol,
		Category:      models.CategoryNewPairs,
		PriceDisplay:  constants.DisplayUnknown,
		ChangeDisplay: constants.DisplayUnknown,
		ChangePercent: 0,
		MarketCap:     constants.DisplayUnknown,
		Volume:        constants.DisplayUnknown,
		AgeSeconds:    ageSecs,
		AgeDisplay:    ageDisplay,
		Tags:          []string{"Pump"},
		URI:           cur.URI,
		Timestamp:     ev.Block.Time,
	}
}

// FinalStretch maps a near-graduation pool update, or nil when the pool's
// base asset is not a bonding-curve mint.
func FinalStretch(ev bitquery.PoolEvent, now time.Time) *models.TokenRecord {
	base := ev.Pool.Market.BaseCurrency
	if !strings.HasSuffix(base.MintAddress, constants.PumpMintSuffix) {
		return nil
	}
	if !validMint(base.MintAddress) {
		return nil
	}

	reserve, _ := strconv.ParseFloat(ev.Pool.Base.PostAmount, 64)
	progress := CurveProgress(reserve)

	price := ev.Pool.Quote.PriceInUSD
	// Pump tokens have a fixed 1B supply, so price alone pins the cap.
	marketCap := price * 1e9

	name := base.Name
	if name == "" {
		name = base.Symbol
	}
	ageSecs, ageDisplay := models.AgeFrom(ev.Block.Time, now)

	tags := []string{"Pump", fmt.Sprintf("%.0f%%", progress)}
	if p := ev.Pool.Dex.ProtocolName; p != "" {
		tags = append(tags, p)
	}

	return &models.TokenRecord{
		ID:            base.MintAddress,
		MintAddress:   base.MintAddress,
		Name:          name,
		Symbol:        base.Symbol,
		Category:      models.CategoryFinalStretch,
		PriceDisplay:  models.FormatPrice(price),
		ChangeDisplay: constants.DisplayUnknown,
		ChangePercent: 0,
		MarketCap:     models.FormatMarketCap(marketCap),
		Volume:        constants.DisplayUnknown,
		CurveProgress: progress,
		AgeSeconds:    ageSecs,
		AgeDisplay:    ageDisplay,
		Tags:          tags,
		URI:           base.URI,
		Timestamp:     ev.Block.Time,
	}
}

// Migration maps a bonding-curve migrate instruction, or nil when none of the
// instruction accounts carries a qualifying mint.
func Migration(ev bitquery.MigrationEvent, now time.Time) *models.TokenRecord {
	mint := migratedMint(ev.Instruction.Accounts)
	if mint == "" {
		return nil
	}

	baseIn := argFloat(ev.Instruction.Program.Arguments, "base_amount_in") / constants.BaseAmountDivisor
	quoteIn := argFloat(ev.Instruction.Program.Arguments, "quote_amount_in") / constants.QuoteAmountDivisor

	ageSecs, ageDisplay := models.AgeFrom(ev.Block.Time, now)

	// Instruction payloads carry no token metadata; the display name is the
	// shortened mint until the metadata fetch resolves it.
	return &models.TokenRecord{
		ID:            mint,
		MintAddress:   mint,
		Name:          shortMint(mint),
		Symbol:        "",
		Category:      models.CategoryMigrated,
		PriceDisplay:  constants.DisplayUnknown,
		ChangeDisplay: constants.DisplayUnknown,
		ChangePercent: 0,
		MarketCap:     constants.DisplayUnknown,
		Volume:        models.FormatNumber(baseIn),
		AgeSeconds:    ageSecs,
		AgeDisplay:    ageDisplay,
		Tags:          []string{"Pump", fmt.Sprintf("%s SOL", models.FormatNumber(quoteIn))},
		Timestamp:     ev.Block.Time,
	}
}

// CurveProgress interpolates the bonding-curve completion percentage from the
// base reserve. The subscription filter only admits pools inside the final
// window, so the lower threshold maps to 95% and the upper to 100%; the
// result is clamped to [0,100] against out-of-window stragglers.
func CurveProgress(reserve float64) float64 {
	span := constants.FinalStretchUpperReserve - constants.FinalStretchLowerReserve
	p := constants.FinalStretchFloorPct +
		(reserve-constants.FinalStretchLowerReserve)/span*(100-constants.FinalStretchFloorPct)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// migratedMint scans the instruction account list for a bonding-curve mint
// that is not wrapped SOL.
func migratedMint(accounts []bitquery.InstructionAccount) string {
	for _, acc := range accounts {
		mint := acc.Token.Mint
		if mint == constants.WrappedSOLMint {
			continue
		}
		if strings.HasSuffix(mint, constants.PumpMintSuffix) && validMint(mint) {
			return mint
		}
	}
	return ""
}

// argFloat extracts a named integer argument, defaulting to 0 when absent or
// malformed.
func argFloat(args []bitquery.InstructionArgument, name string) float64 {
	for _, a := range args {
		if a.Name != name {
			continue
		}
		if f, err := a.Value.Integer.Float64(); err == nil {
			return f
		}
		return 0
	}
	return 0
}

// validMint checks that the address is plausible base58 of mint length
// before a record is admitted; garbage here would poison the dedup key.
func validMint(mint string) bool {
	if len(mint) < 32 || len(mint) > 44 {
		return false
	}
	_, err := base58.Decode(mint)
	return err == nil
}

func shortMint(mint string) string {
	if len(mint) <= 10 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}
