package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryNewPairs.Valid())
	assert.True(t, CategoryFinalStretch.Valid())
	assert.True(t, CategoryMigrated.Valid())
	assert.False(t, Category("trending").Valid())
	assert.False(t, Category("").Valid())
}

func TestAgeFrom(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	secs, display := AgeFrom("2025-06-01T11:59:15Z", now)
	assert.Equal(t, int64(45), secs)
	assert.Equal(t, "45s", display)

	secs, display = AgeFrom("2025-06-01T10:00:00Z", now)
	assert.Equal(t, int64(7200), secs)
	assert.Equal(t, "2h", display)

	// Unparsable timestamps yield zero age rather than an error.
	secs, display = AgeFrom("yesterday", now)
	assert.Zero(t, secs)
	assert.Equal(t, "0s", display)

	// Future timestamps clamp at zero.
	secs, _ = AgeFrom("2025-06-01T12:05:00Z", now)
	assert.Zero(t, secs)
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "0s", FormatAge(0))
	assert.Equal(t, "59s", FormatAge(59))
	assert.Equal(t, "1m", FormatAge(60))
	assert.Equal(t, "59m", FormatAge(3599))
	assert.Equal(t, "1h", FormatAge(3600))
	assert.Equal(t, "27h", FormatAge(100000))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$0.000012", FormatPrice(0.0000123))
	assert.Equal(t, "$2.50", FormatPrice(2.5))
	assert.Equal(t, "$1.25K", FormatPrice(1250))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "12.00", FormatNumber(12))
	assert.Equal(t, "1.5K", FormatNumber(1500))
	assert.Equal(t, "2.3M", FormatNumber(2_300_000))
	assert.Equal(t, "1.2B", FormatNumber(1_200_000_000))
}

func TestFormatMarketCap(t *testing.T) {
	assert.Equal(t, "$0", FormatMarketCap(0))
	assert.Equal(t, "$0.500", FormatMarketCap(0.5))
	assert.Equal(t, "$5.25", FormatMarketCap(5.25))
	assert.Equal(t, "$42.5", FormatMarketCap(42.5))
	assert.Equal(t, "$420", FormatMarketCap(420))
	assert.Equal(t, "$4.2K", FormatMarketCap(4200))
	assert.Equal(t, "$42K", FormatMarketCap(42000))
	assert.Equal(t, "$4.2M", FormatMarketCap(4_200_000))
	assert.Equal(t, "$4.2B", FormatMarketCap(4_200_000_000))
}
