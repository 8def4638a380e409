package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockEntrySigned(t *testing.T) {
	assert.Equal(t, 3, StockEntry{Kind: StockIn, Quantity: 3}.Signed())
	assert.Equal(t, -2, StockEntry{Kind: StockOut, Quantity: 2}.Signed())
	assert.Equal(t, 4, StockEntry{Kind: StockAdjust, Quantity: 4}.Signed())
	assert.Equal(t, -4, StockEntry{Kind: StockAdjust, Quantity: 4, Decrease: true}.Signed())
}

func TestDates(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	ts := time.Date(2026, 3, 1, 0, 30, 15, 900, lagos)

	assert.Equal(t, time.Date(2026, 2, 28, 23, 30, 15, 0, time.UTC), Instant(ts))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), CivilDate(ts))

	d, err := ParseDate("2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, 45, DaysBetween(d, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysBetween(d, d.AddDate(0, 0, -1)))
}
