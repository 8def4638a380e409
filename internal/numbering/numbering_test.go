package numbering_test

import (
	"context"
	"testing"
	"time"

	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/numbering"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNextIsStrictlyIncreasingAndPersistent(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Now)
	ctx := context.Background()

	var got []string
	for range 3 {
		require.NoError(t, store.Run(ctx, func(tx *gorm.DB) error {
			a, err := numbering.Next(tx)
			got = append(got, a.String())
			return err
		}))
	}
	assert.Equal(t, []string{"INV-1001", "INV-1002", "INV-1003"}, got)

	peek, err := numbering.Peek(store.DB())
	require.NoError(t, err)
	assert.Equal(t, "INV-1004", peek)
}

func TestNextRolledBackLeavesCounter(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Now)
	ctx := context.Background()

	_ = store.Run(ctx, func(tx *gorm.DB) error {
		if _, err := numbering.Next(tx); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})

	peek, err := numbering.Peek(store.DB())
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", peek)
}

func TestNextSkipsTakenNumbersAndKeepsCounterAcrossPrefixChange(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)).Now)
	ctx := context.Background()
	db := store.DB()

	require.NoError(t, db.Create(&models.Customer{Name: "Walk-in"}).Error)
	require.NoError(t, db.Create(&models.Invoice{
		Number: "INV-1001", CustomerID: 1, Status: models.StatusUnpaid,
		Subtotal: decimal.Zero, TaxRate: decimal.Zero, TaxAmount: decimal.Zero,
		DiscountRate: decimal.Zero, DiscountAmount: decimal.Zero, Total: decimal.Zero,
	}).Error)

	var first, second numbering.Allocation
	require.NoError(t, store.Run(ctx, func(tx *gorm.DB) (err error) {
		first, err = numbering.Next(tx)
		return err
	}))
	assert.Equal(t, "INV-1002", first.String())

	require.NoError(t, db.Model(&models.Setting{}).
		Where(&models.Setting{Key: models.SettingInvoicePrefix}).Update("value", "POS-").Error)
	require.NoError(t, store.Run(ctx, func(tx *gorm.DB) (err error) {
		second, err = numbering.Next(tx)
		return err
	}))
	assert.Equal(t, "POS-1003", second.String())
}
