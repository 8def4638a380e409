package settings_test

import (
	"context"
	"testing"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *settings.Service {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return settings.New(databasetest.Open(t, clock.Now), config.DiscardLogger())
}

func TestDefaults(t *testing.T) {
	svc := newService(t)

	snap, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "₦", snap.CurrencySymbol)
	assert.True(t, snap.DefaultTaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "INV-", snap.InvoicePrefix)
	assert.EqualValues(t, 1001, snap.InvoiceNextNumber)
	assert.Equal(t, 30, snap.DefaultDueDays)
	assert.Equal(t, 10, snap.LowStockThreshold)
	assert.Equal(t, 5, snap.CriticalStockThreshold)
	assert.True(t, snap.OverpaymentTolerance.IsZero())
	assert.Equal(t, 8, snap.NumberingRetryLimit)
	assert.Equal(t, []string{"Cash", "Card", "Bank Transfer"}, snap.PaymentMethods)
	assert.True(t, snap.MethodEnabled("Card"))
	assert.False(t, snap.MethodEnabled("Cheque"))
}

func TestSetInvalidatesCache(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Get(ctx)
	require.NoError(t, err)
	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, svc.Set(ctx, models.SettingDefaultTaxRate, "0.075", "admin"))

	snap, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, snap.DefaultTaxRate.Equal(decimal.RequireFromString("0.075")))
}

func TestSetValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	err := svc.Set(ctx, models.SettingDefaultTaxRate, "1.5", "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorContains(t, err, apperr.MsgRateOutOfRange)

	assert.ErrorIs(t, svc.Set(ctx, "favourite_colour", "blue", "admin"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, models.SettingPaymentMethods, " , ", "admin"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.Set(ctx, models.SettingInvoiceNextNumber, "900", "admin"), apperr.ErrValidation)
	require.NoError(t, svc.Set(ctx, models.SettingInvoiceNextNumber, "5000", "admin"))
}

func TestPaymentMethodsCanBeNarrowed(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, models.SettingPaymentMethods, "Cash, Mobile Money", "admin"))
	snap, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash", "Mobile Money"}, snap.PaymentMethods)
	assert.False(t, snap.MethodEnabled("Card"))
}

func TestNextInvoiceNumberFollowsSettings(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	next, err := svc.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", next)

	require.NoError(t, svc.Set(ctx, models.SettingInvoicePrefix, "SHOP-", "admin"))
	require.NoError(t, svc.Set(ctx, models.SettingInvoiceNextNumber, "2000", "admin"))
	next, err = svc.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SHOP-2000", next)
}
