package parties_test

import (
	"context"
	"testing"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/parties"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*parties.Service, *database.Store, *databasetest.Clock) {
	t.Helper()
	clock := databasetest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := databasetest.Open(t, clock.Now)
	return parties.New(store, config.DiscardLogger()), store, clock
}

func TestCreateAndGet(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, parties.CustomerInput{Name: " Ada Obi ", Email: "ada@example.com", TaxID: "TIN-1"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", c.Name)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "admin", got.CreatedBy)
	assert.True(t, got.CreatedAt.Equal(clock.T))

	_, err = svc.Get(ctx, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEmailValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for _, email := range []string{"nope", "a@@b.com", "a@b.com@c.com", "@b.com"} {
		_, err := svc.Create(ctx, parties.CustomerInput{Name: "X", Email: email}, "admin")
		require.ErrorIs(t, err, apperr.ErrValidation, email)
		assert.ErrorContains(t, err, apperr.MsgInvalidEmail, email)
	}

	_, err := svc.Create(ctx, parties.CustomerInput{Name: "Walk-in"}, "admin")
	require.NoError(t, err)

	_, err = svc.Create(ctx, parties.CustomerInput{Name: ""}, "admin")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteBlockedByInvoice(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, parties.CustomerInput{Name: "Busy"}, "admin")
	require.NoError(t, err)
	idle, err := svc.Create(ctx, parties.CustomerInput{Name: "Idle"}, "admin")
	require.NoError(t, err)

	require.NoError(t, store.DB().Create(&models.Invoice{
		Number: "INV-1001", CustomerID: c.ID, Status: models.StatusUnpaid,
		Subtotal: decimal.Zero, TaxRate: decimal.Zero, TaxAmount: decimal.Zero,
		DiscountRate: decimal.Zero, DiscountAmount: decimal.Zero, Total: decimal.Zero,
	}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, c.ID, "admin"), apperr.ErrInUse)
	require.NoError(t, svc.Delete(ctx, idle.ID, "admin"))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Busy", list[0].Name)
}
