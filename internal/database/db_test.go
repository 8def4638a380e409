package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/database/databasetest"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestOpenSeedsSettingsAndAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.db")
	opts := database.Options{Path: path, AdminUsername: "root", AdminPassword: "s3cret"}

	store, err := database.Open(context.Background(), opts, config.DiscardLogger())
	require.NoError(t, err)

	var settings []models.Setting
	require.NoError(t, store.DB().Find(&settings).Error)
	assert.Len(t, settings, len(models.DefaultSettings))

	var admin models.User
	require.NoError(t, store.DB().Where("username = ?", "root").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret")))

	// A changed setting survives a restart; the bootstrap does not overwrite it.
	require.NoError(t, store.DB().Model(&models.Setting{}).
		Where(&models.Setting{Key: models.SettingInvoiceNextNumber}).Update("value", "2000").Error)
	require.NoError(t, store.Close())

	store, err = database.Open(context.Background(), opts, config.DiscardLogger())
	require.NoError(t, err)
	defer store.Close()

	var next models.Setting
	require.NoError(t, store.DB().Where(&models.Setting{Key: models.SettingInvoiceNextNumber}).First(&next).Error)
	assert.Equal(t, "2000", next.Value)

	var users int64
	require.NoError(t, store.DB().Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestRunRollsBackOnError(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)
	ctx := context.Background()
	boom := apperr.Validation("test", "boom")

	err := store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Item{Name: "A", Category: "C", UnitPrice: decimal.NewFromInt(1)}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	var count int64
	require.NoError(t, store.DB().Model(&models.Item{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunWrapsForeignErrorsAsStorage(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)

	err := store.Run(context.Background(), func(tx *gorm.DB) error {
		return errors.New("disk on fire")
	})
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func TestRunWithRetryExhaustsNumbering(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)
	attempts := 0

	err := store.RunWithRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return apperr.New(apperr.KindNumberingConflict, "test", "taken")
	})
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, apperr.ErrNumberingExhausted)
}

func TestRunWithRetryRecovers(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)
	attempts := 0

	err := store.RunWithRetry(context.Background(), 8, func(tx *gorm.DB) error {
		attempts++
		if attempts < 2 {
			return apperr.New(apperr.KindNumberingConflict, "test", "taken")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunWithRetryStopsOnValidation(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)
	attempts := 0

	err := store.RunWithRetry(context.Background(), 8, func(tx *gorm.DB) error {
		attempts++
		return apperr.Validation("test", "bad input")
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, attempts)
}

func TestStreamYieldsRowsInOrder(t *testing.T) {
	store := databasetest.Open(t, databasetest.NewClock(epoch).Now)
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, store.DB().Create(&models.Item{Name: name, Category: "x", UnitPrice: decimal.RequireFromString("1.50")}).Error)
	}

	items, err := database.Collect(database.Stream[models.Item](store.DB().Model(&models.Item{}).Order("name")))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Name)
	assert.True(t, items[2].UnitPrice.Equal(decimal.RequireFromString("1.5")))
}

func TestLookup(t *testing.T) {
	err := database.Lookup(gorm.ErrRecordNotFound, "catalog.Get", "item", 9)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.EqualError(t, err, "catalog.Get: item 9 not found")

	assert.ErrorIs(t, database.Lookup(errors.New("io"), "op", "item", 1), apperr.ErrStorage)
	assert.True(t, database.IsDuplicateKey(gorm.ErrDuplicatedKey))
}
