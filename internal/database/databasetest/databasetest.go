// Package databasetest opens throwaway sqlite stores for package tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-pos-billing/internal/config"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
)

// Clock is a settable test clock.
type Clock struct {
	T time.Time
}

func (c *Clock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

// NewClock pins the clock at the given UTC instant.
func NewClock(t time.Time) *Clock {
	return &Clock{T: t.UTC()}
}

// Open returns a bootstrapped store in t.TempDir(), closed on cleanup.
func Open(t testing.TB, now models.Clock) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), database.Options{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "billing.db"),
		Now:    now,
	}, config.DiscardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
