package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/lpmon/internal/store"
)

// PriceSweeper drops old cache entries.
type PriceSweeper interface {
	SweepExpired(maxAge time.Duration) int
}

// PriceClearer empties the price cache.
type PriceClearer interface {
	ClearCache()
}

// CacheKeeper evicts expired store entries and old prices.
type CacheKeeper struct {
	store  store.Store
	prices PriceSweeper
	maxAge time.Duration
}

// NewCacheKeeper creates a CacheKeeper sweeping prices older than maxAge. st may be nil.
func NewCacheKeeper(st store.Store, prices PriceSweeper, maxAge time.Duration) *CacheKeeper {
	return &CacheKeeper{store: st, prices: prices, maxAge: maxAge}
}

// Run sweeps the store, when one is set, and then the price cache.
func (k *CacheKeeper) Run(ctx context.Context) error {
	cached := 0
	if k.store != nil {
		if err := k.store.DeleteExpired(ctx); err != nil {
			return fmt.Errorf("deleting expired store entries: %w", err)
		}
		keys, err := k.store.Keys(ctx, store.PortfolioKeyPrefix)
		if err != nil {
			return fmt.Errorf("listing cached portfolios: %w", err)
		}
		cached = len(keys)
	}
	removed := k.prices.SweepExpired(k.maxAge)
	slog.Info("CacheKeeper: sweep completed", "cached_portfolios", cached, "prices_removed", removed)
	return nil
}

// Cleanup clears the price cache.
type Cleanup struct {
	prices PriceClearer
}

// NewCleanup creates a Cleanup.
func NewCleanup(prices PriceClearer) *Cleanup {
	return &Cleanup{prices: prices}
}

// Run drops every cached price.
func (c *Cleanup) Run(_ context.Context) error {
	c.prices.ClearCache()
	slog.Info("Cleanup: price cache cleared")
	return nil
}

func formatRatio(n, total int) string {
	return fmt.Sprintf("%d of %d succeeded", n, total)
}
