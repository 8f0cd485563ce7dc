package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/price"
	"github.com/mtlprog/lpmon/internal/store"
)

// PriceSnapshotTTL is how long the published price snapshot lives in the store.
const PriceSnapshotTTL = 60 * time.Second

// PriceCache is the part of the price service the workers drive.
type PriceCache interface {
	CacheStatus() price.CacheStatus
	Warm(ctx context.Context, mints []string) price.WarmResult
	AllCachedPrices() map[string]domain.TokenPrice
}

// PriceWorker keeps the watch-list warm and publishes a price snapshot.
type PriceWorker struct {
	prices    PriceCache
	store     store.Store
	watchlist []string
	ttl       time.Duration
}

// NewPriceWorker creates a PriceWorker. st may be nil; ttl <= 0 selects PriceSnapshotTTL.
func NewPriceWorker(prices PriceCache, st store.Store, watchlist []string, ttl time.Duration) *PriceWorker {
	if ttl <= 0 {
		ttl = PriceSnapshotTTL
	}
	return &PriceWorker{prices: prices, store: st, watchlist: watchlist, ttl: ttl}
}

// Run performs one price-update cycle. The watch-list is refetched on every
// cycle whether or not anything requested those mints. A nil store skips publishing.
func (w *PriceWorker) Run(ctx context.Context) error {
	st := w.prices.CacheStatus()
	slog.Debug("PriceWorker: cache status", "total", st.Total, "fresh", st.Fresh, "stale", st.Stale)

	if len(w.watchlist) > 0 {
		res := w.prices.Warm(ctx, w.watchlist)
		slog.Info("PriceWorker: warmed watch-list", "requested", res.Requested, "refreshed", res.Refreshed, "failed", res.Failed)
	}

	if w.store == nil {
		return nil
	}
	if err := store.SetJSON(ctx, w.store, store.KeyPriceCache, w.prices.AllCachedPrices(), w.ttl); err != nil {
		return fmt.Errorf("publishing price snapshot: %w", err)
	}
	return nil
}
