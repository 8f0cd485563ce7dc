package price

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/metrics"
)

// ErrNoPrice indicates that no provider could price a mint.
var ErrNoPrice = errors.New("no price available")

const (
	defaultBatchSize       = 10
	defaultProviderTimeout = 5 * time.Second
)

// Provider is one price source in the fallback chain.
type Provider interface {
	Source() domain.PriceSource
	FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	TTL             time.Duration
	ProviderTimeout time.Duration
	BatchSize       int
	Mode            domain.DataSourceMode
	// SyntheticOnly skips real providers entirely when Mode permits synthetic data.
	SyntheticOnly bool
}

// WarmResult summarizes a proactive refresh.
type WarmResult struct {
	Requested int `json:"requested"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// Service is a read-through price cache over an ordered provider chain.
// Lookups never return errors; an unresolvable mint is reported as absent.
type Service struct {
	providers []Provider
	cache     *priceCache
	opts      Options
	flight    singleflight.Group
	now       func() time.Time
}

// NewService creates a price Service. Providers are tried in the given order.
func NewService(opts Options, providers ...Provider) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeReal
	}
	return &Service{
		providers: providers,
		cache:     newPriceCache(opts.TTL),
		opts:      opts,
		now:       time.Now,
	}
}

// GetPrice returns the cached price if fresh, otherwise refetches synchronously.
func (s *Service) GetPrice(ctx context.Context, mint string) (domain.TokenPrice, bool) {
	if p, ok := s.cache.get(mint, s.now()); ok {
		metrics.PriceCacheReads.WithLabelValues("hit").Inc()
		return p, true
	}
	metrics.PriceCacheReads.WithLabelValues("miss").Inc()
	return s.refresh(ctx, mint)
}

// GetPrices resolves mints in bounded batches of concurrent lookups.
// Mints without a price are absent from the result.
func (s *Service) GetPrices(ctx context.Context, mints []string) map[string]domain.TokenPrice {
	result := make(map[string]domain.TokenPrice, len(mints))
	var mu sync.Mutex

	for _, batch := range lo.Chunk(lo.Uniq(mints), s.opts.BatchSize) {
		var g errgroup.Group
		for _, mint := range batch {
			g.Go(func() error {
				if p, ok := s.GetPrice(ctx, mint); ok {
					mu.Lock()
					result[mint] = p
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return result
}

// Warm refetches every mint regardless of freshness.
func (s *Service) Warm(ctx context.Context, mints []string) WarmResult {
	mints = lo.Uniq(mints)
	res := WarmResult{Requested: len(mints)}
	var mu sync.Mutex

	for _, batch := range lo.Chunk(mints, s.opts.BatchSize) {
		var g errgroup.Group
		for _, mint := range batch {
			g.Go(func() error {
				_, ok := s.refresh(ctx, mint)
				mu.Lock()
				if ok {
					res.Refreshed++
				} else {
					res.Failed++
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	return res
}

// ClearCache drops all cached entries.
func (s *Service) ClearCache() {
	s.cache.clear()
	metrics.PriceCacheEntries.Set(0)
}

// CacheStatus classifies every entry as fresh or stale at call time.
func (s *Service) CacheStatus() CacheStatus {
	return s.cache.status(s.now())
}

// AllCachedPrices returns a copy of every cached entry, fresh or stale.
func (s *Service) AllCachedPrices() map[string]domain.TokenPrice {
	return s.cache.snapshot()
}

// SweepExpired drops entries older than maxAge and returns the number removed.
func (s *Service) SweepExpired(maxAge time.Duration) int {
	removed, remaining := s.cache.sweep(maxAge, s.now())
	metrics.PriceCacheEntries.Set(float64(remaining))
	return removed
}

// refresh resolves a mint through the chain and caches the result.
// Concurrent refreshes of the same mint share one resolution.
func (s *Service) refresh(ctx context.Context, mint string) (domain.TokenPrice, bool) {
	// The shared resolution must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(mint, func() (any, error) {
		p, ok := s.resolve(shared, mint)
		if !ok {
			return nil, ErrNoPrice
		}
		n := s.cache.set(p)
		metrics.PriceCacheEntries.Set(float64(n))
		return p, nil
	})
	if err != nil {
		return domain.TokenPrice{}, false
	}
	return v.(domain.TokenPrice), true
}

func (s *Service) resolve(ctx context.Context, mint string) (domain.TokenPrice, bool) {
	if !(s.opts.SyntheticOnly && s.opts.Mode.AllowsSynthetic()) {
		for _, prov := range s.providers {
			if p, ok := s.fetch(ctx, prov, mint); ok {
				return p, true
			}
		}
	}

	if s.opts.Mode.AllowsSynthetic() {
		slog.Warn("price: using synthetic estimate", "mint", mint)
		metrics.PriceLookups.WithLabelValues(string(domain.SourceSynthetic), "ok").Inc()
		return estimateSynthetic(mint, s.now()), true
	}

	slog.Warn("price: no price found", "mint", mint, "providers", len(s.providers))
	return domain.TokenPrice{}, false
}

// fetch calls one provider under its own timeout. The returned price always
// carries the provider's source identifier and the cache's fetch time.
func (s *Service) fetch(ctx context.Context, prov Provider, mint string) (domain.TokenPrice, bool) {
	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	source := prov.Source()
	p, err := prov.FetchPrice(pctx, mint)
	if err == nil && !p.Price.IsPositive() {
		err = ErrNoPrice
	}
	metrics.PriceLookups.WithLabelValues(string(source), metrics.Result(err)).Inc()
	if err != nil {
		slog.Debug("price: provider failed", "source", source, "mint", mint, "error", err)
		return domain.TokenPrice{}, false
	}

	p.Mint = mint
	p.Source = source
	if p.Symbol == "" {
		p.Symbol = domain.SymbolForMint(mint)
	}
	p.Timestamp = s.now()
	return p, true
}
