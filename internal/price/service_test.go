package price

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

type mockProvider struct {
	source domain.PriceSource
	prices map[string]decimal.Decimal
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockProvider) Source() domain.PriceSource { return m.source }

func (m *mockProvider) FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.TokenPrice{}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return domain.TokenPrice{}, m.err
	}
	p, ok := m.prices[mint]
	if !ok {
		return domain.TokenPrice{}, ErrNoPrice
	}
	return domain.TokenPrice{Mint: mint, Price: p}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(opts Options, providers ...Provider) (*Service, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewService(opts, providers...)
	svc.now = clock.Now
	return svc, clock
}

func TestGetPriceFallsBackToNextProvider(t *testing.T) {
	a := &mockProvider{source: "a", err: errors.New("a is down")}
	b := &mockProvider{source: "b", prices: map[string]decimal.Decimal{"M": decimal.NewFromInt(42)}}
	svc, _ := newTestService(Options{}, a, b)

	p, ok := svc.GetPrice(context.Background(), "M")
	if !ok {
		t.Fatal("expected a price")
	}
	if p.Mint != "M" || p.Source != "b" || !p.Price.Equal(decimal.NewFromInt(42)) {
		t.Errorf("GetPrice() = %+v, want {M 42 b}", p)
	}
}

func TestGetPriceProviderSourceAlwaysWins(t *testing.T) {
	// The provider reports a misleading source; the cache records the chain identity.
	p := &fakeSourceProvider{}
	svc, _ := newTestService(Options{}, p)

	got, ok := svc.GetPrice(context.Background(), "M")
	if !ok {
		t.Fatal("expected a price")
	}
	if got.Source != "real" {
		t.Errorf("Source = %q, want real", got.Source)
	}
}

type fakeSourceProvider struct{}

func (fakeSourceProvider) Source() domain.PriceSource { return "real" }

func (fakeSourceProvider) FetchPrice(_ context.Context, mint string) (domain.TokenPrice, error) {
	return domain.TokenPrice{Mint: mint, Price: decimal.NewFromInt(1), Source: "other"}, nil
}

func TestGetPriceUsesFreshCache(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{"M": decimal.NewFromInt(1)}}
	svc, clock := newTestService(Options{TTL: 10 * time.Second}, prov)
	ctx := context.Background()

	svc.GetPrice(ctx, "M")
	clock.Advance(9 * time.Second)
	svc.GetPrice(ctx, "M")
	if got := prov.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 while fresh", got)
	}

	clock.Advance(2 * time.Second)
	svc.GetPrice(ctx, "M")
	if got := prov.calls.Load(); got != 2 {
		t.Errorf("provider calls = %d, want 2 after TTL", got)
	}
}

func TestGetPriceAbsentInRealMode(t *testing.T) {
	prov := &mockProvider{source: "a", err: errors.New("down")}
	svc, _ := newTestService(Options{Mode: domain.ModeReal}, prov)

	if _, ok := svc.GetPrice(context.Background(), domain.MintSOL); ok {
		t.Error("expected absent price when all providers fail in real mode")
	}
	if st := svc.CacheStatus(); st.Total != 0 {
		t.Errorf("cache Total = %d, want 0", st.Total)
	}
}

func TestGetPriceSyntheticFallback(t *testing.T) {
	prov := &mockProvider{source: "a", err: errors.New("down")}
	svc, _ := newTestService(Options{Mode: domain.ModeSynthetic}, prov)

	p, ok := svc.GetPrice(context.Background(), domain.MintSOL)
	if !ok {
		t.Fatal("expected synthetic price")
	}
	if p.Source != domain.SourceSynthetic {
		t.Errorf("Source = %q, want synthetic", p.Source)
	}
	low, high := decimal.RequireFromString("93.5"), decimal.RequireFromString("97.4")
	if p.Price.LessThan(low) || p.Price.GreaterThan(high) {
		t.Errorf("synthetic SOL price = %s, want within 2%% of 95.42", p.Price)
	}
	if prov.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", prov.calls.Load())
	}
}

func TestSyntheticOnlySkipsProviders(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{"M": decimal.NewFromInt(5)}}
	svc, _ := newTestService(Options{Mode: domain.ModeSynthetic, SyntheticOnly: true}, prov)

	p, ok := svc.GetPrice(context.Background(), "M")
	if !ok || p.Source != domain.SourceSynthetic {
		t.Errorf("GetPrice() = %+v, %v; want synthetic", p, ok)
	}
	if prov.calls.Load() != 0 {
		t.Errorf("provider calls = %d, want 0", prov.calls.Load())
	}
}

func TestSyntheticEstimateIsReproducible(t *testing.T) {
	now := time.Now()
	a := estimateSynthetic(domain.MintBONK, now)
	b := estimateSynthetic(domain.MintBONK, now.Add(time.Hour))
	if !a.Price.Equal(b.Price) {
		t.Errorf("synthetic price changed between calls: %s vs %s", a.Price, b.Price)
	}
	if !a.Price.IsPositive() {
		t.Errorf("synthetic price = %s, want positive", a.Price)
	}

	unknown := estimateSynthetic("unregistered-mint", now)
	if unknown.Symbol != domain.UnknownSymbol {
		t.Errorf("Symbol = %q, want UNKNOWN", unknown.Symbol)
	}
	if unknown.Price.LessThan(decimal.RequireFromString("0.98")) || unknown.Price.GreaterThan(decimal.RequireFromString("1.02")) {
		t.Errorf("unknown mint price = %s, want around 1.0", unknown.Price)
	}
}

func TestProviderTimeoutFallsThrough(t *testing.T) {
	slow := &mockProvider{source: "slow", delay: time.Second, prices: map[string]decimal.Decimal{"M": decimal.NewFromInt(1)}}
	fast := &mockProvider{source: "fast", prices: map[string]decimal.Decimal{"M": decimal.NewFromInt(2)}}
	svc, _ := newTestService(Options{ProviderTimeout: 20 * time.Millisecond}, slow, fast)

	p, ok := svc.GetPrice(context.Background(), "M")
	if !ok || p.Source != "fast" {
		t.Errorf("GetPrice() = %+v, %v; want source fast", p, ok)
	}
}

func TestGetPricesPartialFailure(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{
		"m1": decimal.NewFromInt(1),
		"m3": decimal.NewFromInt(3),
	}}
	svc, _ := newTestService(Options{BatchSize: 2}, prov)

	got := svc.GetPrices(context.Background(), []string{"m1", "m2", "m3", "m1"})
	if len(got) != 2 {
		t.Fatalf("len(result) = %d, want 2", len(got))
	}
	if _, ok := got["m2"]; ok {
		t.Error("m2 should be absent")
	}
	if !got["m3"].Price.Equal(decimal.NewFromInt(3)) {
		t.Errorf("m3 = %s, want 3", got["m3"].Price)
	}
	if calls := prov.calls.Load(); calls != 3 {
		t.Errorf("provider calls = %d, want 3 (duplicates collapsed)", calls)
	}
}

func TestWarmIgnoresFreshness(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{"m1": decimal.NewFromInt(1)}}
	svc, _ := newTestService(Options{TTL: time.Hour}, prov)
	ctx := context.Background()

	svc.GetPrice(ctx, "m1")
	res := svc.Warm(ctx, []string{"m1", "m2"})

	if res != (WarmResult{Requested: 2, Refreshed: 1, Failed: 1}) {
		t.Errorf("Warm() = %+v, want 2/1/1", res)
	}
	if calls := prov.calls.Load(); calls != 3 {
		t.Errorf("provider calls = %d, want 3", calls)
	}
}

func TestClearCacheAndStatus(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{
		"m1": decimal.NewFromInt(1),
		"m2": decimal.NewFromInt(2),
	}}
	svc, clock := newTestService(Options{TTL: 10 * time.Second}, prov)
	ctx := context.Background()

	svc.GetPrice(ctx, "m1")
	clock.Advance(8 * time.Second)
	svc.GetPrice(ctx, "m2")
	clock.Advance(3 * time.Second)

	if st := svc.CacheStatus(); st != (CacheStatus{Total: 2, Fresh: 1, Stale: 1}) {
		t.Errorf("CacheStatus() = %+v, want 2 total, 1 fresh, 1 stale", st)
	}
	if all := svc.AllCachedPrices(); len(all) != 2 {
		t.Errorf("len(AllCachedPrices()) = %d, want 2", len(all))
	}

	svc.ClearCache()
	if st := svc.CacheStatus(); st.Total != 0 {
		t.Errorf("Total after clear = %d, want 0", st.Total)
	}

	svc.GetPrice(ctx, "m1")
	if calls := prov.calls.Load(); calls != 3 {
		t.Errorf("provider calls = %d, want refetch after clear", calls)
	}
}

func TestSweepExpired(t *testing.T) {
	prov := &mockProvider{source: "a", prices: map[string]decimal.Decimal{"m1": decimal.NewFromInt(1)}}
	svc, clock := newTestService(Options{}, prov)

	svc.GetPrice(context.Background(), "m1")
	clock.Advance(time.Hour)

	if n := svc.SweepExpired(10 * time.Minute); n != 1 {
		t.Errorf("SweepExpired() = %d, want 1", n)
	}
}

func TestConcurrentLookupsShareFetch(t *testing.T) {
	prov := &mockProvider{source: "a", delay: 50 * time.Millisecond, prices: map[string]decimal.Decimal{"m1": decimal.NewFromInt(1)}}
	svc, _ := newTestService(Options{}, prov)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := svc.GetPrice(context.Background(), "m1"); !ok {
				t.Error("expected a price")
			}
		}()
	}
	wg.Wait()

	if calls := prov.calls.Load(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}

func TestCancelledCallerDoesNotFailJoinedLookup(t *testing.T) {
	prov := &mockProvider{source: "a", delay: 200 * time.Millisecond, prices: map[string]decimal.Decimal{"m1": decimal.NewFromInt(7)}}
	svc, _ := newTestService(Options{}, prov)

	first, cancel := context.WithCancel(context.Background())
	go svc.GetPrice(first, "m1")
	time.Sleep(20 * time.Millisecond)

	type result struct {
		p  domain.TokenPrice
		ok bool
	}
	done := make(chan result, 1)
	go func() {
		p, ok := svc.GetPrice(context.Background(), "m1")
		done <- result{p, ok}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	r := <-done
	if !r.ok || !r.p.Price.Equal(decimal.NewFromInt(7)) {
		t.Errorf("joined GetPrice() = %+v, %v; want 7, true", r.p, r.ok)
	}
	if calls := prov.calls.Load(); calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
}
