package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/archive"
	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/portfolio"
	"github.com/mtlprog/lpmon/internal/price"
	"github.com/mtlprog/lpmon/internal/scheduler"
	"github.com/mtlprog/lpmon/internal/wallet"
)

const testKey = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

type mockPortfolios struct {
	wallets *wallet.Registry
}

func (m *mockPortfolios) GetWalletPortfolio(_ context.Context, id string) (domain.WalletLPPortfolio, error) {
	if err := m.wallets.Validate(id); err != nil {
		return domain.WalletLPPortfolio{}, err
	}
	if id == "broken" {
		return domain.WalletLPPortfolio{}, fmt.Errorf("boom")
	}
	return domain.WalletLPPortfolio{WalletAddress: id, TotalValue: decimal.RequireFromString("1008.54"), TotalPositions: 2}, nil
}

func (m *mockPortfolios) GetWalletSummary(ctx context.Context, id string) (domain.PortfolioSummary, error) {
	p, err := m.GetWalletPortfolio(ctx, id)
	return p.Summary, err
}

func (m *mockPortfolios) GetUnclaimedFeesSummary(ctx context.Context, id string) (domain.UnclaimedFeesSummary, error) {
	_, err := m.GetWalletPortfolio(ctx, id)
	return domain.UnclaimedFeesSummary{}, err
}

func (m *mockPortfolios) GetEarningsStats(ctx context.Context, id string) (domain.EarningsProjection, error) {
	_, err := m.GetWalletPortfolio(ctx, id)
	return domain.EarningsProjection{}, err
}

func (m *mockPortfolios) GetPositionDetails(ctx context.Context, id, pool string) (domain.LPPosition, error) {
	if _, err := m.GetWalletPortfolio(ctx, id); err != nil {
		return domain.LPPosition{}, err
	}
	if pool != "pool-1" {
		return domain.LPPosition{}, fmt.Errorf("pool %s: %w", pool, portfolio.ErrPositionNotFound)
	}
	return domain.LPPosition{PoolAddress: pool}, nil
}

type mockRefresher struct{ calls int }

func (m *mockRefresher) RefreshPositions(_ context.Context, _ string) ([]domain.LPPosition, error) {
	m.calls++
	return make([]domain.LPPosition, 2), nil
}

type mockPrices struct{ cleared bool }

func (m *mockPrices) GetPrice(_ context.Context, mint string) (domain.TokenPrice, bool) {
	if mint != domain.MintSOL {
		return domain.TokenPrice{}, false
	}
	return domain.TokenPrice{Mint: mint, Symbol: "SOL", Price: decimal.RequireFromString("95.42")}, true
}

func (m *mockPrices) AllCachedPrices() map[string]domain.TokenPrice { return nil }

func (m *mockPrices) CacheStatus() price.CacheStatus { return price.CacheStatus{Total: 1, Fresh: 1} }

func (m *mockPrices) ClearCache() { m.cleared = true }

type mockTasks struct{ ran []string }

func (m *mockTasks) Status() scheduler.Status {
	return scheduler.Status{Running: true, TaskCount: 2, Tasks: []scheduler.TaskStatus{{Name: "price-updates"}, {Name: "failing"}}}
}

func (m *mockTasks) ExecuteTask(_ context.Context, name string) bool {
	m.ran = append(m.ran, name)
	return name == "price-updates"
}

type testEnv struct {
	router    http.Handler
	refresher *mockRefresher
	prices    *mockPrices
	tasks     *mockTasks
	history   *archive.MemoryRepository
}

func newTestEnv(t *testing.T, adminKey string) *testEnv {
	t.Helper()
	reg := wallet.NewRegistry(
		wallet.Wallet{ID: "main", Name: "Main", PublicKey: testKey, PrivateKey: "secret"},
		wallet.Wallet{ID: "broken", Name: "Broken", PublicKey: testKey, PrivateKey: "secret"},
		wallet.Wallet{ID: "empty", Name: "Empty", PublicKey: "YOUR_PUBLIC_KEY", PrivateKey: "YOUR_PRIVATE_KEY"},
	)
	env := &testEnv{
		refresher: &mockRefresher{},
		prices:    &mockPrices{},
		tasks:     &mockTasks{},
		history:   archive.NewMemoryRepository(),
	}
	positions := NewHandler(reg, &mockPortfolios{wallets: reg}, env.refresher, env.history)
	system := NewSystemHandler(env.prices, env.tasks)
	env.router = NewRouter(ServerConfig{AdminAPIKey: adminKey, CORSOrigins: []string{"*"}}, positions, system)
	return env
}

func (e *testEnv) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestGetPortfolioStatusMapping(t *testing.T) {
	env := newTestEnv(t, "")
	tests := []struct {
		path string
		want int
	}{
		{"/api/positions/main", http.StatusOK},
		{"/api/positions/main/summary", http.StatusOK},
		{"/api/positions/main/unclaimed-fees", http.StatusOK},
		{"/api/positions/main/earnings", http.StatusOK},
		{"/api/positions/main/pool/pool-1", http.StatusOK},
		{"/api/positions/main/pool/missing", http.StatusNotFound},
		{"/api/positions/nobody", http.StatusNotFound},
		{"/api/positions/empty", http.StatusBadRequest},
		{"/api/positions/bad%20id", http.StatusBadRequest},
		{"/api/positions/broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGetPortfolioEnvelope(t *testing.T) {
	env := newTestEnv(t, "")
	body := decode(t, env.do(http.MethodGet, "/api/positions/main", ""))
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", body["data"])
	}
	if data["totalValue"] != "1008.54" {
		t.Errorf("totalValue = %v, want \"1008.54\"", data["totalValue"])
	}
}

func TestListWallets(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/api/positions/wallets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["total"] != float64(3) {
		t.Errorf("total = %v, want 3", data["total"])
	}
	for _, w := range data["wallets"].([]any) {
		wl := w.(map[string]any)
		if _, leaked := wl["privateKey"]; leaked {
			t.Error("private key must not be serialized")
		}
		if wl["walletId"] == "empty" && wl["isConfigured"] != false {
			t.Errorf("empty wallet isConfigured = %v, want false", wl["isConfigured"])
		}
	}
}

func TestRefreshRequiresAuth(t *testing.T) {
	env := newTestEnv(t, "admin-key")

	if rec := env.do(http.MethodPost, "/api/positions/main/refresh", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/api/positions/main/refresh", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/positions/main/refresh", "admin-key")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["message"] != "Refreshed 2 positions" {
		t.Errorf("message = %v", body["message"])
	}
	if env.refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", env.refresher.calls)
	}

	if rec := env.do(http.MethodPost, "/api/positions/empty/refresh", "admin-key"); rec.Code != http.StatusBadRequest {
		t.Errorf("unconfigured refresh: status = %d, want 400", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, "")
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		p := domain.WalletLPPortfolio{WalletAddress: "main", TotalValue: decimal.NewFromInt(int64(i))}
		if err := env.history.Save(context.Background(), day.AddDate(0, 0, -i), p, true); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(http.MethodGet, "/api/positions/main/history?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if recs := decode(t, rec)["data"].([]any); len(recs) != 2 {
		t.Errorf("len(history) = %d, want 2", len(recs))
	}

	if rec := env.do(http.MethodGet, "/api/positions/nobody/history", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown wallet: status = %d, want 404", rec.Code)
	}
}

func TestPriceRoutes(t *testing.T) {
	env := newTestEnv(t, "")

	if rec := env.do(http.MethodGet, "/api/prices/"+domain.MintSOL, ""); rec.Code != http.StatusOK {
		t.Errorf("known mint: status = %d, want 200", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/prices/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown mint: status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/prices/status", ""); rec.Code != http.StatusOK {
		t.Errorf("status route: status = %d, want 200", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/api/prices/clear", ""); rec.Code != http.StatusOK || !env.prices.cleared {
		t.Errorf("clear: status = %d, cleared = %v", rec.Code, env.prices.cleared)
	}
}

func TestRunTask(t *testing.T) {
	env := newTestEnv(t, "")
	tests := []struct {
		name string
		want int
	}{
		{"price-updates", http.StatusOK},
		{"failing", http.StatusInternalServerError},
		{"nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := env.do(http.MethodPost, "/api/scheduler/tasks/"+tt.name+"/run", "")
		if rec.Code != tt.want {
			t.Errorf("run %s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	services := decode(t, rec)["services"].(map[string]any)
	if sched := services["scheduler"].(map[string]any); sched["isRunning"] != true {
		t.Errorf("scheduler.isRunning = %v, want true", sched["isRunning"])
	}

	if rec := env.do(http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(http.MethodGet, "/api/nothing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}
