package config

import (
	"os"
	"slices"
	"testing"
	"time"

	"github.com/mtlprog/lpmon/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{
		"DATA_SOURCE_MODE", "ENABLE_MOCK_DATA", "PRICE_TTL", "PRICE_BATCH_SIZE", "PRICE_PROVIDERS",
		"PRICE_WATCHLIST", "DAILY_ARCHIVE_AT", "HTTP_PORT", "DATABASE_URL", "POOL_APR_AVERAGING",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DataSourceMode != domain.ModeReal {
		t.Errorf("DataSourceMode = %q, want real", cfg.DataSourceMode)
	}
	if cfg.PriceTTL != 10*time.Second {
		t.Errorf("PriceTTL = %v, want 10s", cfg.PriceTTL)
	}
	if cfg.PriceBatchSize != 10 {
		t.Errorf("PriceBatchSize = %d, want 10", cfg.PriceBatchSize)
	}
	if !slices.Equal(cfg.PriceProviders, []string{"jupiter", "birdeye", "coingecko"}) {
		t.Errorf("PriceProviders = %v, want jupiter,birdeye,coingecko", cfg.PriceProviders)
	}
	if len(cfg.PriceWatchlist) != len(domain.MajorMints()) {
		t.Errorf("len(PriceWatchlist) = %d, want %d", len(cfg.PriceWatchlist), len(domain.MajorMints()))
	}
	if cfg.PositionUpdateInterval != 30*time.Second {
		t.Errorf("PositionUpdateInterval = %v, want 30s", cfg.PositionUpdateInterval)
	}
	if cfg.DailyArchiveAt != (ClockTime{Hour: 8}) {
		t.Errorf("DailyArchiveAt = %s, want 08:00", cfg.DailyArchiveAt)
	}
	if cfg.APRAveraging != "legacy" {
		t.Errorf("APRAveraging = %q, want legacy", cfg.APRAveraging)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATA_SOURCE_MODE", "synthetic")
	t.Setenv("PRICE_TTL", "30s")
	t.Setenv("PRICE_PROVIDERS", "birdeye, jupiter,")
	t.Setenv("DAILY_ARCHIVE_AT", "23:15")
	t.Setenv("SYNTHETIC_ONLY", "true")
	t.Setenv("PROVIDER_RATE_LIMIT", "2.5")
	t.Setenv("HTTP_PORT", "9090")

	cfg := Load()

	if cfg.DataSourceMode != domain.ModeSynthetic {
		t.Errorf("DataSourceMode = %q, want synthetic", cfg.DataSourceMode)
	}
	if cfg.PriceTTL != 30*time.Second {
		t.Errorf("PriceTTL = %v, want 30s", cfg.PriceTTL)
	}
	if !slices.Equal(cfg.PriceProviders, []string{"birdeye", "jupiter"}) {
		t.Errorf("PriceProviders = %v, want [birdeye jupiter]", cfg.PriceProviders)
	}
	if cfg.DailyArchiveAt != (ClockTime{Hour: 23, Minute: 15}) {
		t.Errorf("DailyArchiveAt = %s, want 23:15", cfg.DailyArchiveAt)
	}
	if !cfg.SyntheticOnly {
		t.Error("SyntheticOnly = false, want true")
	}
	if cfg.ProviderRateLimit != 2.5 {
		t.Errorf("ProviderRateLimit = %v, want 2.5", cfg.ProviderRateLimit)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
}

func TestLoadLegacyMockFlag(t *testing.T) {
	t.Setenv("DATA_SOURCE_MODE", "")
	os.Unsetenv("DATA_SOURCE_MODE")
	t.Setenv("ENABLE_MOCK_DATA", "true")

	cfg := Load()

	if cfg.DataSourceMode != domain.ModeSynthetic {
		t.Errorf("DataSourceMode = %q, want synthetic from ENABLE_MOCK_DATA", cfg.DataSourceMode)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("PRICE_BATCH_SIZE", "not-a-number")
	t.Setenv("PRICE_TTL", "invalid-duration")
	t.Setenv("DATA_SOURCE_MODE", "sometimes")
	t.Setenv("DAILY_ARCHIVE_AT", "8 o'clock")
	t.Setenv("SYNTHETIC_ONLY", "maybe")

	cfg := Load()

	if cfg.PriceBatchSize != 10 {
		t.Errorf("PriceBatchSize = %d, want default 10 on invalid input", cfg.PriceBatchSize)
	}
	if cfg.PriceTTL != 10*time.Second {
		t.Errorf("PriceTTL = %v, want default 10s on invalid input", cfg.PriceTTL)
	}
	if cfg.DataSourceMode != domain.ModeReal {
		t.Errorf("DataSourceMode = %q, want default real on invalid input", cfg.DataSourceMode)
	}
	if cfg.DailyArchiveAt != (ClockTime{Hour: 8}) {
		t.Errorf("DailyArchiveAt = %s, want default 08:00 on invalid input", cfg.DailyArchiveAt)
	}
	if cfg.SyntheticOnly {
		t.Error("SyntheticOnly = true, want default false on invalid input")
	}
}
