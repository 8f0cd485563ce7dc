package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mtlprog/lpmon/internal/domain"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataSourceMode domain.DataSourceMode
	SyntheticOnly  bool
	WalletConfig   string
	APRAveraging   string
	PositionsURL   string

	PriceTTL             time.Duration
	PriceProviderTimeout time.Duration
	PriceBatchSize       int
	PriceProviders       []string
	PriceWatchlist       []string
	PriceSweepAge        time.Duration

	PriceUpdateInterval      time.Duration
	PositionUpdateInterval   time.Duration
	PortfolioRefreshInterval time.Duration
	DataCleanupInterval      time.Duration
	DailyArchiveAt           ClockTime

	PortfolioCacheTTL  time.Duration
	PriceSnapshotTTL   time.Duration
	StoreSweepInterval time.Duration

	JupiterURL             string
	BirdeyeURL             string
	BirdeyeAPIKey          string
	CoinGeckoURL           string
	ProviderRateLimit      float64
	ProviderRetryMax       int
	ProviderRetryBaseDelay time.Duration

	DatabaseURL           string
	GoogleSheetsID        string
	GoogleCredentialsJSON string

	HTTPPort    string
	AdminAPIKey string
	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after applying an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DataSourceMode: envOrDefaultMode("DATA_SOURCE_MODE", domain.ModeReal),
		SyntheticOnly:  envOrDefaultBool("SYNTHETIC_ONLY", false),
		WalletConfig:   envOrDefault("WALLET_CONFIG", "wallet.json"),
		APRAveraging:   envOrDefault("POOL_APR_AVERAGING", "legacy"),
		PositionsURL:   envOrDefault("POSITIONS_API_URL", ""),

		PriceTTL:             envOrDefaultDuration("PRICE_TTL", 10*time.Second),
		PriceProviderTimeout: envOrDefaultDuration("PRICE_PROVIDER_TIMEOUT", 5*time.Second),
		PriceBatchSize:       envOrDefaultInt("PRICE_BATCH_SIZE", 10),
		PriceProviders:       envOrDefaultList("PRICE_PROVIDERS", []string{"jupiter", "birdeye", "coingecko"}),
		PriceWatchlist:       envOrDefaultList("PRICE_WATCHLIST", domain.MajorMints()),
		PriceSweepAge:        envOrDefaultDuration("PRICE_SWEEP_AGE", 10*time.Minute),

		PriceUpdateInterval:      envOrDefaultDuration("PRICE_UPDATE_INTERVAL", 10*time.Second),
		PositionUpdateInterval:   envOrDefaultDuration("POSITION_UPDATE_INTERVAL", 30*time.Second),
		PortfolioRefreshInterval: envOrDefaultDuration("PORTFOLIO_REFRESH_INTERVAL", 5*time.Minute),
		DataCleanupInterval:      envOrDefaultDuration("DATA_CLEANUP_INTERVAL", time.Hour),
		DailyArchiveAt:           envOrDefaultClock("DAILY_ARCHIVE_AT", ClockTime{Hour: 8}),

		PortfolioCacheTTL:  envOrDefaultDuration("PORTFOLIO_CACHE_TTL", 5*time.Minute),
		PriceSnapshotTTL:   envOrDefaultDuration("PRICE_SNAPSHOT_TTL", time.Minute),
		StoreSweepInterval: envOrDefaultDuration("STORE_SWEEP_INTERVAL", 10*time.Minute),

		JupiterURL:             envOrDefault("JUPITER_URL", "https://api.jup.ag/price/v2"),
		BirdeyeURL:             envOrDefault("BIRDEYE_URL", "https://public-api.birdeye.so"),
		BirdeyeAPIKey:          envOrDefault("BIRDEYE_API_KEY", ""),
		CoinGeckoURL:           envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		ProviderRateLimit:      envOrDefaultFloat("PROVIDER_RATE_LIMIT", 5),
		ProviderRetryMax:       envOrDefaultInt("PROVIDER_RETRY_MAX", 2),
		ProviderRetryBaseDelay: envOrDefaultDuration("PROVIDER_RETRY_BASE_DELAY", time.Second),

		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),

		HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey: envOrDefault("ADMIN_API_KEY", ""),
		CORSOrigins: envOrDefaultList("CORS_ORIGINS", []string{"*"}),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// envOrDefaultMode also honours the legacy ENABLE_MOCK_DATA=true switch.
func envOrDefaultMode(key string, defaultVal domain.DataSourceMode) domain.DataSourceMode {
	if v := os.Getenv(key); v != "" {
		m, err := domain.ParseDataSourceMode(v)
		if err != nil {
			slog.Warn("invalid data source mode, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return m
	}
	if envOrDefaultBool("ENABLE_MOCK_DATA", false) {
		return domain.ModeSynthetic
	}
	return defaultVal
}

func envOrDefaultClock(key string, defaultVal ClockTime) ClockTime {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		slog.Warn("invalid time of day env var, using default", "key", key, "value", v, "default", defaultVal.String())
		return defaultVal
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}
