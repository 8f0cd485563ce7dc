package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mtlprog/lpmon/internal/archive"
	"github.com/mtlprog/lpmon/internal/config"
	"github.com/mtlprog/lpmon/internal/database"
	"github.com/mtlprog/lpmon/internal/export"
	"github.com/mtlprog/lpmon/internal/fee"
	"github.com/mtlprog/lpmon/internal/portfolio"
	"github.com/mtlprog/lpmon/internal/position"
	"github.com/mtlprog/lpmon/internal/price"
	"github.com/mtlprog/lpmon/internal/pricefeed"
	"github.com/mtlprog/lpmon/internal/store"
	"github.com/mtlprog/lpmon/internal/wallet"
	"github.com/mtlprog/lpmon/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// app holds the wired services shared by every command.
type app struct {
	cfg        config.Config
	wallets    *wallet.Registry
	prices     *price.Service
	positions  *position.Service
	portfolios *portfolio.Service
	store      *store.Memory
	archives   archive.Repository
	hook       worker.AfterArchiveHook // optional
	close      func()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	wallets, err := wallet.Load(cfg.WalletConfig)
	if err != nil {
		return nil, err
	}
	slog.Info("wallets loaded", "total", len(wallets.IDs()), "configured", len(wallets.Configured()))

	getter := pricefeed.NewGetter(cfg.PriceProviderTimeout, cfg.ProviderRateLimit, cfg.ProviderRetryMax, cfg.ProviderRetryBaseDelay)
	clients, err := pricefeed.NewChain(cfg.PriceProviders, pricefeed.Options{
		JupiterURL:    cfg.JupiterURL,
		BirdeyeURL:    cfg.BirdeyeURL,
		BirdeyeAPIKey: cfg.BirdeyeAPIKey,
		CoinGeckoURL:  cfg.CoinGeckoURL,
	}, getter)
	if err != nil {
		return nil, fmt.Errorf("building price providers: %w", err)
	}
	prices := price.NewService(price.Options{
		TTL:             cfg.PriceTTL,
		ProviderTimeout: cfg.PriceProviderTimeout,
		BatchSize:       cfg.PriceBatchSize,
		Mode:            cfg.DataSourceMode,
		SyntheticOnly:   cfg.SyntheticOnly,
	}, lo.Map(clients, func(c pricefeed.Client, _ int) price.Provider { return c })...)

	var reader position.Reader
	if cfg.PositionsURL != "" {
		reader = position.NewIndexerReader(cfg.PositionsURL, getter)
	} else if !cfg.DataSourceMode.AllowsSynthetic() {
		slog.Warn("POSITIONS_API_URL not set, configured wallets will report no positions")
	}
	positions := position.NewService(wallets, cfg.DataSourceMode, reader)

	averaging, err := portfolio.ParseAveraging(cfg.APRAveraging)
	if err != nil {
		return nil, err
	}
	st := store.NewMemory(cfg.StoreSweepInterval)
	portfolios := portfolio.NewService(wallets, positions, fee.NewService(cfg.DataSourceMode), prices, st, portfolio.Options{
		Averaging: averaging,
		CacheTTL:  cfg.PortfolioCacheTTL,
	})

	a := &app{
		cfg:        cfg,
		wallets:    wallets,
		prices:     prices,
		positions:  positions,
		portfolios: portfolios,
		store:      st,
		close:      func() {},
	}

	if err := a.openArchives(ctx); err != nil {
		return nil, err
	}
	if err := a.openSheets(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openArchives uses postgres when DATABASE_URL is set and keeps archives in memory otherwise.
func (a *app) openArchives(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, daily archives are kept in memory")
		a.archives = archive.NewMemoryRepository()
		return nil
	}

	pool, err := database.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return fmt.Errorf("running migrations: %w", err)
	}

	a.archives = archive.NewPgRepository(pool)
	a.close = pool.Close
	return nil
}

func (a *app) openSheets(ctx context.Context) error {
	if a.cfg.GoogleSheetsID == "" || a.cfg.GoogleCredentialsJSON == "" {
		return nil
	}
	writer, err := export.NewSheetsWriter(ctx, a.cfg.GoogleSheetsID, a.cfg.GoogleCredentialsJSON)
	if err != nil {
		return err
	}
	a.hook = export.NewService(a.archives, writer, a.synthetic())
	slog.Info("google sheets export enabled")
	return nil
}

func (a *app) synthetic() bool {
	return a.cfg.DataSourceMode.AllowsSynthetic()
}
