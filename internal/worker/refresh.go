package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/metrics"
)

// PortfolioBuilder builds (and caches) a wallet's portfolio.
type PortfolioBuilder interface {
	GetWalletPortfolio(ctx context.Context, walletID string) (domain.WalletLPPortfolio, error)
}

// WalletLister lists the wallets with usable keys.
type WalletLister interface {
	Configured() []string
}

// WalletRefresher rebuilds every configured wallet's portfolio concurrently.
type WalletRefresher struct {
	wallets    WalletLister
	portfolios PortfolioBuilder
}

// NewWalletRefresher creates a WalletRefresher.
func NewWalletRefresher(wallets WalletLister, portfolios PortfolioBuilder) *WalletRefresher {
	return &WalletRefresher{wallets: wallets, portfolios: portfolios}
}

// Run refreshes all configured wallets. Individual failures are counted, not returned.
func (w *WalletRefresher) Run(ctx context.Context) error {
	ids := w.wallets.Configured()
	if len(ids) == 0 {
		slog.Debug("WalletRefresher: no configured wallets")
		return nil
	}

	results := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			_, err := w.portfolios.GetWalletPortfolio(ctx, id)
			metrics.WalletRefreshes.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				slog.Warn("WalletRefresher: refresh failed", "wallet", id, "error", err)
			}
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		}
	}
	slog.Info("WalletRefresher: refresh completed", "succeeded", ok, "total", len(ids),
		"summary", formatRatio(ok, len(ids)))
	return nil
}
