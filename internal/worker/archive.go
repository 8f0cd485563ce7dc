package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/lpmon/internal/domain"
)

// ArchiveSaver persists one wallet's portfolio for a day.
type ArchiveSaver interface {
	Save(ctx context.Context, date time.Time, p domain.WalletLPPortfolio, synthetic bool) error
}

// AfterArchiveHook is called with every portfolio archived in one run.
type AfterArchiveHook interface {
	Export(ctx context.Context, date time.Time, portfolios []domain.WalletLPPortfolio) error
}

// Archiver rebuilds every configured wallet and saves a daily archive.
type Archiver struct {
	wallets    WalletLister
	portfolios PortfolioBuilder
	repo       ArchiveSaver
	synthetic  bool
	hook       AfterArchiveHook // optional
	today      func() time.Time
}

// NewArchiver creates an Archiver with an optional post-archive hook.
func NewArchiver(wallets WalletLister, portfolios PortfolioBuilder, repo ArchiveSaver, synthetic bool, hook AfterArchiveHook) *Archiver {
	return &Archiver{
		wallets:    wallets,
		portfolios: portfolios,
		repo:       repo,
		synthetic:  synthetic,
		hook:       hook,
		today:      utcDate,
	}
}

// Run archives wallets one after another. It fails only when no wallet could be archived.
func (a *Archiver) Run(ctx context.Context) error {
	ids := a.wallets.Configured()
	date := a.today()

	archived := make([]domain.WalletLPPortfolio, 0, len(ids))
	var lastErr error
	for _, id := range ids {
		p, err := a.portfolios.GetWalletPortfolio(ctx, id)
		if err != nil {
			slog.Error("Archiver: portfolio build failed", "wallet", id, "error", err)
			lastErr = err
			continue
		}
		if err := a.repo.Save(ctx, date, p, a.synthetic); err != nil {
			slog.Error("Archiver: save failed", "wallet", id, "error", err)
			lastErr = err
			continue
		}
		archived = append(archived, p)
	}

	slog.Info("Archiver: daily archive completed", "date", date.Format(time.DateOnly),
		"summary", formatRatio(len(archived), len(ids)))
	a.runHook(ctx, date, archived)

	if len(archived) == 0 && lastErr != nil {
		return fmt.Errorf("archiving %d wallets: %w", len(ids), lastErr)
	}
	return nil
}

// runHook calls the post-archive hook if one is configured.
func (a *Archiver) runHook(ctx context.Context, date time.Time, portfolios []domain.WalletLPPortfolio) {
	if a.hook == nil || len(portfolios) == 0 {
		return
	}
	if err := a.hook.Export(ctx, date, portfolios); err != nil {
		slog.Error("Archiver: export hook failed", "error", err)
	} else {
		slog.Info("Archiver: export hook completed")
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
