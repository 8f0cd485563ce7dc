package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/metrics"
	"github.com/mtlprog/lpmon/internal/store"
	"github.com/mtlprog/lpmon/internal/wallet"
)

// ErrPositionNotFound is returned when a wallet holds no position in the requested pool.
var ErrPositionNotFound = errors.New("position not found")

const defaultCacheTTL = 5 * time.Minute

// WalletValidator checks that a wallet ID may be aggregated.
type WalletValidator interface {
	Validate(id string) error
}

// PositionProvider lists the raw positions of a wallet.
type PositionProvider interface {
	GetWalletPositions(ctx context.Context, walletID string) ([]domain.LPPosition, error)
}

// FeeProvider computes fees and rewards per position. It reports unavailable
// data as the zero-value shape rather than an error.
type FeeProvider interface {
	CalculatePositionFees(ctx context.Context, positionKey string) domain.FeeEarnings
	GetFarmingRewards(ctx context.Context, positionKey string) domain.FarmingRewards
}

// PriceLookup resolves prices for a batch of mints; unpriced mints are absent.
type PriceLookup interface {
	GetPrices(ctx context.Context, mints []string) map[string]domain.TokenPrice
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Averaging Averaging
	CacheTTL  time.Duration
}

// Service builds wallet portfolio snapshots.
type Service struct {
	wallets   WalletValidator
	positions PositionProvider
	fees      FeeProvider
	prices    PriceLookup
	store     store.Store
	opts      Options
	now       func() time.Time
}

// NewService creates a portfolio Service. prices and st may be nil.
func NewService(wallets WalletValidator, positions PositionProvider, fees FeeProvider, prices PriceLookup, st store.Store, opts Options) *Service {
	if opts.Averaging == "" {
		opts.Averaging = AveragingLegacy
	}
	if opts.Averaging == AveragingMean {
		slog.Info("pool APR averaging uses a true running mean; values differ from the legacy (avg + apr) / count fold")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Service{
		wallets:   wallets,
		positions: positions,
		fees:      fees,
		prices:    prices,
		store:     st,
		opts:      opts,
		now:       time.Now,
	}
}

// GetWalletPortfolio builds a fresh snapshot of a wallet's LP positions.
func (s *Service) GetWalletPortfolio(ctx context.Context, walletID string) (domain.WalletLPPortfolio, error) {
	if err := s.wallets.Validate(walletID); err != nil {
		return domain.WalletLPPortfolio{}, err
	}

	positions, err := s.positions.GetWalletPositions(ctx, walletID)
	if err != nil {
		if isValidationError(err) {
			return domain.WalletLPPortfolio{}, err
		}
		slog.Warn("failed to get wallet positions, treating as empty", "wallet", walletID, "error", err)
		positions = nil
	}

	positions = s.enrich(ctx, positions)
	positions = s.reprice(ctx, positions)
	positions = lo.Map(positions, func(pos domain.LPPosition, _ int) domain.LPPosition { return pos.WithTotals() })

	p := domain.WalletLPPortfolio{
		WalletAddress: walletID,
		TotalValue: lo.Reduce(positions, func(acc decimal.Decimal, pos domain.LPPosition, _ int) decimal.Decimal {
			return acc.Add(pos.TotalPositionValue)
		}, decimal.Zero),
		TotalPositions: len(positions),
		TotalUnclaimedFees: lo.Reduce(positions, func(acc decimal.Decimal, pos domain.LPPosition, _ int) decimal.Decimal {
			return acc.Add(pos.FeeEarnings.UnclaimedFees.TotalUnclaimedValue)
		}, decimal.Zero),
		Positions:   positions,
		Summary:     summarize(positions, s.opts.Averaging),
		LastUpdated: s.now(),
	}

	slog.Info("portfolio built", "wallet", walletID, "positions", p.TotalPositions, "totalValue", p.TotalValue.StringFixed(2))
	metrics.PortfolioValue.WithLabelValues(walletID).Set(p.TotalValue.InexactFloat64())
	s.save(ctx, p)
	return p, nil
}

// GetWalletSummary returns the summary of a fresh snapshot.
func (s *Service) GetWalletSummary(ctx context.Context, walletID string) (domain.PortfolioSummary, error) {
	p, err := s.GetWalletPortfolio(ctx, walletID)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}
	return p.Summary, nil
}

// GetUnclaimedFeesSummary regroups a fresh snapshot's unclaimed fees by token and pool.
func (s *Service) GetUnclaimedFeesSummary(ctx context.Context, walletID string) (domain.UnclaimedFeesSummary, error) {
	p, err := s.GetWalletPortfolio(ctx, walletID)
	if err != nil {
		return domain.UnclaimedFeesSummary{}, err
	}
	return unclaimedSummary(p.Positions), nil
}

// GetEarningsStats projects a fresh snapshot's daily earnings over 30 and 365 days.
func (s *Service) GetEarningsStats(ctx context.Context, walletID string) (domain.EarningsProjection, error) {
	p, err := s.GetWalletPortfolio(ctx, walletID)
	if err != nil {
		return domain.EarningsProjection{}, err
	}
	stats := p.Summary.EarningsStats
	return domain.EarningsProjection{
		EarningsStats:            stats,
		EstimatedMonthlyEarnings: stats.EstimatedDailyEarnings.Mul(decimal.NewFromInt(30)),
		EstimatedYearlyEarnings:  stats.EstimatedDailyEarnings.Mul(decimal.NewFromInt(365)),
	}, nil
}

// GetPositionDetails returns the wallet's position in the given pool.
func (s *Service) GetPositionDetails(ctx context.Context, walletID, poolAddress string) (domain.LPPosition, error) {
	p, err := s.GetWalletPortfolio(ctx, walletID)
	if err != nil {
		return domain.LPPosition{}, err
	}
	pos, ok := lo.Find(p.Positions, func(pos domain.LPPosition) bool { return pos.PoolAddress == poolAddress })
	if !ok {
		return domain.LPPosition{}, fmt.Errorf("pool %s in wallet %s: %w", poolAddress, walletID, ErrPositionNotFound)
	}
	return pos, nil
}

// enrich attaches fees and rewards to every position concurrently. A position
// whose enrichment fails keeps its existing fee and reward fields.
func (s *Service) enrich(ctx context.Context, positions []domain.LPPosition) []domain.LPPosition {
	out := make([]domain.LPPosition, len(positions))
	var g errgroup.Group
	for i, pos := range positions {
		g.Go(func() error {
			out[i] = pos
			enriched, err := s.enrichOne(ctx, pos)
			if err != nil {
				slog.Warn("failed to enrich position, keeping it unenriched", "position", pos.PositionKey, "error", err)
				return nil
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) enrichOne(ctx context.Context, pos domain.LPPosition) (enriched domain.LPPosition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fee provider panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return pos, err
	}
	fees := s.fees.CalculatePositionFees(ctx, pos.PositionKey)
	rewards := s.fees.GetFarmingRewards(ctx, pos.PositionKey)
	pos.FeeEarnings = fees
	pos.FarmingRewards = &rewards
	return pos, nil
}

func (s *Service) save(ctx context.Context, p domain.WalletLPPortfolio) {
	if s.store == nil {
		return
	}
	if err := store.SetJSON(ctx, s.store, store.PortfolioKey(p.WalletAddress), p, s.opts.CacheTTL); err != nil {
		slog.Warn("failed to cache portfolio snapshot", "wallet", p.WalletAddress, "error", err)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, wallet.ErrWalletNotFound) ||
		errors.Is(err, wallet.ErrWalletNotConfigured) ||
		errors.Is(err, wallet.ErrInvalidWalletID)
}
