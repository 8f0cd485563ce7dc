package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/fixture"
	"github.com/mtlprog/lpmon/internal/wallet"
)

// ErrPositionNotFound is returned when no position matches a key.
var ErrPositionNotFound = errors.New("position not found")

// Registry resolves wallet IDs to wallets.
type Registry interface {
	Get(id string) (wallet.Wallet, bool)
	IsConfigured(id string) bool
}

// Service lists the LP positions held by configured wallets.
type Service struct {
	wallets Registry
	mode    domain.DataSourceMode
	reader  Reader
	now     func() time.Time
}

// NewService creates a position Service. reader may be nil, in which case real
// mode yields no positions for configured wallets.
func NewService(wallets Registry, mode domain.DataSourceMode, reader Reader) *Service {
	return &Service{
		wallets: wallets,
		mode:    mode,
		reader:  reader,
		now:     time.Now,
	}
}

// GetWalletPositions returns the positions of a wallet. Unconfigured wallets and
// synthetic mode are served from the fixture set.
func (s *Service) GetWalletPositions(ctx context.Context, walletID string) ([]domain.LPPosition, error) {
	w, ok := s.wallets.Get(walletID)
	if !ok {
		return nil, fmt.Errorf("wallet %q: %w", walletID, wallet.ErrWalletNotFound)
	}

	if !s.wallets.IsConfigured(walletID) {
		slog.Info("wallet not configured, serving mock positions", "wallet", walletID)
		return fixture.Positions(s.now()), nil
	}
	if s.mode.AllowsSynthetic() {
		slog.Info("synthetic mode, serving mock positions", "wallet", walletID)
		return fixture.Positions(s.now()), nil
	}
	if s.reader == nil {
		slog.Debug("no position reader configured", "wallet", walletID)
		return []domain.LPPosition{}, nil
	}

	raw, err := s.reader.ReadPositions(ctx, w.PublicKey)
	if err != nil {
		slog.Warn("failed to read positions, falling back to mock data", "wallet", walletID, "error", err)
		return fixture.Positions(s.now()), nil
	}

	now := s.now()
	positions := lo.Map(raw, func(r RawPosition, _ int) domain.LPPosition {
		return r.normalize(now)
	})
	slog.Debug("read wallet positions", "wallet", walletID, "count", len(positions))
	return positions, nil
}

// GetPositionDetails looks a position up by key. In synthetic mode an unknown
// key resolves to the first fixture position.
func (s *Service) GetPositionDetails(_ context.Context, positionKey string) (domain.LPPosition, error) {
	if !s.mode.AllowsSynthetic() {
		return domain.LPPosition{}, fmt.Errorf("position %q: %w", positionKey, ErrPositionNotFound)
	}
	positions := fixture.Positions(s.now())
	if p, ok := lo.Find(positions, func(p domain.LPPosition) bool { return p.PositionKey == positionKey }); ok {
		return p, nil
	}
	return positions[0], nil
}

// RefreshPositions rereads a wallet's positions and logs the count.
func (s *Service) RefreshPositions(ctx context.Context, walletID string) ([]domain.LPPosition, error) {
	positions, err := s.GetWalletPositions(ctx, walletID)
	if err != nil {
		return nil, err
	}
	slog.Info("refreshed wallet positions", "wallet", walletID, "count", len(positions))
	return positions, nil
}
