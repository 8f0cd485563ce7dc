// Package fee computes trading fee and farming reward figures for positions.
package fee

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/fixture"
)

// TotalFees aggregates fee earnings across several positions.
type TotalFees struct {
	TotalClaimedValue   decimal.Decimal               `json:"totalClaimedValue"`
	TotalUnclaimedValue decimal.Decimal               `json:"totalUnclaimedValue"`
	TotalFeeValue       decimal.Decimal               `json:"totalFeeValue"`
	Breakdown           map[string]domain.FeeEarnings `json:"breakdown"`
}

// Service computes per-position fees. Its methods never fail: unavailable data
// is reported with the zero-value shape.
type Service struct {
	mode domain.DataSourceMode
}

// NewService creates a fee Service.
func NewService(mode domain.DataSourceMode) *Service {
	return &Service{mode: mode}
}

// CalculatePositionFees returns the claimed and unclaimed fees of a position.
func (s *Service) CalculatePositionFees(_ context.Context, positionKey string) domain.FeeEarnings {
	if s.mode.AllowsSynthetic() {
		return fixture.FeeEarnings(positionKey)
	}
	// No on-chain fee reader yet; the empty shape keeps totals well defined.
	return domain.EmptyFeeEarnings()
}

// GetFarmingRewards returns the rewards accrued by a position.
func (s *Service) GetFarmingRewards(_ context.Context, _ string) domain.FarmingRewards {
	if s.mode.AllowsSynthetic() {
		return fixture.FarmingRewards()
	}
	return domain.NewFarmingRewards()
}

// CalculateTotalFees computes fees for every key concurrently and sums them.
func (s *Service) CalculateTotalFees(ctx context.Context, positionKeys []string) TotalFees {
	total := TotalFees{Breakdown: make(map[string]domain.FeeEarnings, len(positionKeys))}
	var mu sync.Mutex

	var g errgroup.Group
	for _, key := range positionKeys {
		g.Go(func() error {
			fees := s.CalculatePositionFees(ctx, key)
			mu.Lock()
			total.Breakdown[key] = fees
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, fees := range total.Breakdown {
		total.TotalClaimedValue = total.TotalClaimedValue.Add(fees.ClaimedFees.TotalClaimedValue)
		total.TotalUnclaimedValue = total.TotalUnclaimedValue.Add(fees.UnclaimedFees.TotalUnclaimedValue)
	}
	total.TotalFeeValue = total.TotalClaimedValue.Add(total.TotalUnclaimedValue)
	return total
}
