package portfolio

import (
	"context"

	"github.com/samber/lo"

	"github.com/mtlprog/lpmon/internal/domain"
)

// legs returns pointers to every token asset of a position.
func legs(p *domain.LPPosition) []*domain.TokenAsset {
	out := []*domain.TokenAsset{
		&p.LiquidityAssets.Token1,
		&p.LiquidityAssets.Token2,
		&p.FeeEarnings.ClaimedFees.Token1,
		&p.FeeEarnings.ClaimedFees.Token2,
		&p.FeeEarnings.UnclaimedFees.Token1,
		&p.FeeEarnings.UnclaimedFees.Token2,
	}
	if p.FarmingRewards != nil {
		for i := range p.FarmingRewards.RewardTokens {
			out = append(out, &p.FarmingRewards.RewardTokens[i])
		}
	}
	return out
}

// reprice values assets that hold a balance but carry no price, using one
// batched cache lookup. Assets the cache cannot price keep a zero value.
func (s *Service) reprice(ctx context.Context, positions []domain.LPPosition) []domain.LPPosition {
	if s.prices == nil {
		return positions
	}

	var mints []string
	for i := range positions {
		for _, a := range legs(&positions[i]) {
			if a.NeedsPrice() && a.Mint != "" {
				mints = append(mints, a.Mint)
			}
		}
	}
	if len(mints) == 0 {
		return positions
	}

	prices := s.prices.GetPrices(ctx, lo.Uniq(mints))
	out := make([]domain.LPPosition, len(positions))
	for i, p := range positions {
		// Copy the reward slice so the caller's positions are never mutated.
		if p.FarmingRewards != nil {
			r := *p.FarmingRewards
			r.RewardTokens = append([]domain.TokenAsset(nil), r.RewardTokens...)
			p.FarmingRewards = &r
		}
		changed := false
		for _, a := range legs(&p) {
			if !a.NeedsPrice() {
				continue
			}
			if tp, ok := prices[a.Mint]; ok {
				*a = a.Reprice(tp.Price)
				changed = true
			}
		}
		if changed {
			fe := p.FeeEarnings
			p.FeeEarnings = domain.NewFeeEarnings(fe.ClaimedFees.Token1, fe.ClaimedFees.Token2, fe.UnclaimedFees.Token1, fe.UnclaimedFees.Token2)
			if p.FarmingRewards != nil {
				r := domain.NewFarmingRewards(p.FarmingRewards.RewardTokens...)
				p.FarmingRewards = &r
			}
		}
		out[i] = p
	}
	return out
}
