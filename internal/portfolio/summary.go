package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Averaging selects how a pool's average APR is folded.
type Averaging string

const (
	// AveragingLegacy folds each position as (avg + apr) / count, which is
	// order dependent for pools with three or more positions.
	AveragingLegacy Averaging = "legacy"
	// AveragingMean is the arithmetic mean of position APRs.
	AveragingMean Averaging = "mean"
)

// ParseAveraging parses a POOL_APR_AVERAGING value.
func ParseAveraging(s string) (Averaging, error) {
	switch a := Averaging(s); a {
	case AveragingLegacy, AveragingMean:
		return a, nil
	case "":
		return AveragingLegacy, nil
	default:
		return "", fmt.Errorf("unknown APR averaging %q", s)
	}
}

type tokenSource int

const (
	sourceLiquidity tokenSource = iota
	sourceClaimed
	sourceUnclaimed
	sourceFarming
)

type tokenFold map[string]domain.TokenBreakdown

func (f tokenFold) add(a domain.TokenAsset, src tokenSource) {
	tb := f[a.Symbol]
	tb.TotalAmount = tb.TotalAmount.Add(a.Amount)
	tb.TotalValue = tb.TotalValue.Add(a.Value)
	switch src {
	case sourceLiquidity:
		tb.Sources.Liquidity = tb.Sources.Liquidity.Add(a.Value)
	case sourceClaimed:
		tb.Sources.ClaimedFees = tb.Sources.ClaimedFees.Add(a.Value)
	case sourceUnclaimed:
		tb.Sources.UnclaimedFees = tb.Sources.UnclaimedFees.Add(a.Value)
	case sourceFarming:
		tb.Sources.Farming = tb.Sources.Farming.Add(a.Value)
	}
	f[a.Symbol] = tb
}

// addHeld skips legs with no balance, such as empty fee placeholders.
func (f tokenFold) addHeld(a domain.TokenAsset, src tokenSource) {
	if a.Amount.IsPositive() {
		f.add(a, src)
	}
}

// summarize folds a position list into token and pool breakdowns plus earnings stats.
func summarize(positions []domain.LPPosition, averaging Averaging) domain.PortfolioSummary {
	tokens := tokenFold{}
	pools := map[string]domain.PoolBreakdown{}
	aprSums := map[string]decimal.Decimal{}
	var stats domain.EarningsStats

	for _, p := range positions {
		stats.TotalLiquidityValue = stats.TotalLiquidityValue.Add(p.LiquidityAssets.TotalLiquidityValue)
		stats.TotalClaimedFees = stats.TotalClaimedFees.Add(p.FeeEarnings.ClaimedFees.TotalClaimedValue)
		stats.TotalUnclaimedFees = stats.TotalUnclaimedFees.Add(p.FeeEarnings.UnclaimedFees.TotalUnclaimedValue)
		stats.TotalFarmingRewards = stats.TotalFarmingRewards.Add(p.RewardValue())
		stats.EstimatedDailyEarnings = stats.EstimatedDailyEarnings.Add(domain.DailyEarnings(p.TotalPositionValue, p.APR))

		tokens.add(p.LiquidityAssets.Token1, sourceLiquidity)
		tokens.add(p.LiquidityAssets.Token2, sourceLiquidity)
		tokens.addHeld(p.FeeEarnings.ClaimedFees.Token1, sourceClaimed)
		tokens.addHeld(p.FeeEarnings.ClaimedFees.Token2, sourceClaimed)
		tokens.addHeld(p.FeeEarnings.UnclaimedFees.Token1, sourceUnclaimed)
		tokens.addHeld(p.FeeEarnings.UnclaimedFees.Token2, sourceUnclaimed)
		if p.FarmingRewards != nil {
			for _, r := range p.FarmingRewards.RewardTokens {
				tokens.addHeld(r, sourceFarming)
			}
		}

		pair := p.PairName()
		pb := pools[pair]
		pb.PositionCount++
		pb.TotalValue = pb.TotalValue.Add(p.TotalPositionValue)
		pb.TotalFees = pb.TotalFees.Add(p.FeeEarnings.TotalFeeValue)
		count := decimal.NewFromInt(int64(pb.PositionCount))
		switch averaging {
		case AveragingMean:
			aprSums[pair] = aprSums[pair].Add(p.APR)
			pb.AvgAPR = aprSums[pair].Div(count)
		default:
			pb.AvgAPR = pb.AvgAPR.Add(p.APR).Div(count)
		}
		pools[pair] = pb
	}

	return domain.PortfolioSummary{
		TokenBreakdown: tokens,
		PoolBreakdown:  pools,
		EarningsStats:  stats,
	}
}

// unclaimedSummary regroups unclaimed fees by token symbol and pool pair.
func unclaimedSummary(positions []domain.LPPosition) domain.UnclaimedFeesSummary {
	out := domain.UnclaimedFeesSummary{
		ByToken: map[string]domain.TokenAmount{},
		ByPool:  map[string]domain.PoolUnclaimed{},
	}
	for _, p := range positions {
		unclaimed := p.FeeEarnings.UnclaimedFees

		pool := out.ByPool[p.PairName()]
		pool.Value = pool.Value.Add(unclaimed.TotalUnclaimedValue)
		pool.Positions++
		out.ByPool[p.PairName()] = pool

		for _, t := range []domain.TokenAsset{unclaimed.Token1, unclaimed.Token2} {
			if !t.Amount.IsPositive() {
				continue
			}
			ta := out.ByToken[t.Symbol]
			ta.Amount = ta.Amount.Add(t.Amount)
			ta.Value = ta.Value.Add(t.Value)
			out.ByToken[t.Symbol] = ta
		}

		out.TotalValue = out.TotalValue.Add(unclaimed.TotalUnclaimedValue)
	}
	return out
}
