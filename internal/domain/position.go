package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimedFees holds fees already withdrawn from the position.
type ClaimedFees struct {
	Token1            TokenAsset      `json:"token1"`
	Token2            TokenAsset      `json:"token2"`
	TotalClaimedValue decimal.Decimal `json:"totalClaimedValue"`
}

// UnclaimedFees are fees accrued by a position and not yet withdrawn.
type UnclaimedFees struct {
	Token1              TokenAsset      `json:"token1"`
	Token2              TokenAsset      `json:"token2"`
	TotalUnclaimedValue decimal.Decimal `json:"totalUnclaimedValue"`
}

// FeeEarnings describes claimed and unclaimed trading fees of a position.
type FeeEarnings struct {
	ClaimedFees   ClaimedFees     `json:"claimedFees"`
	UnclaimedFees UnclaimedFees   `json:"unclaimedFees"`
	TotalFeeValue decimal.Decimal `json:"totalFeeValue"`
}

// NewFeeEarnings builds FeeEarnings with all totals derived from the token legs.
func NewFeeEarnings(claimed1, claimed2, unclaimed1, unclaimed2 TokenAsset) FeeEarnings {
	claimed := claimed1.Value.Add(claimed2.Value)
	unclaimed := unclaimed1.Value.Add(unclaimed2.Value)
	return FeeEarnings{
		ClaimedFees: ClaimedFees{
			Token1:            claimed1,
			Token2:            claimed2,
			TotalClaimedValue: claimed,
		},
		UnclaimedFees: UnclaimedFees{
			Token1:              unclaimed1,
			Token2:              unclaimed2,
			TotalUnclaimedValue: unclaimed,
		},
		TotalFeeValue: claimed.Add(unclaimed),
	}
}

// EmptyFeeEarnings is the zero-value shape returned when fees are unavailable.
func EmptyFeeEarnings() FeeEarnings {
	empty := EmptyTokenAsset()
	return NewFeeEarnings(empty, empty, empty, empty)
}

// EmptyTokenAsset is a placeholder leg with no mint and zero amounts.
func EmptyTokenAsset() TokenAsset {
	return TokenAsset{Symbol: UnknownSymbol, Decimals: 6}
}

// FarmingRewards lists reward tokens accrued by a position.
type FarmingRewards struct {
	RewardTokens     []TokenAsset    `json:"rewardTokens"`
	TotalRewardValue decimal.Decimal `json:"totalRewardValue"`
}

// NewFarmingRewards sums the reward token values.
func NewFarmingRewards(tokens ...TokenAsset) FarmingRewards {
	return FarmingRewards{
		RewardTokens:     append([]TokenAsset{}, tokens...),
		TotalRewardValue: SumValues(tokens),
	}
}

// LiquidityAssets are the two tokens deposited in a position.
type LiquidityAssets struct {
	Token1              TokenAsset      `json:"token1"`
	Token2              TokenAsset      `json:"token2"`
	TotalLiquidityValue decimal.Decimal `json:"totalLiquidityValue"`
}

// PriceRange is the position's active range and the pool's current price.
type PriceRange struct {
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	Current decimal.Decimal `json:"current"`
}

// InRange reports whether the current price sits inside [Min, Max].
func (r PriceRange) InRange() bool {
	return r.Current.GreaterThanOrEqual(r.Min) && r.Current.LessThanOrEqual(r.Max)
}

// LPPosition is one liquidity position with its fees and rewards.
type LPPosition struct {
	PoolAddress        string          `json:"poolAddress"`
	PositionKey        string          `json:"positionKey"`
	LiquidityAssets    LiquidityAssets `json:"liquidityAssets"`
	FeeEarnings        FeeEarnings     `json:"feeEarnings"`
	FarmingRewards     *FarmingRewards `json:"farmingRewards,omitempty"`
	PriceRange         PriceRange      `json:"priceRange"`
	TotalPositionValue decimal.Decimal `json:"totalPositionValue"`
	IsActive           bool            `json:"isActive"`
	APR                decimal.Decimal `json:"apr"`
	LastUpdated        time.Time       `json:"lastUpdated"`
}

// RewardValue returns the farming reward value, or zero without rewards.
func (p LPPosition) RewardValue() decimal.Decimal {
	if p.FarmingRewards == nil {
		return decimal.Zero
	}
	return p.FarmingRewards.TotalRewardValue
}

// WithTotals returns a copy with TotalLiquidityValue and TotalPositionValue recomputed.
func (p LPPosition) WithTotals() LPPosition {
	p.LiquidityAssets.TotalLiquidityValue = p.LiquidityAssets.Token1.Value.Add(p.LiquidityAssets.Token2.Value)
	p.TotalPositionValue = p.LiquidityAssets.TotalLiquidityValue.
		Add(p.FeeEarnings.TotalFeeValue).
		Add(p.RewardValue())
	return p
}

// PairName is the ordered "SYM1/SYM2" key of the position's pool.
func (p LPPosition) PairName() string {
	return p.LiquidityAssets.Token1.Symbol + "/" + p.LiquidityAssets.Token2.Symbol
}
