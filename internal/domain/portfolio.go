package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenSources attributes a token's value to where it is held.
type TokenSources struct {
	Liquidity     decimal.Decimal `json:"liquidity"`
	ClaimedFees   decimal.Decimal `json:"claimedFees"`
	UnclaimedFees decimal.Decimal `json:"unclaimedFees"`
	Farming       decimal.Decimal `json:"farming"`
}

// TokenBreakdown aggregates one token symbol across all positions.
type TokenBreakdown struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Sources     TokenSources    `json:"sources"`
}

// PoolBreakdown aggregates all positions sharing a token pair.
type PoolBreakdown struct {
	PositionCount int             `json:"positionCount"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalFees     decimal.Decimal `json:"totalFees"`
	AvgAPR        decimal.Decimal `json:"avgAPR"`
}

// EarningsStats are wallet-wide value and yield totals.
type EarningsStats struct {
	TotalLiquidityValue    decimal.Decimal `json:"totalLiquidityValue"`
	TotalClaimedFees       decimal.Decimal `json:"totalClaimedFees"`
	TotalUnclaimedFees     decimal.Decimal `json:"totalUnclaimedFees"`
	TotalFarmingRewards    decimal.Decimal `json:"totalFarmingRewards"`
	EstimatedDailyEarnings decimal.Decimal `json:"estimatedDailyEarnings"`
}

// PortfolioSummary is derived wholesale from one wallet's position list.
type PortfolioSummary struct {
	TokenBreakdown map[string]TokenBreakdown `json:"tokenBreakdown"`
	PoolBreakdown  map[string]PoolBreakdown  `json:"poolBreakdown"`
	EarningsStats  EarningsStats             `json:"earningsStats"`
}

// WalletLPPortfolio is a consolidated snapshot of a wallet's liquidity positions.
type WalletLPPortfolio struct {
	WalletAddress      string           `json:"walletAddress"`
	TotalValue         decimal.Decimal  `json:"totalValue"`
	TotalPositions     int              `json:"totalPositions"`
	TotalUnclaimedFees decimal.Decimal  `json:"totalUnclaimedFees"`
	Positions          []LPPosition     `json:"positions"`
	Summary            PortfolioSummary `json:"summary"`
	LastUpdated        time.Time        `json:"lastUpdated"`
}

// TokenAmount is an amount and USD value pair.
type TokenAmount struct {
	Amount decimal.Decimal `json:"amount"`
	Value  decimal.Decimal `json:"value"`
}

// PoolUnclaimed is the unclaimed fee value of one pool pair.
type PoolUnclaimed struct {
	Value     decimal.Decimal `json:"value"`
	Positions int             `json:"positions"`
}

// UnclaimedFeesSummary regroups unclaimed fees by token and by pool.
type UnclaimedFeesSummary struct {
	TotalValue decimal.Decimal          `json:"totalValue"`
	ByToken    map[string]TokenAmount   `json:"byToken"`
	ByPool     map[string]PoolUnclaimed `json:"byPool"`
}

// EarningsProjection extends EarningsStats with monthly and yearly estimates.
type EarningsProjection struct {
	EarningsStats
	EstimatedMonthlyEarnings decimal.Decimal `json:"estimatedMonthlyEarnings"`
	EstimatedYearlyEarnings  decimal.Decimal `json:"estimatedYearlyEarnings"`
}
