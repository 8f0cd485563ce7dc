// Package fixture holds the deterministic LP data served when a wallet is not
// configured or the monitor runs in synthetic mode.
package fixture

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Devnet stablecoin mints used by the fixture pools.
const (
	MintDevnetUSDC = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
	MintDevnetUSDT = "EgQ3yNtVhJzt9VBoPKvPwdYuaq7fFWKUwB8Rbpg2dEJV"
)

// Position keys of the fixture set.
const (
	PositionSOLUSDC = "mock-position-1"
	PositionSOLUSDT = "mock-position-2"
)

// asset builds a TokenAsset with a pre-rounded value. Values are kept as
// published rather than recomputed from amount*price.
func asset(mint, symbol string, decimals int, amount, price, value string) domain.TokenAsset {
	return domain.TokenAsset{
		Mint:     mint,
		Symbol:   symbol,
		Decimals: decimals,
		Amount:   decimal.RequireFromString(amount),
		Price:    decimal.RequireFromString(price),
		Value:    decimal.RequireFromString(value),
	}
}

func sol(amount, value string) domain.TokenAsset {
	return asset(domain.MintSOL, "SOL", 9, amount, "95.42", value)
}

func usdc(amount string) domain.TokenAsset {
	return asset(MintDevnetUSDC, "USDC", 6, amount, "1.0", amount)
}

func usdt(amount, value string) domain.TokenAsset {
	return asset(MintDevnetUSDT, "USDT", 6, amount, "0.9998", value)
}

// FeeEarnings returns the fixture fees for a position key. Keys containing
// "1" map to the SOL/USDC fixture, anything else to SOL/USDT.
func FeeEarnings(positionKey string) domain.FeeEarnings {
	if strings.Contains(positionKey, "1") {
		return domain.NewFeeEarnings(
			sol("0.05", "4.77"), usdc("8.5"),
			sol("0.03", "2.86"), usdc("5.2"),
		)
	}
	return domain.NewFeeEarnings(
		sol("0.02", "1.91"), usdt("3.2", "3.20"),
		sol("0.015", "1.43"), usdt("2.8", "2.80"),
	)
}

// FarmingRewards returns the fixture reward set.
func FarmingRewards() domain.FarmingRewards {
	return domain.NewFarmingRewards(sol("0.01", "0.95"))
}

// Positions returns the two fixture positions stamped with now.
func Positions(now time.Time) []domain.LPPosition {
	return []domain.LPPosition{
		domain.LPPosition{
			PoolAddress: "mock-pool-sol-usdc",
			PositionKey: PositionSOLUSDC,
			LiquidityAssets: domain.LiquidityAssets{
				Token1: sol("5.25", "501.46"),
				Token2: usdc("485.75"),
			},
			FeeEarnings: FeeEarnings(PositionSOLUSDC),
			PriceRange: domain.PriceRange{
				Min:     decimal.NewFromInt(85),
				Max:     decimal.NewFromInt(105),
				Current: decimal.RequireFromString("95.42"),
			},
			IsActive:    true,
			APR:         decimal.RequireFromString("18.5"),
			LastUpdated: now,
		}.WithTotals(),
		domain.LPPosition{
			PoolAddress: "mock-pool-sol-usdt",
			PositionKey: PositionSOLUSDT,
			LiquidityAssets: domain.LiquidityAssets{
				Token1: sol("2.1", "200.38"),
				Token2: usdt("195.5", "195.46"),
			},
			FeeEarnings: FeeEarnings(PositionSOLUSDT),
			PriceRange: domain.PriceRange{
				Min:     decimal.NewFromInt(90),
				Max:     decimal.NewFromInt(100),
				Current: decimal.RequireFromString("95.42"),
			},
			IsActive:    true,
			APR:         decimal.RequireFromString("22.3"),
			LastUpdated: now,
		}.WithTotals(),
	}
}
