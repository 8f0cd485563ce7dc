package domain

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SumValues adds up the Value of every asset.
func SumValues(assets []TokenAsset) decimal.Decimal {
	return lo.Reduce(assets, func(acc decimal.Decimal, a TokenAsset, _ int) decimal.Decimal {
		return acc.Add(a.Value)
	}, decimal.Zero)
}

// APR annualizes a 24h fee amount against TVL, in percent. Zero TVL yields zero.
func APR(fees24h, tvl decimal.Decimal) decimal.Decimal {
	if tvl.IsZero() {
		return decimal.Zero
	}
	return fees24h.Mul(daysPerYear).Mul(hundred).Div(tvl)
}

// DailyYield is the 24h fee amount as a percentage of TVL. Zero TVL yields zero.
func DailyYield(fees24h, tvl decimal.Decimal) decimal.Decimal {
	if tvl.IsZero() {
		return decimal.Zero
	}
	return fees24h.Mul(hundred).Div(tvl)
}

// DailyEarnings estimates one day of yield on value at the given APR percent.
func DailyEarnings(value, apr decimal.Decimal) decimal.Decimal {
	return value.Mul(apr).Div(daysPerYear.Mul(hundred))
}
