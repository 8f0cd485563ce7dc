package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource identifies where a price came from.
type PriceSource string

const (
	SourceJupiter   PriceSource = "jupiter"
	SourceBirdeye   PriceSource = "birdeye"
	SourceCoinGecko PriceSource = "coingecko"
	// SourceSynthetic marks a generated estimate, never a market quote.
	SourceSynthetic PriceSource = "synthetic"
)

// IsSynthetic reports whether the price is a generated estimate.
func (s PriceSource) IsSynthetic() bool {
	return s == SourceSynthetic
}

// TokenPrice is an immutable USD price observation for a mint.
type TokenPrice struct {
	Mint      string          `json:"mint"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    PriceSource     `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// DataSourceMode selects between live providers and deterministic synthetic data.
type DataSourceMode string

const (
	ModeReal      DataSourceMode = "real"
	ModeSynthetic DataSourceMode = "synthetic"
)

// ParseDataSourceMode parses a mode name; "mock" is accepted as an alias of synthetic.
func ParseDataSourceMode(s string) (DataSourceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real", "live":
		return ModeReal, nil
	case "synthetic", "mock":
		return ModeSynthetic, nil
	default:
		return "", fmt.Errorf("unknown data source mode %q", s)
	}
}

// AllowsSynthetic reports whether synthetic data may be substituted.
func (m DataSourceMode) AllowsSynthetic() bool {
	return m == ModeSynthetic
}
