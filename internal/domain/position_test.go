package domain

import (
	"testing"
)

func asset(symbol, value string) TokenAsset {
	return TokenAsset{Symbol: symbol, Amount: d("1"), Value: d(value)}
}

func TestNewTokenAssetComputesValue(t *testing.T) {
	a := NewTokenAsset(MintSOL, "SOL", 9, d("2"), d("95.42"))
	if !a.Value.Equal(d("190.84")) {
		t.Errorf("Value = %s, want 190.84", a.Value)
	}

	repriced := a.Reprice(d("100"))
	if !repriced.Value.Equal(d("200")) {
		t.Errorf("repriced Value = %s, want 200", repriced.Value)
	}
	if !a.Value.Equal(d("190.84")) {
		t.Error("Reprice mutated the original asset")
	}
}

func TestNeedsPrice(t *testing.T) {
	if !(TokenAsset{Amount: d("1")}).NeedsPrice() {
		t.Error("asset with amount and no price should need a price")
	}
	if (TokenAsset{}).NeedsPrice() {
		t.Error("empty asset should not need a price")
	}
	if (TokenAsset{Amount: d("1"), Price: d("2")}).NeedsPrice() {
		t.Error("priced asset should not need a price")
	}
}

func TestNewFeeEarningsTotals(t *testing.T) {
	fees := NewFeeEarnings(asset("SOL", "4.77"), asset("USDC", "8.5"), asset("SOL", "2.86"), asset("USDC", "5.2"))

	if !fees.ClaimedFees.TotalClaimedValue.Equal(d("13.27")) {
		t.Errorf("TotalClaimedValue = %s, want 13.27", fees.ClaimedFees.TotalClaimedValue)
	}
	if !fees.UnclaimedFees.TotalUnclaimedValue.Equal(d("8.06")) {
		t.Errorf("TotalUnclaimedValue = %s, want 8.06", fees.UnclaimedFees.TotalUnclaimedValue)
	}
	if !fees.TotalFeeValue.Equal(d("21.33")) {
		t.Errorf("TotalFeeValue = %s, want 21.33", fees.TotalFeeValue)
	}
}

func TestEmptyFeeEarnings(t *testing.T) {
	fees := EmptyFeeEarnings()
	if !fees.TotalFeeValue.IsZero() {
		t.Errorf("TotalFeeValue = %s, want 0", fees.TotalFeeValue)
	}
	if fees.ClaimedFees.Token1.Symbol != UnknownSymbol {
		t.Errorf("Token1.Symbol = %q, want %q", fees.ClaimedFees.Token1.Symbol, UnknownSymbol)
	}
}

func TestWithTotals(t *testing.T) {
	p := LPPosition{
		LiquidityAssets: LiquidityAssets{
			Token1: asset("SOL", "501.46"),
			Token2: asset("USDC", "485.75"),
		},
		FeeEarnings: NewFeeEarnings(asset("SOL", "4.77"), asset("USDC", "8.5"), asset("SOL", "2.86"), asset("USDC", "5.2")),
	}

	got := p.WithTotals()
	if !got.LiquidityAssets.TotalLiquidityValue.Equal(d("987.21")) {
		t.Errorf("TotalLiquidityValue = %s, want 987.21", got.LiquidityAssets.TotalLiquidityValue)
	}
	if !got.TotalPositionValue.Equal(d("1008.54")) {
		t.Errorf("TotalPositionValue = %s, want 1008.54", got.TotalPositionValue)
	}

	rewards := NewFarmingRewards(asset("SOL", "0.95"))
	p.FarmingRewards = &rewards
	if got := p.WithTotals(); !got.TotalPositionValue.Equal(d("1009.49")) {
		t.Errorf("TotalPositionValue with rewards = %s, want 1009.49", got.TotalPositionValue)
	}
	if !p.TotalPositionValue.IsZero() {
		t.Error("WithTotals mutated the receiver")
	}
}

func TestPairName(t *testing.T) {
	p := LPPosition{LiquidityAssets: LiquidityAssets{Token1: asset("SOL", "1"), Token2: asset("USDT", "1")}}
	if got := p.PairName(); got != "SOL/USDT" {
		t.Errorf("PairName() = %q, want SOL/USDT", got)
	}
}

func TestPriceRangeInRange(t *testing.T) {
	r := PriceRange{Min: d("85"), Max: d("105"), Current: d("95.42")}
	if !r.InRange() {
		t.Error("95.42 should be within 85-105")
	}
	r.Current = d("110")
	if r.InRange() {
		t.Error("110 should be outside 85-105")
	}
}

func TestParseDataSourceMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DataSourceMode
		wantErr bool
	}{
		{"real", ModeReal, false},
		{"SYNTHETIC", ModeSynthetic, false},
		{"mock", ModeSynthetic, false},
		{"bogus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDataSourceMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDataSourceMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDataSourceMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSymbolForMint(t *testing.T) {
	if got := SymbolForMint(MintSOL); got != "SOL" {
		t.Errorf("SymbolForMint(SOL) = %q", got)
	}
	if got := SymbolForMint("nope"); got != UnknownSymbol {
		t.Errorf("SymbolForMint(nope) = %q, want %q", got, UnknownSymbol)
	}
	if got := len(MajorMints()); got != 8 {
		t.Errorf("len(MajorMints()) = %d, want 8", got)
	}
}
