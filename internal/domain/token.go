package domain

import (
	"github.com/shopspring/decimal"
)

// UnknownSymbol is reported for mints that are not in the token registry.
const UnknownSymbol = "UNKNOWN"

// Well-known Solana mainnet mints.
const (
	MintSOL   = "So11111111111111111111111111111111111111112"
	MintUSDC  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT  = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintMSOL  = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	MintSTSOL = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
	MintBONK  = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintWIF   = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
	MintJUP   = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

// TokenInfo describes a registered token.
type TokenInfo struct {
	Mint     string
	Symbol   string
	Decimals int
}

// majorTokens is ordered; MajorMints preserves this order.
var majorTokens = []TokenInfo{
	{Mint: MintSOL, Symbol: "SOL", Decimals: 9},
	{Mint: MintUSDC, Symbol: "USDC", Decimals: 6},
	{Mint: MintUSDT, Symbol: "USDT", Decimals: 6},
	{Mint: MintMSOL, Symbol: "mSOL", Decimals: 9},
	{Mint: MintSTSOL, Symbol: "stSOL", Decimals: 9},
	{Mint: MintBONK, Symbol: "BONK", Decimals: 5},
	{Mint: MintWIF, Symbol: "WIF", Decimals: 6},
	{Mint: MintJUP, Symbol: "JUP", Decimals: 6},
}

var tokensByMint = func() map[string]TokenInfo {
	m := make(map[string]TokenInfo, len(majorTokens))
	for _, t := range majorTokens {
		m[t.Mint] = t
	}
	return m
}()

// LookupToken returns registry info for a mint.
func LookupToken(mint string) (TokenInfo, bool) {
	t, ok := tokensByMint[mint]
	return t, ok
}

// SymbolForMint returns the registered symbol or UnknownSymbol.
func SymbolForMint(mint string) string {
	if t, ok := tokensByMint[mint]; ok {
		return t.Symbol
	}
	return UnknownSymbol
}

// MajorMints returns the default watch-list used for proactive price warming.
func MajorMints() []string {
	mints := make([]string, len(majorTokens))
	for i, t := range majorTokens {
		mints[i] = t.Mint
	}
	return mints
}

// TokenAsset is an amount of a token together with its USD price and value.
type TokenAsset struct {
	Mint     string          `json:"mint"`
	Symbol   string          `json:"symbol"`
	Decimals int             `json:"decimals"`
	Amount   decimal.Decimal `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
}

// NewTokenAsset builds a TokenAsset with Value = Amount * Price.
func NewTokenAsset(mint, symbol string, decimals int, amount, price decimal.Decimal) TokenAsset {
	return TokenAsset{
		Mint:     mint,
		Symbol:   symbol,
		Decimals: decimals,
		Amount:   amount,
		Price:    price,
		Value:    amount.Mul(price),
	}
}

// Reprice returns a copy of the asset at a new price with the value recomputed.
func (a TokenAsset) Reprice(price decimal.Decimal) TokenAsset {
	a.Price = price
	a.Value = a.Amount.Mul(price)
	return a
}

// Normalize recomputes Value from Amount and Price.
func (a TokenAsset) Normalize() TokenAsset {
	a.Value = a.Amount.Mul(a.Price)
	return a
}

// NeedsPrice reports whether the asset holds a balance but has no price.
func (a TokenAsset) NeedsPrice() bool {
	return a.Amount.IsPositive() && a.Price.IsZero()
}
