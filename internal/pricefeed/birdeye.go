package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Birdeye fetches prices from the Birdeye public API.
type Birdeye struct {
	baseURL string
	apiKey  string
	getter  *Getter
}

// NewBirdeye creates a Birdeye client. baseURL is e.g. "https://public-api.birdeye.so".
func NewBirdeye(baseURL, apiKey string, getter *Getter) *Birdeye {
	return &Birdeye{baseURL: baseURL, apiKey: apiKey, getter: getter}
}

func (b *Birdeye) Source() domain.PriceSource { return domain.SourceBirdeye }

type birdeyeResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Value          *decimal.Decimal `json:"value"`
		UpdateUnixTime int64            `json:"updateUnixTime"`
	} `json:"data"`
}

// FetchPrice returns the USD price of mint.
func (b *Birdeye) FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error) {
	u := fmt.Sprintf("%s/defi/price?address=%s", b.baseURL, url.QueryEscape(mint))
	headers := map[string]string{
		"X-API-KEY": b.apiKey,
		"x-chain":   "solana",
	}

	var resp birdeyeResponse
	if err := b.getter.GetJSON(ctx, u, headers, &resp); err != nil {
		return domain.TokenPrice{}, fmt.Errorf("birdeye: %w", err)
	}

	if !resp.Success || resp.Data == nil || resp.Data.Value == nil || !resp.Data.Value.IsPositive() {
		return domain.TokenPrice{}, fmt.Errorf("birdeye %s: %w", mint, ErrNoPrice)
	}

	return domain.TokenPrice{
		Mint:      mint,
		Symbol:    domain.SymbolForMint(mint),
		Price:     *resp.Data.Value,
		Source:    domain.SourceBirdeye,
		Timestamp: time.Now(),
	}, nil
}
