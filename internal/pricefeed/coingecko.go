package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// CoinGecko fetches Solana token prices by contract address.
type CoinGecko struct {
	baseURL string
	getter  *Getter
}

// NewCoinGecko creates a CoinGecko client. baseURL is e.g. "https://api.coingecko.com/api/v3".
func NewCoinGecko(baseURL string, getter *Getter) *CoinGecko {
	return &CoinGecko{baseURL: baseURL, getter: getter}
}

func (c *CoinGecko) Source() domain.PriceSource { return domain.SourceCoinGecko }

// FetchPrice returns the USD price of mint.
func (c *CoinGecko) FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error) {
	u := fmt.Sprintf("%s/simple/token_price/solana?contract_addresses=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(mint))

	// Parse: {"<address>":{"usd":95.42}}
	var raw map[string]map[string]decimal.Decimal
	if err := c.getter.GetJSON(ctx, u, nil, &raw); err != nil {
		return domain.TokenPrice{}, fmt.Errorf("coingecko: %w", err)
	}

	for addr, prices := range raw {
		if !strings.EqualFold(addr, mint) {
			continue
		}
		usd, ok := prices["usd"]
		if !ok || !usd.IsPositive() {
			break
		}
		return domain.TokenPrice{
			Mint:      mint,
			Symbol:    domain.SymbolForMint(mint),
			Price:     usd,
			Source:    domain.SourceCoinGecko,
			Timestamp: time.Now(),
		}, nil
	}

	return domain.TokenPrice{}, fmt.Errorf("coingecko %s: %w", mint, ErrNoPrice)
}
