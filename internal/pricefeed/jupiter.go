package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Jupiter fetches prices from the Jupiter price API.
type Jupiter struct {
	baseURL string
	getter  *Getter
}

// NewJupiter creates a Jupiter client. baseURL is e.g. "https://api.jup.ag/price/v2".
func NewJupiter(baseURL string, getter *Getter) *Jupiter {
	return &Jupiter{baseURL: baseURL, getter: getter}
}

func (j *Jupiter) Source() domain.PriceSource { return domain.SourceJupiter }

// Parse: {"data":{"<mint>":{"id":"<mint>","price":"95.42"}}}; price may be a string or a number.
type jupiterResponse struct {
	Data map[string]*struct {
		ID    string           `json:"id"`
		Price *decimal.Decimal `json:"price"`
	} `json:"data"`
}

// FetchPrice returns the USD price of mint.
func (j *Jupiter) FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error) {
	u := fmt.Sprintf("%s?ids=%s", j.baseURL, url.QueryEscape(mint))

	var resp jupiterResponse
	if err := j.getter.GetJSON(ctx, u, nil, &resp); err != nil {
		return domain.TokenPrice{}, fmt.Errorf("jupiter: %w", err)
	}

	entry := resp.Data[mint]
	if entry == nil || entry.Price == nil || !entry.Price.IsPositive() {
		return domain.TokenPrice{}, fmt.Errorf("jupiter %s: %w", mint, ErrNoPrice)
	}

	return domain.TokenPrice{
		Mint:      mint,
		Symbol:    domain.SymbolForMint(mint),
		Price:     *entry.Price,
		Source:    domain.SourceJupiter,
		Timestamp: time.Now(),
	}, nil
}
