package position

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Reader loads raw on-chain positions for an owner address.
type Reader interface {
	ReadPositions(ctx context.Context, owner string) ([]RawPosition, error)
}

// RawPosition is a position as read from chain, before normalization.
// Fees24h and PoolTVL feed the APR when the source does not report one.
type RawPosition struct {
	domain.LPPosition
	Fees24h decimal.Decimal
	PoolTVL decimal.Decimal
}

func (r RawPosition) normalize(now time.Time) domain.LPPosition {
	p := r.LPPosition
	p.LiquidityAssets.Token1 = fillToken(p.LiquidityAssets.Token1).Normalize()
	p.LiquidityAssets.Token2 = fillToken(p.LiquidityAssets.Token2).Normalize()
	if p.APR.IsZero() {
		p.APR = domain.APR(r.Fees24h, r.PoolTVL)
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = now
	}
	return p.WithTotals()
}

func fillToken(a domain.TokenAsset) domain.TokenAsset {
	if info, ok := domain.LookupToken(a.Mint); ok {
		if a.Symbol == "" {
			a.Symbol = info.Symbol
		}
		if a.Decimals == 0 {
			a.Decimals = info.Decimals
		}
	}
	if a.Symbol == "" {
		a.Symbol = domain.UnknownSymbol
	}
	return a
}

// JSONGetter performs a JSON GET request.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, headers map[string]string, out any) error
}

// IndexerReader reads positions from a DLMM position indexer exposing
// GET {base}/wallets/{owner}/positions.
type IndexerReader struct {
	baseURL string
	getter  JSONGetter
}

// NewIndexerReader creates an IndexerReader.
func NewIndexerReader(baseURL string, getter JSONGetter) *IndexerReader {
	return &IndexerReader{baseURL: strings.TrimSuffix(baseURL, "/"), getter: getter}
}

type indexerResponse struct {
	Positions []indexerPosition `json:"positions"`
}

type indexerPosition struct {
	Address      string           `json:"address"`
	PairAddress  string           `json:"pair_address"`
	MintX        string           `json:"mint_x"`
	MintY        string           `json:"mint_y"`
	AmountX      decimal.Decimal  `json:"amount_x"`
	AmountY      decimal.Decimal  `json:"amount_y"`
	PriceX       decimal.Decimal  `json:"price_x"`
	PriceY       decimal.Decimal  `json:"price_y"`
	LowerPrice   decimal.Decimal  `json:"lower_price"`
	UpperPrice   decimal.Decimal  `json:"upper_price"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Fees24h      decimal.Decimal  `json:"fees_24h"`
	TVL          decimal.Decimal  `json:"liquidity"`
	APR          *decimal.Decimal `json:"apr"`
}

// ReadPositions implements Reader.
func (r *IndexerReader) ReadPositions(ctx context.Context, owner string) ([]RawPosition, error) {
	endpoint := fmt.Sprintf("%s/wallets/%s/positions", r.baseURL, url.PathEscape(owner))

	var resp indexerResponse
	if err := r.getter.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("reading positions for %s: %w", owner, err)
	}

	return lo.Map(resp.Positions, func(ip indexerPosition, _ int) RawPosition {
		pr := domain.PriceRange{Min: ip.LowerPrice, Max: ip.UpperPrice, Current: ip.CurrentPrice}
		p := domain.LPPosition{
			PoolAddress: ip.PairAddress,
			PositionKey: ip.Address,
			LiquidityAssets: domain.LiquidityAssets{
				Token1: domain.TokenAsset{Mint: ip.MintX, Amount: ip.AmountX, Price: ip.PriceX},
				Token2: domain.TokenAsset{Mint: ip.MintY, Amount: ip.AmountY, Price: ip.PriceY},
			},
			FeeEarnings: domain.EmptyFeeEarnings(),
			PriceRange:  pr,
			IsActive:    pr.InRange(),
		}
		if ip.APR != nil {
			p.APR = *ip.APR
		}
		return RawPosition{LPPosition: p, Fees24h: ip.Fees24h, PoolTVL: ip.TVL}
	}), nil
}
