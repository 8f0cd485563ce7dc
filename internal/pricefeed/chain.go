package pricefeed

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtlprog/lpmon/internal/domain"
)

// Client is a single market-data price source.
type Client interface {
	Source() domain.PriceSource
	FetchPrice(ctx context.Context, mint string) (domain.TokenPrice, error)
}

// Options carries endpoint settings for every supported provider.
type Options struct {
	JupiterURL    string
	BirdeyeURL    string
	BirdeyeAPIKey string
	CoinGeckoURL  string
}

// NewChain builds providers in the given priority order. Unknown names are an error.
func NewChain(names []string, opts Options, getter *Getter) ([]Client, error) {
	clients := make([]Client, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		seen[name] = true

		switch domain.PriceSource(name) {
		case domain.SourceJupiter:
			clients = append(clients, NewJupiter(opts.JupiterURL, getter))
		case domain.SourceBirdeye:
			clients = append(clients, NewBirdeye(opts.BirdeyeURL, opts.BirdeyeAPIKey, getter))
		case domain.SourceCoinGecko:
			clients = append(clients, NewCoinGecko(opts.CoinGeckoURL, getter))
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	return clients, nil
}
