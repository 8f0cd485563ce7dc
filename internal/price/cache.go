package price

import (
	"maps"
	"sync"
	"time"

	"github.com/mtlprog/lpmon/internal/domain"
)

// DefaultTTL is the freshness window for cached prices.
const DefaultTTL = 10 * time.Second

// CacheStatus classifies cached entries against the TTL at one instant.
type CacheStatus struct {
	Total int `json:"total"`
	Fresh int `json:"fresh"`
	Stale int `json:"stale"`
}

// priceCache maps mint to its latest TokenPrice. Entries are replaced whole.
type priceCache struct {
	mu      sync.RWMutex
	entries map[string]domain.TokenPrice
	ttl     time.Duration
}

func newPriceCache(ttl time.Duration) *priceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &priceCache{
		entries: make(map[string]domain.TokenPrice),
		ttl:     ttl,
	}
}

// fresh iff now - timestamp < ttl.
func (c *priceCache) fresh(p domain.TokenPrice, now time.Time) bool {
	return now.Sub(p.Timestamp) < c.ttl
}

func (c *priceCache) get(mint string, now time.Time) (domain.TokenPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.entries[mint]
	if !ok || !c.fresh(p, now) {
		return domain.TokenPrice{}, false
	}
	return p, true
}

func (c *priceCache) set(p domain.TokenPrice) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[p.Mint] = p
	return len(c.entries)
}

func (c *priceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]domain.TokenPrice)
}

func (c *priceCache) status(now time.Time) CacheStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := CacheStatus{Total: len(c.entries)}
	for _, p := range c.entries {
		if c.fresh(p, now) {
			st.Fresh++
		} else {
			st.Stale++
		}
	}
	return st
}

func (c *priceCache) snapshot() map[string]domain.TokenPrice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.entries)
}

// sweep drops entries older than maxAge and returns how many were removed.
func (c *priceCache) sweep(maxAge time.Duration, now time.Time) (removed, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for mint, p := range c.entries {
		if now.Sub(p.Timestamp) >= maxAge {
			delete(c.entries, mint)
			removed++
		}
	}
	return removed, len(c.entries)
}
