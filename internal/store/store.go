// Package store is the optional key/value store where background tasks
// publish price and portfolio snapshots.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Well-known keys.
const (
	KeyPriceCache      = "price_cache"
	PortfolioKeyPrefix = "portfolio:"
)

// PortfolioKey returns the store key of a wallet's portfolio snapshot.
func PortfolioKey(walletID string) string {
	return PortfolioKeyPrefix + walletID
}

// Store is a TTL key/value store. Writes are best effort for callers.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	DeleteExpired(ctx context.Context) error
}

// Memory is an in-process Store.
type Memory struct {
	c *cache.Cache
}

// NewMemory creates a Memory store that purges expired items every cleanupInterval.
func NewMemory(cleanupInterval time.Duration) *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("store: unexpected value type %T for %s", v, key)
	}
	return b, true, nil
}

// Keys returns the sorted unexpired keys with the given prefix.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) DeleteExpired(_ context.Context) error {
	m.c.DeleteExpired()
	return nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// GetJSON loads key into v. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return true, nil
}
