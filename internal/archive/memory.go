package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mtlprog/lpmon/internal/domain"
)

// MemoryRepository keeps archives in process. It backs the monitor when no
// database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int
	records map[string][]Record
	now     func() time.Time
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[string][]Record{}, now: time.Now}
}

func (m *MemoryRepository) Save(_ context.Context, date time.Time, p domain.WalletLPPortfolio, synthetic bool) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling archive for %s: %w", p.WalletAddress, err)
	}
	date = truncateDay(date)

	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[p.WalletAddress]
	for i := range recs {
		if recs[i].ArchiveDate.Equal(date) {
			recs[i].Data = data
			recs[i].Synthetic = synthetic
			return nil
		}
	}
	m.nextID++
	recs = append(recs, Record{
		ID:          m.nextID,
		WalletID:    p.WalletAddress,
		ArchiveDate: date,
		Synthetic:   synthetic,
		Data:        data,
		CreatedAt:   m.now(),
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].ArchiveDate.After(recs[j].ArchiveDate) })
	m.records[p.WalletAddress] = recs
	return nil
}

func (m *MemoryRepository) GetLatest(_ context.Context, walletID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.records[walletID]
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	rec := recs[0]
	return &rec, nil
}

func (m *MemoryRepository) GetByDate(_ context.Context, walletID string, date time.Time) (*Record, error) {
	date = truncateDay(date)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records[walletID] {
		if rec.ArchiveDate.Equal(date) {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) List(_ context.Context, walletID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 30
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.records[walletID]
	return append([]Record(nil), recs[:min(limit, len(recs))]...), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
