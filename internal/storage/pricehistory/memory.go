package pricehistory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

// MemoryStore is an in-memory price history store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]core.PriceRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]core.PriceRecord)}
}

// Append adds one record to an asset's series.
func (m *MemoryStore) Append(ctx context.Context, rec core.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.AssetID] = append(m.records[rec.AssetID], rec)
	return nil
}

// Since returns records recorded at or after the cutoff, oldest first.
func (m *MemoryStore) Since(ctx context.Context, assetID string, cutoff time.Time) ([]core.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.PriceRecord
	for _, rec := range m.records[assetID] {
		if rec.RecordedAt.Before(cutoff) {
			continue
		}
		result = append(result, rec)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

// Latest returns the most recent record for an asset.
func (m *MemoryStore) Latest(ctx context.Context, assetID string) (*core.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series := m.records[assetID]
	if len(series) == 0 {
		return nil, core.ErrNoHistory
	}
	latest := series[0]
	for _, rec := range series[1:] {
		if rec.RecordedAt.After(latest.RecordedAt) {
			latest = rec
		}
	}
	return &latest, nil
}

// DeleteOlderThan removes records recorded before the cutoff and
// returns them.
func (m *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]core.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []core.PriceRecord
	for id, series := range m.records {
		var kept []core.PriceRecord
		for _, rec := range series {
			if rec.RecordedAt.Before(cutoff) {
				removed = append(removed, rec)
			} else {
				kept = append(kept, rec)
			}
		}
		if len(kept) == 0 {
			delete(m.records, id)
		} else {
			m.records[id] = kept
		}
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
