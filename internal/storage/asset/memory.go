// internal/storage/asset/memory.go
package asset

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mvillard/patrimoine/internal/core"
)

// MemoryRepository is an in-memory asset repository.
type MemoryRepository struct {
	mu     sync.RWMutex
	assets map[string]core.Asset
	order  []string
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		assets: make(map[string]core.Asset),
	}
}

// Save inserts or replaces an asset, assigning a UUID when absent.
func (m *MemoryRepository) Save(ctx context.Context, a *core.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, ok := m.assets[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	m.assets[a.ID] = *a
	return nil
}

// GetByID retrieves an asset by ID.
func (m *MemoryRepository) GetByID(ctx context.Context, id string) (*core.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assets[id]
	if !ok {
		return nil, core.ErrAssetNotFound
	}
	return &a, nil
}

// ListTrackable returns active assets eligible for automatic refresh,
// in insertion order.
func (m *MemoryRepository) ListTrackable(ctx context.Context) ([]core.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Asset
	for _, id := range m.order {
		a := m.assets[id]
		if !a.Active || !a.Type.IsTrackable() {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

// UpdateValuation writes the cached valuation fields by ID.
func (m *MemoryRepository) UpdateValuation(ctx context.Context, id string, v Valuation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assets[id]
	if !ok {
		return core.ErrAssetNotFound
	}
	a.CurrentPrice = v.CurrentPrice
	a.TotalValue = v.TotalValue
	a.TotalGain = v.TotalGain
	a.TotalGainPercent = v.TotalGainPercent
	a.LastPriceUpdate = v.LastPriceUpdate
	m.assets[id] = a
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
