// internal/storage/asset/interface.go
package asset

import (
	"context"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

// Valuation carries the cached fields recomputed after a successful
// price resolution.
type Valuation struct {
	CurrentPrice     float64
	TotalValue       float64
	TotalGain        float64
	TotalGainPercent float64
	LastPriceUpdate  time.Time
}

// Repository defines the asset collaborator surface this core needs.
// Assets are created and soft-deleted elsewhere; this core only reads
// them and writes valuation fields.
type Repository interface {
	// GetByID retrieves an asset by its ID.
	GetByID(ctx context.Context, id string) (*core.Asset, error)

	// ListTrackable returns active assets whose type is in the
	// trackable set. Symbol presence is not checked here; assets
	// that cannot be priced fail per-asset during the update.
	ListTrackable(ctx context.Context) ([]core.Asset, error)

	// UpdateValuation writes the cached valuation fields by ID.
	UpdateValuation(ctx context.Context, id string, v Valuation) error

	// Save inserts or replaces an asset, assigning an ID when absent.
	Save(ctx context.Context, a *core.Asset) error
}
