// Package valuation recomputes the cached valuation fields of an asset
// after a successful price resolution.
package valuation

import (
	"context"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/storage/asset"
)

// Compute derives the valuation fields for an asset at the given price.
func Compute(a core.Asset, price float64, at time.Time) asset.Valuation {
	totalValue := price * a.Quantity
	invested := a.PurchasePrice * a.Quantity
	totalGain := totalValue - invested

	var gainPercent float64
	if a.PurchasePrice != 0 {
		gainPercent = totalGain / invested * 100
	}

	return asset.Valuation{
		CurrentPrice:     price,
		TotalValue:       totalValue,
		TotalGain:        totalGain,
		TotalGainPercent: gainPercent,
		LastPriceUpdate:  at,
	}
}

// Updater applies resolved quotes to the asset repository.
type Updater struct {
	assets asset.Repository
}

// NewUpdater creates an updater over the given repository.
func NewUpdater(assets asset.Repository) *Updater {
	return &Updater{assets: assets}
}

// Apply recomputes and persists the valuation for the asset from the
// quote, returning the stored valuation.
func (u *Updater) Apply(ctx context.Context, a core.Asset, quote core.Quote) (asset.Valuation, error) {
	v := Compute(a, quote.Price, time.Now().UTC())
	if err := u.assets.UpdateValuation(ctx, a.ID, v); err != nil {
		return asset.Valuation{}, err
	}
	return v, nil
}
