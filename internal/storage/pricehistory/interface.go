// Package pricehistory stores the append-only price time series kept
// for trackable assets.
package pricehistory

import (
	"context"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

// Store persists price records for assets.
type Store interface {
	// Append adds one record to an asset's series.
	Append(ctx context.Context, rec core.PriceRecord) error

	// Since returns the records for an asset recorded at or after the
	// cutoff, ordered oldest first.
	Since(ctx context.Context, assetID string, cutoff time.Time) ([]core.PriceRecord, error)

	// Latest returns the most recent record for an asset, or
	// core.ErrNoHistory when the series is empty.
	Latest(ctx context.Context, assetID string) (*core.PriceRecord, error)

	// DeleteOlderThan removes every record recorded before the cutoff
	// and returns the removed records.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]core.PriceRecord, error)
}
