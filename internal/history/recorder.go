// Package history manages the price time series recorded alongside
// asset valuations.
package history

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/metrics"
	"github.com/mvillard/patrimoine/internal/storage/archive"
	"github.com/mvillard/patrimoine/internal/storage/pricehistory"
)

// Recorder appends, queries and prunes price history.
type Recorder struct {
	store    pricehistory.Store
	exporter *archive.Exporter
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewRecorder creates a recorder. The exporter and metrics registry
// are optional; without an exporter, pruned records are discarded
// instead of archived.
func NewRecorder(store pricehistory.Store, exporter *archive.Exporter, m *metrics.Registry, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:    store,
		exporter: exporter,
		metrics:  m,
		logger:   logger,
	}
}

// Record appends one price point. Storage failures are logged, never
// propagated: a failed history write must not fail the price update
// that produced it.
func (r *Recorder) Record(ctx context.Context, assetID string, price float64, source string) {
	rec := core.PriceRecord{
		AssetID:    assetID,
		Price:      price,
		Source:     source,
		RecordedAt: time.Now().UTC(),
	}
	if err := r.store.Append(ctx, rec); err != nil {
		r.logger.Warn("failed to record price history",
			zap.String("asset_id", assetID),
			zap.Error(err))
		return
	}
	if r.metrics != nil {
		r.metrics.RecordHistoryWrite()
	}
}

// History returns the records of the last N days, oldest first.
func (r *Recorder) History(ctx context.Context, assetID string, days int) ([]core.PriceRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return r.store.Since(ctx, assetID, cutoff)
}

// Statistics computes summary statistics over the last N days of
// history. Returns core.ErrNoHistory when the window is empty.
func (r *Recorder) Statistics(ctx context.Context, assetID string, days int) (*core.Statistics, error) {
	records, err := r.History(ctx, assetID, days)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNoHistory
	}

	first := records[0].Price
	last := records[len(records)-1].Price

	stats := core.Statistics{
		Current: last,
		Min:     records[0].Price,
		Max:     records[0].Price,
	}
	var sum float64
	for _, rec := range records {
		if rec.Price < stats.Min {
			stats.Min = rec.Price
		}
		if rec.Price > stats.Max {
			stats.Max = rec.Price
		}
		sum += rec.Price
	}
	stats.Avg = sum / float64(len(records))
	if first != 0 {
		stats.ChangePercent = (last - first) / first * 100
	}
	return &stats, nil
}

// Prune removes records older than the retention window, exporting
// them to cold storage when an exporter is configured. Export failures
// are logged, not propagated. Returns the number of removed records.
func (r *Recorder) Prune(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed, err := r.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if r.metrics != nil {
		r.metrics.RecordHistoryPruned(len(removed))
	}

	if r.exporter != nil {
		path, err := r.exporter.Export(ctx, cutoff, removed)
		if err != nil {
			r.logger.Warn("failed to archive pruned history", zap.Error(err))
		} else {
			r.logger.Info("archived pruned history",
				zap.Int("records", len(removed)),
				zap.String("path", path))
		}
	}
	return len(removed), nil
}
