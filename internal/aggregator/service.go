// Package aggregator orchestrates price updates: it resolves current
// prices through the provider chains, recomputes valuations and
// records history.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/history"
	"github.com/mvillard/patrimoine/internal/metrics"
	"github.com/mvillard/patrimoine/internal/provider"
	"github.com/mvillard/patrimoine/internal/provider/catalog"
	"github.com/mvillard/patrimoine/internal/resolver"
	"github.com/mvillard/patrimoine/internal/storage/asset"
	"github.com/mvillard/patrimoine/internal/valuation"
)

// Service is the aggregation entry point used by the API, the CLI and
// the scheduler.
type Service struct {
	assets    asset.Repository
	resolver  *resolver.Resolver
	updater   *valuation.Updater
	history   *history.Recorder
	providers *provider.Registry
	catalog   *catalog.Catalog
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// New creates an aggregation service. The metrics registry is optional.
func New(
	assets asset.Repository,
	res *resolver.Resolver,
	updater *valuation.Updater,
	recorder *history.Recorder,
	providers *provider.Registry,
	cat *catalog.Catalog,
	reg *metrics.Registry,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		assets:    assets,
		resolver:  res,
		updater:   updater,
		history:   recorder,
		providers: providers,
		catalog:   cat,
		metrics:   reg,
		logger:    logger,
	}
}

// UpdateOne refreshes the price of a single asset and returns it with
// its recomputed valuation. Assets that are neither collectible nor
// symbol-bearing cannot be priced and fail immediately.
func (s *Service) UpdateOne(ctx context.Context, assetID string) (*core.Asset, error) {
	a, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if a.Symbol == "" && !a.Type.IsCollectible() {
		return nil, core.WrapError(core.ErrAssetNoSymbol,
			fmt.Errorf("asset %s", a.ID))
	}

	quote, err := s.resolver.Resolve(ctx, *a)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPriceUpdate(string(a.Type), "failed")
		}
		return nil, err
	}

	v, err := s.updater.Apply(ctx, *a, *quote)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordPriceUpdate(string(a.Type), "success")
	}
	s.history.Record(ctx, a.ID, quote.Price, quote.Source)

	s.logger.Info("asset price updated",
		zap.String("asset_id", a.ID),
		zap.String("symbol", a.Symbol),
		zap.Float64("price", quote.Price),
		zap.String("source", quote.Source),
	)

	a.CurrentPrice = v.CurrentPrice
	a.TotalValue = v.TotalValue
	a.TotalGain = v.TotalGain
	a.TotalGainPercent = v.TotalGainPercent
	a.LastPriceUpdate = v.LastPriceUpdate
	return a, nil
}

// UpdateMany refreshes a list of assets sequentially. One asset's
// failure never aborts the batch; the report carries every outcome.
func (s *Service) UpdateMany(ctx context.Context, assetIDs []string) (*core.BatchReport, error) {
	report := &core.BatchReport{}
	for _, id := range assetIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		a, err := s.UpdateOne(ctx, id)
		if err != nil {
			report.Add(core.BatchResult{
				AssetID: id,
				Success: false,
				Error:   errorDetail(err),
			})
			continue
		}
		report.Add(core.BatchResult{
			AssetID: id,
			Success: true,
			Price:   a.CurrentPrice,
		})
	}
	return report, nil
}

// UpdateAll refreshes every trackable asset.
func (s *Service) UpdateAll(ctx context.Context) (*core.BatchReport, error) {
	assets, err := s.assets.ListTrackable(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	if s.metrics != nil {
		s.metrics.SetTrackedAssets(len(ids))
	}

	s.logger.Info("starting full price refresh", zap.Int("assets", len(ids)))
	start := time.Now()
	report, err := s.UpdateMany(ctx, ids)
	if report != nil {
		if s.metrics != nil {
			s.metrics.RecordRefreshCycle(time.Since(start).Seconds())
		}
		s.logger.Info("full price refresh finished",
			zap.Int("success", report.Success),
			zap.Int("failed", report.Failed),
			zap.Duration("took", time.Since(start)),
		)
	}
	return report, err
}

// Search fans the query out to every enabled provider able to quote
// the requested type (all enabled providers when typeFilter is empty).
// Provider failures are logged and skipped. When no provider returns
// anything, the static catalog answers instead, so search degrades
// rather than going dark.
func (s *Service) Search(ctx context.Context, query string, typeFilter core.AssetType) ([]core.SearchResult, error) {
	if query == "" {
		return nil, nil
	}

	candidates := s.providers.GetAll()
	if typeFilter != "" {
		candidates = s.providers.ForType(typeFilter)
	}

	var results []core.SearchResult
	for _, p := range candidates {
		if !p.Enabled() {
			continue
		}
		matches, err := p.Search(ctx, query)
		if err != nil {
			s.logger.Warn("provider search failed",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		results = append(results, matches...)
	}

	source := "providers"
	if len(results) == 0 && s.catalog != nil {
		results = s.catalog.SearchType(query, typeFilter)
		source = "catalog"
	}
	if s.metrics != nil {
		s.metrics.RecordSearch(source)
	}
	return results, nil
}

// errorDetail extracts the batch report detail message for an error.
// The no-symbol case keeps its historical wording, which clients match
// on.
func errorDetail(err error) string {
	if errors.Is(err, core.ErrAssetNoSymbol) {
		return "Asset has no symbol"
	}
	var coded *core.Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
