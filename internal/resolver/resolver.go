// Package resolver selects and iterates the provider chain for an
// asset type until one provider returns a usable quote.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/metrics"
	"github.com/mvillard/patrimoine/internal/provider"
	"github.com/mvillard/patrimoine/internal/ratelimit"
	"go.uber.org/zap"
)

// Resolver resolves an authoritative current price for an asset by
// walking its type's provider chain in priority order.
type Resolver struct {
	chains   map[core.AssetType][]provider.Provider
	throttle *ratelimit.Throttle
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// New builds a resolver from a registry. The chain table is fixed at
// construction; provider order within a chain is the fallback order.
// The metrics registry is optional.
func New(reg *Registry, throttle *ratelimit.Throttle, m *metrics.Registry, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		chains:   reg.chains,
		throttle: throttle,
		metrics:  m,
		logger:   logger,
	}
}

// Registry maps each asset type to its ordered provider chain. It is
// the single place fallback order is defined.
type Registry struct {
	chains map[core.AssetType][]provider.Provider
}

// ChainFor looks up providers by name in the provider registry and
// binds them to an asset type, in the given order.
type ChainSpec struct {
	Type      core.AssetType
	Providers []string
}

// DefaultChains is the fixed primary/fallback table. Types absent from
// the table (real estate, cash, artwork, wine, other) have no chain and
// are not automatically priced.
func DefaultChains() []ChainSpec {
	return []ChainSpec{
		{core.AssetCrypto, []string{"COINGECKO", "BINANCE"}},
		{core.AssetStock, []string{"ALPHA_VANTAGE", "YAHOO_FINANCE"}},
		{core.AssetETF, []string{"ALPHA_VANTAGE", "YAHOO_FINANCE"}},
		{core.AssetBond, []string{"ALPHA_VANTAGE", "YAHOO_FINANCE"}},
		{core.AssetFund, []string{"ALPHA_VANTAGE", "YAHOO_FINANCE"}},
		{core.AssetCommodity, []string{"YAHOO_FINANCE"}},
		{core.AssetWatch, []string{"WATCH_MARKET"}},
		{core.AssetCar, []string{"CAR_VALUATION"}},
	}
}

// BuildRegistry resolves chain specs against registered providers.
// Unknown provider names are an error: a typo here would silently
// remove a fallback.
func BuildRegistry(providers *provider.Registry, specs []ChainSpec) (*Registry, error) {
	chains := make(map[core.AssetType][]provider.Provider, len(specs))
	for _, spec := range specs {
		chain := make([]provider.Provider, 0, len(spec.Providers))
		for _, name := range spec.Providers {
			p, ok := providers.Get(name)
			if !ok {
				return nil, core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("chain for %s references unknown provider %s", spec.Type, name))
			}
			chain = append(chain, p)
		}
		chains[spec.Type] = chain
	}
	return &Registry{chains: chains}, nil
}

// Chain returns the provider chain for an asset type.
func (r *Resolver) Chain(t core.AssetType) []provider.Provider {
	return r.chains[t]
}

// Resolve walks the chain for the asset's type: disabled providers are
// skipped without I/O, quota-constrained providers wait on the shared
// throttle, and the first usable quote wins. Transport errors and
// no-data responses both continue the chain; only chain exhaustion is
// an error, and it is reported per-asset, never escalated.
func (r *Resolver) Resolve(ctx context.Context, asset core.Asset) (*core.Quote, error) {
	chain, ok := r.chains[asset.Type]
	if !ok || len(chain) == 0 {
		return nil, core.WrapError(core.ErrNoChain,
			fmt.Errorf("asset type %s is not priced automatically", asset.Type))
	}

	req := core.RequestFor(asset)

	for i, p := range chain {
		if !p.Enabled() {
			r.logger.Debug("skipping disabled provider",
				zap.String("provider", p.Name()),
				zap.String("asset_id", asset.ID),
			)
			continue
		}

		if rl, ok := p.(provider.RateLimited); ok && r.throttle != nil {
			if err := r.throttle.Wait(ctx, rl.RateLimitKey()); err != nil {
				return nil, err
			}
		}

		quote, err := p.FetchPrice(ctx, req)
		if r.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			r.metrics.RecordProviderRequest(p.Name(), status)
		}
		if err != nil {
			if errors.Is(err, core.ErrNoPriceData) {
				r.logger.Warn("provider returned no data",
					zap.String("provider", p.Name()),
					zap.String("asset_id", asset.ID),
					zap.String("symbol", asset.Symbol),
					zap.Error(err),
				)
			} else {
				r.logger.Error("provider request failed",
					zap.String("provider", p.Name()),
					zap.String("asset_id", asset.ID),
					zap.String("symbol", asset.Symbol),
					zap.Error(err),
				)
			}
			continue
		}
		if quote == nil || !quote.IsValid() {
			continue
		}

		if i > 0 && r.metrics != nil {
			r.metrics.RecordFallback(string(asset.Type))
		}
		return quote, nil
	}

	return nil, core.WrapError(core.ErrResolutionExhausted,
		fmt.Errorf("no price available for %s (%s)", asset.ID, asset.Type))
}
