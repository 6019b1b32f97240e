package provider

import (
	"context"

	"github.com/mvillard/patrimoine/internal/core"
)

// Provider defines the interface for external price sources.
//
// A disabled provider must be skipped by callers without any network
// I/O. FetchPrice returns core.ErrNoPriceData when the source is
// reachable but has no usable quote for the request; transport and
// decoding failures surface as ordinary errors and are treated the
// same way by the resolver.
type Provider interface {
	// Name returns the provider identifier used in quote sources
	// and search result tags.
	Name() string

	// Enabled reports whether the provider is configured for use.
	Enabled() bool

	// AssetTypes returns the asset types this provider can quote.
	AssetTypes() []core.AssetType

	// FetchPrice resolves a current price for the request.
	FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error)

	// Search finds assets matching a free-text query.
	Search(ctx context.Context, query string) ([]core.SearchResult, error)
}

// RateLimited is implemented by providers whose outbound calls must be
// throttled; the resolver waits on the shared limiter before each call.
type RateLimited interface {
	RateLimitKey() string
}
