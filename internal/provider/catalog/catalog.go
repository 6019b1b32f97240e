// Package catalog provides an embedded symbol catalog used as the
// search fallback when every live provider is disabled or failed.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

// SourceName tags results from the embedded catalog.
const SourceName = "FALLBACK_CATALOG"

const maxResults = 10

type entry struct {
	Symbol   string
	Name     string
	Type     core.AssetType
	Region   string
	Currency string
}

var entries = []entry{
	// US large caps
	{"AAPL", "Apple Inc", core.AssetStock, "United States", "USD"},
	{"MSFT", "Microsoft Corporation", core.AssetStock, "United States", "USD"},
	{"GOOGL", "Alphabet Inc Class A", core.AssetStock, "United States", "USD"},
	{"GOOG", "Alphabet Inc Class C", core.AssetStock, "United States", "USD"},
	{"AMZN", "Amazon.com Inc", core.AssetStock, "United States", "USD"},
	{"TSLA", "Tesla Inc", core.AssetStock, "United States", "USD"},
	{"META", "Meta Platforms Inc", core.AssetStock, "United States", "USD"},
	{"NVDA", "NVIDIA Corporation", core.AssetStock, "United States", "USD"},
	{"AMD", "Advanced Micro Devices Inc", core.AssetStock, "United States", "USD"},
	{"INTC", "Intel Corporation", core.AssetStock, "United States", "USD"},
	{"NFLX", "Netflix Inc", core.AssetStock, "United States", "USD"},
	{"PYPL", "PayPal Holdings Inc", core.AssetStock, "United States", "USD"},
	{"SNAP", "Snap Inc", core.AssetStock, "United States", "USD"},
	{"AVGO", "Broadcom Inc", core.AssetStock, "United States", "USD"},
	{"CRM", "Salesforce Inc", core.AssetStock, "United States", "USD"},
	{"ADBE", "Adobe Inc", core.AssetStock, "United States", "USD"},
	{"ORCL", "Oracle Corporation", core.AssetStock, "United States", "USD"},
	{"IBM", "International Business Machines Corp", core.AssetStock, "United States", "USD"},

	// French stocks
	{"MC.PA", "LVMH Moët Hennessy Louis Vuitton", core.AssetStock, "France", "EUR"},
	{"SAF.PA", "Safran SA", core.AssetStock, "France", "EUR"},
	{"TTE.PA", "TotalEnergies SE", core.AssetStock, "France", "EUR"},
	{"BNP.PA", "BNP Paribas SA", core.AssetStock, "France", "EUR"},
	{"SAN.PA", "Sanofi SA", core.AssetStock, "France", "EUR"},

	// ETFs
	{"VOO", "Vanguard S&P 500 ETF", core.AssetETF, "United States", "USD"},
	{"VTI", "Vanguard Total Stock Market ETF", core.AssetETF, "United States", "USD"},
	{"QQQ", "Invesco QQQ Trust ETF", core.AssetETF, "United States", "USD"},
	{"SPY", "SPDR S&P 500 ETF Trust", core.AssetETF, "United States", "USD"},
	{"VXUS", "Vanguard Total International Stock ETF", core.AssetETF, "United States", "USD"},
	{"BND", "Vanguard Total Bond Market ETF", core.AssetETF, "United States", "USD"},
	{"ARKK", "ARK Innovation ETF", core.AssetETF, "United States", "USD"},
	{"SCHD", "Schwab US Dividend Equity ETF", core.AssetETF, "United States", "USD"},
	{"IVV", "iShares Core S&P 500 ETF", core.AssetETF, "United States", "USD"},
	{"VEA", "Vanguard Developed Markets ETF", core.AssetETF, "United States", "USD"},

	// Major cryptos
	{"BTC", "Bitcoin", core.AssetCrypto, "Global", "USD"},
	{"ETH", "Ethereum", core.AssetCrypto, "Global", "USD"},
	{"ADA", "Cardano", core.AssetCrypto, "Global", "USD"},
	{"DOT", "Polkadot", core.AssetCrypto, "Global", "USD"},
	{"SOL", "Solana", core.AssetCrypto, "Global", "USD"},
	{"AVAX", "Avalanche", core.AssetCrypto, "Global", "USD"},
}

// Catalog is the offline search fallback. It never performs I/O and is
// always enabled.
type Catalog struct{}

// New creates the embedded catalog
func New() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Name() string {
	return SourceName
}

func (c *Catalog) Enabled() bool {
	return true
}

func (c *Catalog) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetStock, core.AssetETF, core.AssetCrypto}
}

// FetchPrice is not supported; the catalog only serves search.
func (c *Catalog) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	return nil, core.ErrNoPriceData
}

// Search matches the query against symbol and name, ranked
// exact-symbol > symbol-prefix > name-prefix > alphabetical, capped at
// 10 results.
func (c *Catalog) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	return c.SearchType(query, ""), nil
}

// SearchType is Search with an optional asset type filter.
func (c *Catalog) SearchType(query string, typeFilter core.AssetType) []core.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matched []entry
	for _, e := range entries {
		if typeFilter != "" && e.Type != typeFilter {
			continue
		}
		if strings.Contains(strings.ToLower(e.Symbol), q) ||
			strings.Contains(strings.ToLower(e.Name), q) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		ri, rj := rank(matched[i], q), rank(matched[j], q)
		if ri != rj {
			return ri < rj
		}
		return matched[i].Name < matched[j].Name
	})

	if len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	results := make([]core.SearchResult, 0, len(matched))
	for _, e := range matched {
		results = append(results, core.SearchResult{
			Symbol:   e.Symbol,
			Name:     e.Name,
			Type:     e.Type,
			Region:   e.Region,
			Currency: e.Currency,
			Provider: SourceName,
		})
	}
	return results
}

// rank orders matches by relevance, lower is better.
func rank(e entry, q string) int {
	symbol := strings.ToLower(e.Symbol)
	name := strings.ToLower(e.Name)
	switch {
	case symbol == q:
		return 0
	case strings.HasPrefix(symbol, q):
		return 1
	case strings.HasPrefix(name, q):
		return 2
	default:
		return 3
	}
}

// HasSymbol reports whether the catalog contains a symbol.
func (c *Catalog) HasSymbol(symbol string) bool {
	for _, e := range entries {
		if strings.EqualFold(e.Symbol, symbol) {
			return true
		}
	}
	return false
}

var _ provider.Provider = (*Catalog)(nil)
