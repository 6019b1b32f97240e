package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

const (
	// SourceName tags quotes and search results from this provider.
	SourceName = "COINGECKO"

	defaultBaseURL = "https://api.coingecko.com/api/v3"
)

// Symbol to CoinGecko coin ID mapping for the majors; anything else
// falls back to the lowercased symbol.
var symbolToIDMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"USDC":  "usd-coin",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"TRX":   "tron",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"LINK":  "chainlink",
}

// CoinGecko is the primary crypto price provider
type CoinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
	enabled bool
}

// New creates a new CoinGecko provider. The provider works without an
// API key; enabled controls whether it participates at all.
func New(apiKey string, enabled bool) *CoinGecko {
	return &CoinGecko{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		enabled: enabled,
	}
}

// NewWithBaseURL creates a CoinGecko provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *CoinGecko {
	c := New(apiKey, true)
	if url != "" {
		c.baseURL = url
	}
	return c
}

func (c *CoinGecko) Name() string {
	return SourceName
}

func (c *CoinGecko) Enabled() bool {
	return c.enabled
}

func (c *CoinGecko) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetCrypto}
}

// coinID converts a crypto symbol to a CoinGecko coin ID
func coinID(symbol string) string {
	if id, ok := symbolToIDMap[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// vsCurrency maps a quote currency to CoinGecko's vs_currency form.
func vsCurrency(currency string) string {
	if currency == "" {
		return "eur"
	}
	return strings.ToLower(currency)
}

// FetchPrice fetches the simple spot price for a crypto symbol.
func (c *CoinGecko) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	id := coinID(req.Symbol)
	vs := vsCurrency(req.Currency)

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(id), url.QueryEscape(vs))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	coinData, ok := result[id]
	if !ok {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no data for coin %s", id))
	}
	price, ok := coinData[vs]
	if !ok || price <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no %s price for coin %s", vs, id))
	}

	return &core.Quote{
		Price:    price,
		Currency: strings.ToUpper(vs),
		Source:   SourceName,
		Time:     time.Now(),
	}, nil
}

type searchResponse struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"coins"`
}

// Search finds coins by name or symbol, capped at 10 results.
func (c *CoinGecko) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	u := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching coins: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	coins := result.Coins
	if len(coins) > 10 {
		coins = coins[:10]
	}

	results := make([]core.SearchResult, 0, len(coins))
	for _, coin := range coins {
		results = append(results, core.SearchResult{
			Symbol:   strings.ToUpper(coin.Symbol),
			Name:     coin.Name,
			Type:     core.AssetCrypto,
			Region:   "Global",
			Currency: "USD",
			Provider: SourceName,
		})
	}
	return results, nil
}

// FetchHistory returns daily close prices for backfill, newest last.
func (c *CoinGecko) FetchHistory(ctx context.Context, symbol, currency string, days int) ([]core.PriceRecord, error) {
	if days < 1 {
		days = 1
	}
	id := coinID(symbol)

	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		c.baseURL, url.PathEscape(id), vsCurrency(currency), days)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// CoinGecko returns {"prices": [[timestamp_ms, price], ...]}
	var chart struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]core.PriceRecord, 0, len(chart.Prices))
	for _, point := range chart.Prices {
		if len(point) < 2 {
			continue
		}
		records = append(records, core.PriceRecord{
			Price:      point[1],
			Source:     SourceName,
			RecordedAt: time.UnixMilli(int64(point[0])),
		})
	}
	return records, nil
}

var _ provider.Provider = (*CoinGecko)(nil)
