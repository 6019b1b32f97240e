package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

const (
	// SourceName tags quotes and search results from this provider.
	SourceName = "YAHOO_FINANCE"

	defaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultSearchURL = "https://query1.finance.yahoo.com/v1/finance/search"
)

// validSymbol matches symbols like AAPL, MC.PA, GC=F, BTC-USD
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-=^]{0,19}$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo is the fallback equities provider and the commodity provider.
// It needs no credential, only an enable flag.
type Yahoo struct {
	client    *http.Client
	chartURL  string
	searchURL string
	enabled   bool
}

// New creates a new Yahoo Finance provider
func New(enabled bool) *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		chartURL:  defaultChartURL,
		searchURL: defaultSearchURL,
		enabled:   enabled,
	}
}

// NewWithBaseURL creates a Yahoo provider with custom endpoints (for testing)
func NewWithBaseURL(chartURL, searchURL string) *Yahoo {
	y := New(true)
	if chartURL != "" {
		y.chartURL = chartURL
	}
	if searchURL != "" {
		y.searchURL = searchURL
	}
	return y
}

func (y *Yahoo) Name() string {
	return SourceName
}

func (y *Yahoo) Enabled() bool {
	return y.enabled
}

func (y *Yahoo) AssetTypes() []core.AssetType {
	return []core.AssetType{
		core.AssetStock, core.AssetETF, core.AssetBond,
		core.AssetFund, core.AssetCommodity,
	}
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrice fetches the regular market price from the chart endpoint.
func (y *Yahoo) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	if err := validateSymbol(req.Symbol); err != nil {
		return nil, core.WrapError(core.ErrNoPriceData, err)
	}

	u := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.chartURL, url.PathEscape(req.Symbol))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no data for symbol %s", req.Symbol))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no data for symbol %s", req.Symbol))
	}

	meta := result.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no market price for %s", req.Symbol))
	}

	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	return &core.Quote{
		Price:    meta.RegularMarketPrice,
		Currency: strings.ToUpper(currency),
		Source:   SourceName,
		Time:     time.Unix(meta.RegularMarketTime, 0),
	}, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

// Search finds instruments by symbol or name, capped at 10 results.
func (y *Yahoo) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&quotesCount=10&newsCount=0", y.searchURL, url.QueryEscape(query))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	quotes := result.Quotes
	if len(quotes) > 10 {
		quotes = quotes[:10]
	}

	results := make([]core.SearchResult, 0, len(quotes))
	for _, q := range quotes {
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		if name == "" {
			name = q.Symbol
		}
		results = append(results, core.SearchResult{
			Symbol:   q.Symbol,
			Name:     name,
			Type:     mapQuoteType(q.QuoteType),
			Region:   q.Exchange,
			Currency: "USD",
			Provider: SourceName,
		})
	}
	return results, nil
}

func mapQuoteType(t string) core.AssetType {
	switch strings.ToUpper(t) {
	case "ETF":
		return core.AssetETF
	case "MUTUALFUND":
		return core.AssetFund
	case "CRYPTOCURRENCY":
		return core.AssetCrypto
	case "FUTURE":
		return core.AssetCommodity
	default:
		return core.AssetStock
	}
}

var _ provider.Provider = (*Yahoo)(nil)
