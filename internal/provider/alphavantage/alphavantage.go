package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

const (
	// SourceName tags quotes and search results from this provider.
	SourceName = "ALPHA_VANTAGE"

	defaultBaseURL = "https://www.alphavantage.co/query"

	// placeholderKey is the sample value shipped in config templates;
	// treating it as configured would only burn the request quota.
	placeholderKey = "YOUR_API_KEY_HERE"
)

// AlphaVantage is the primary equities/ETF/bond/fund provider. Its free
// tier allows 5 calls per minute, so every call goes through the shared
// throttle under the "alphavantage" key.
type AlphaVantage struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a new Alpha Vantage provider
func New(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates an Alpha Vantage provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *AlphaVantage {
	a := New(apiKey)
	if url != "" {
		a.baseURL = url
	}
	return a
}

func (a *AlphaVantage) Name() string {
	return SourceName
}

// Enabled reports false when the key is absent or still the template
// placeholder.
func (a *AlphaVantage) Enabled() bool {
	return a.apiKey != "" && a.apiKey != placeholderKey
}

func (a *AlphaVantage) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetStock, core.AssetETF, core.AssetBond, core.AssetFund}
}

// RateLimitKey marks this provider as quota-constrained.
func (a *AlphaVantage) RateLimitKey() string {
	return "alphavantage"
}

// envelope covers the fields Alpha Vantage uses to signal quota
// exhaustion and bad symbols inside a 200 response.
type envelope struct {
	Note         string          `json:"Note"`
	Information  string          `json:"Information"`
	ErrorMessage string          `json:"Error Message"`
	GlobalQuote  json.RawMessage `json:"Global Quote"`
	BestMatches  json.RawMessage `json:"bestMatches"`
}

// noData maps the in-band error fields to a uniform no-data outcome;
// a quota message must never look like a valid zero price.
func (e envelope) noData() error {
	if e.Note != "" || e.Information != "" {
		return core.WrapError(core.ErrNoPriceData, fmt.Errorf("rate limit reached"))
	}
	if e.ErrorMessage != "" {
		return core.WrapError(core.ErrNoPriceData, fmt.Errorf("provider error: %s", e.ErrorMessage))
	}
	return nil
}

func (a *AlphaVantage) get(ctx context.Context, params url.Values) (*envelope, error) {
	params.Set("apikey", a.apiKey)

	u := a.baseURL + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &env, nil
}

// FetchPrice fetches the GLOBAL_QUOTE for a symbol. Prices are quoted
// in USD.
func (a *AlphaVantage) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", req.Symbol)

	env, err := a.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := env.noData(); err != nil {
		return nil, err
	}

	var quote map[string]string
	if len(env.GlobalQuote) > 0 {
		if err := json.Unmarshal(env.GlobalQuote, &quote); err != nil {
			return nil, fmt.Errorf("decoding quote: %w", err)
		}
	}
	if len(quote) == 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no data for symbol %s", req.Symbol))
	}

	price, err := strconv.ParseFloat(quote["05. price"], 64)
	if err != nil || price <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("unusable price %q for %s", quote["05. price"], req.Symbol))
	}

	q := &core.Quote{
		Price:    price,
		Currency: "USD",
		Source:   SourceName,
		Time:     time.Now(),
		Metadata: map[string]any{},
	}
	if day := quote["07. latest trading day"]; day != "" {
		if t, err := time.Parse("2006-01-02", day); err == nil {
			q.Time = t
		}
	}
	if prev, err := strconv.ParseFloat(quote["08. previous close"], 64); err == nil {
		q.Metadata["previous_close"] = prev
	}
	if cp := strings.TrimSuffix(quote["10. change percent"], "%"); cp != "" {
		if v, err := strconv.ParseFloat(cp, 64); err == nil {
			q.Metadata["change_percent"] = v
		}
	}
	return q, nil
}

type bestMatch struct {
	Symbol   string `json:"1. symbol"`
	Name     string `json:"2. name"`
	Type     string `json:"3. type"`
	Region   string `json:"4. region"`
	Currency string `json:"8. currency"`
}

// Search runs SYMBOL_SEARCH for stocks and ETFs.
func (a *AlphaVantage) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", query)

	env, err := a.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := env.noData(); err != nil {
		return nil, err
	}

	var matches []bestMatch
	if len(env.BestMatches) > 0 {
		if err := json.Unmarshal(env.BestMatches, &matches); err != nil {
			return nil, fmt.Errorf("decoding matches: %w", err)
		}
	}

	results := make([]core.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, core.SearchResult{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     mapType(m.Type),
			Region:   m.Region,
			Currency: m.Currency,
			Provider: SourceName,
		})
	}
	return results, nil
}

func mapType(t string) core.AssetType {
	switch strings.ToUpper(t) {
	case "ETF":
		return core.AssetETF
	case "MUTUAL FUND":
		return core.AssetFund
	default:
		return core.AssetStock
	}
}

var (
	_ provider.Provider    = (*AlphaVantage)(nil)
	_ provider.RateLimited = (*AlphaVantage)(nil)
)
