package watchmarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

const (
	// SourceName tags quotes estimated by the remote market API.
	SourceName = "WATCH_MARKET"
	// HeuristicSource tags quotes from the embedded estimator.
	HeuristicSource = "WATCH_ESTIMATE"

	defaultBaseURL = "https://api.watchmarket.com/v1"
)

// Brand base prices in EUR for the heuristic estimator. Illustrative
// defaults, not sourced from a valuation authority.
var brandBasePrices = map[string]float64{
	"rolex":               8000,
	"patek philippe":      25000,
	"audemars piguet":     15000,
	"vacheron constantin": 20000,
	"omega":               3000,
	"tag heuer":           2000,
	"breitling":           2500,
	"iwc":                 4000,
	"cartier":             5000,
	"jaeger-lecoultre":    6000,
}

var conditionMultipliers = map[string]float64{
	"new":       1.0,
	"like new":  0.95,
	"excellent": 0.9,
	"good":      0.75,
	"fair":      0.6,
	"poor":      0.4,
}

// WatchMarket estimates luxury watch values: a remote estimate endpoint
// when a key is configured, and an embedded brand/age/condition
// heuristic otherwise. The heuristic keeps the chain from ever being
// empty for watches, so the provider reports enabled regardless of key.
type WatchMarket struct {
	client  *http.Client
	baseURL string
	apiKey  string
	enabled bool
}

// New creates a new watch valuation provider
func New(apiKey string, enabled bool) *WatchMarket {
	return &WatchMarket{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		enabled: enabled,
	}
}

// NewWithBaseURL creates a provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *WatchMarket {
	w := New(apiKey, true)
	if url != "" {
		w.baseURL = url
	}
	return w
}

func (w *WatchMarket) Name() string {
	return SourceName
}

func (w *WatchMarket) Enabled() bool {
	return w.enabled
}

func (w *WatchMarket) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetWatch}
}

// remoteConfigured reports whether the paid estimate API can be used.
func (w *WatchMarket) remoteConfigured() bool {
	return w.apiKey != ""
}

// FetchPrice estimates the watch value, remote first, heuristic as the
// in-provider fallback.
func (w *WatchMarket) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	if req.Brand == "" {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("watch asset has no brand"))
	}

	if w.remoteConfigured() {
		quote, err := w.fetchRemote(ctx, req)
		if err == nil {
			return quote, nil
		}
		// remote failure degrades to the heuristic
	}

	return w.estimate(req)
}

type estimateRequest struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Year      int    `json:"year,omitempty"`
	Condition string `json:"condition,omitempty"`
}

type estimateResponse struct {
	EstimatedPrice float64 `json:"estimated_price"`
	Currency       string  `json:"currency"`
	PriceRange     struct {
		Low  float64 `json:"low"`
		High float64 `json:"high"`
	} `json:"price_range"`
}

func (w *WatchMarket) fetchRemote(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	body, err := json.Marshal(estimateRequest{
		Brand:     req.Brand,
		Model:     req.Model,
		Year:      req.Year,
		Condition: req.Condition,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/watches/estimate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+w.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching estimate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.EstimatedPrice <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no estimate for %s %s", req.Brand, req.Model))
	}

	currency := result.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &core.Quote{
		Price:    result.EstimatedPrice,
		Currency: currency,
		Source:   SourceName,
		Time:     time.Now(),
		Metadata: map[string]any{
			"range_low":  result.PriceRange.Low,
			"range_high": result.PriceRange.High,
		},
	}, nil
}

// estimate derives a value from brand base price, age and condition.
func (w *WatchMarket) estimate(req core.PriceRequest) (*core.Quote, error) {
	basePrice, ok := brandBasePrices[strings.ToLower(req.Brand)]
	if !ok {
		basePrice = 1000
	}

	ageAdjustment := 1.0
	if req.Year > 0 {
		age := time.Now().Year() - req.Year
		switch {
		case age > 20:
			ageAdjustment = 1.2 // vintage premium
		case age > 10:
			ageAdjustment = 0.9
		case age > 5:
			ageAdjustment = 0.8
		default:
			ageAdjustment = 0.7
		}
	}

	conditionAdjustment := 0.8
	if req.Condition != "" {
		if m, ok := conditionMultipliers[strings.ToLower(req.Condition)]; ok {
			conditionAdjustment = m
		}
	}

	price := math.Round(basePrice * ageAdjustment * conditionAdjustment)

	return &core.Quote{
		Price:    price,
		Currency: "EUR",
		Source:   HeuristicSource,
		Time:     time.Now(),
		Metadata: map[string]any{
			"range_low":  math.Round(price * 0.8),
			"range_high": math.Round(price * 1.2),
		},
	}, nil
}

// Search is only available through the remote API.
func (w *WatchMarket) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if !w.remoteConfigured() {
		return nil, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/watches/search?q=%s&limit=10&apikey=%s", w.baseURL, query, w.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		Watches []struct {
			Brand string `json:"brand"`
			Model string `json:"model"`
			Name  string `json:"name"`
		} `json:"watches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]core.SearchResult, 0, len(result.Watches))
	for _, watch := range result.Watches {
		name := watch.Name
		if name == "" {
			name = strings.TrimSpace(watch.Brand + " " + watch.Model)
		}
		results = append(results, core.SearchResult{
			Name:     name,
			Type:     core.AssetWatch,
			Currency: "EUR",
			Provider: SourceName,
		})
	}
	return results, nil
}

var _ provider.Provider = (*WatchMarket)(nil)
