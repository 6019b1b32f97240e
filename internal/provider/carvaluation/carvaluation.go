package carvaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/provider"
)

const (
	// SourceName tags quotes from the remote valuation API.
	SourceName = "CAR_VALUATION"
	// CollectorSource tags quotes from the collector-car estimator.
	CollectorSource = "COLLECTOR_CAR_ESTIMATE"
	// HeuristicSource tags quotes from the depreciation model.
	HeuristicSource = "CAR_ESTIMATE"

	defaultBaseURL = "https://api.lacentrale.fr/v1"

	// collectorAgeYears is the age at which any car is treated as a
	// collector vehicle.
	collectorAgeYears = 25
)

// Curated "likely collectible" lists. Illustrative defaults, not a
// definitive valuation authority.
var collectorBrands = []string{
	"ferrari", "lamborghini", "porsche", "aston martin", "mclaren",
	"bugatti", "koenigsegg", "pagani", "lotus", "alpine",
}

var collectorModels = []string{
	"golf gti", "bmw m3", "911 turbo", "type r", "rs", "amg", "quattro",
}

// Per-decade base values (1970s, 80s, 90s, 2000s) for known collector
// brand/model combinations.
var collectorBaseValues = map[string]map[string][]float64{
	"porsche": {
		"911":     {50000, 80000, 120000, 200000},
		"944":     {15000, 25000, 35000, 50000},
		"boxster": {20000, 30000, 45000, 65000},
	},
	"ferrari": {
		"308": {80000, 120000, 180000, 300000},
		"348": {60000, 90000, 130000, 200000},
		"355": {90000, 130000, 180000, 280000},
	},
	"bmw": {
		"m3": {25000, 35000, 50000, 80000},
		"z3": {15000, 25000, 35000, 50000},
		"z4": {20000, 30000, 45000, 65000},
	},
}

var collectorConditionMultipliers = map[string]float64{
	"concours":    1.3,
	"excellent":   1.1,
	"good":        1.0,
	"fair":        0.7,
	"poor":        0.4,
	"restoration": 0.3,
}

// Approximate new prices per brand for the depreciation fallback.
var brandBaseValues = map[string]float64{
	"mercedes":   45000,
	"bmw":        42000,
	"audi":       40000,
	"volkswagen": 25000,
	"renault":    20000,
	"peugeot":    22000,
	"citroën":    20000,
	"toyota":     25000,
	"honda":      23000,
	"ford":       20000,
	"opel":       18000,
	"fiat":       16000,
}

var generalConditionMultipliers = map[string]float64{
	"excellent": 1.1,
	"good":      1.0,
	"fair":      0.8,
	"poor":      0.6,
}

// CarValuation values vehicles. Collector cars (by age or curated
// brand/model match) go through the collector estimator; everything
// else tries the remote valuation API when a key is configured, then
// the heuristic depreciation model.
type CarValuation struct {
	client  *http.Client
	baseURL string
	apiKey  string
	enabled bool
}

// New creates a new car valuation provider
func New(apiKey string, enabled bool) *CarValuation {
	return &CarValuation{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		enabled: enabled,
	}
}

// NewWithBaseURL creates a provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *CarValuation {
	c := New(apiKey, true)
	if url != "" {
		c.baseURL = url
	}
	return c
}

func (c *CarValuation) Name() string {
	return SourceName
}

func (c *CarValuation) Enabled() bool {
	return c.enabled
}

func (c *CarValuation) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetCar}
}

// IsCollectorCar decides the estimator branch: 25+ years old, or a
// brand/model on the curated lists.
func IsCollectorCar(brand, model string, year int) bool {
	if year > 0 && time.Now().Year()-year >= collectorAgeYears {
		return true
	}
	brandLower := strings.ToLower(brand)
	for _, b := range collectorBrands {
		if strings.Contains(brandLower, b) {
			return true
		}
	}
	modelLower := strings.ToLower(model)
	for _, m := range collectorModels {
		if strings.Contains(modelLower, m) {
			return true
		}
	}
	return false
}

// FetchPrice values the vehicle, branching on the collector heuristics.
func (c *CarValuation) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	if req.Brand == "" {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("car asset has no brand"))
	}

	if IsCollectorCar(req.Brand, req.Model, req.Year) {
		if quote, err := c.collectorEstimate(req); err == nil {
			return quote, nil
		}
		// no base value for this collector car, fall through to the
		// general path
	}

	if c.apiKey != "" {
		if quote, err := c.fetchRemote(ctx, req); err == nil {
			return quote, nil
		}
	}

	return c.depreciationEstimate(req), nil
}

type valuationResponse struct {
	Valuation struct {
		Average float64 `json:"average"`
		Trade   float64 `json:"trade"`
		Private float64 `json:"private"`
		Retail  float64 `json:"retail"`
	} `json:"valuation"`
	LastUpdated string `json:"last_updated"`
}

func (c *CarValuation) fetchRemote(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	params := url.Values{}
	params.Set("brand", strings.ToLower(req.Brand))
	params.Set("model", strings.ToLower(req.Model))
	params.Set("year", fmt.Sprintf("%d", req.Year))
	mileage := req.Mileage
	if mileage <= 0 {
		mileage = 100000
	}
	params.Set("mileage", fmt.Sprintf("%d", mileage))
	params.Set("apikey", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/valuation?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "patrimoine/1.0")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching valuation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result valuationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Valuation.Average <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no valuation for %s %s", req.Brand, req.Model))
	}

	return &core.Quote{
		Price:    result.Valuation.Average,
		Currency: "EUR",
		Source:   SourceName,
		Time:     time.Now(),
		Metadata: map[string]any{
			"trade":  result.Valuation.Trade,
			"retail": result.Valuation.Retail,
		},
	}, nil
}

// collectorEstimate values a collector car from the per-decade base
// table and condition multipliers.
func (c *CarValuation) collectorEstimate(req core.PriceRequest) (*core.Quote, error) {
	models, ok := collectorBaseValues[strings.ToLower(req.Brand)]
	if !ok {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no collector base value for brand %s", req.Brand))
	}
	values, ok := models[strings.ToLower(req.Model)]
	if !ok {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("no collector base value for model %s", req.Model))
	}

	decade := 0
	if req.Year >= 1970 {
		decade = (req.Year - 1970) / 10
	}
	if decade >= len(values) {
		decade = len(values) - 1
	}
	value := values[decade]

	multiplier := 0.8
	if req.Condition != "" {
		if m, ok := collectorConditionMultipliers[strings.ToLower(req.Condition)]; ok {
			multiplier = m
		}
	} else {
		multiplier = 1.0
	}
	value *= multiplier

	return &core.Quote{
		Price:    math.Round(value),
		Currency: "EUR",
		Source:   CollectorSource,
		Time:     time.Now(),
		Metadata: map[string]any{
			"trade":  math.Round(value * 0.85),
			"retail": math.Round(value * 1.15),
		},
	}, nil
}

// depreciationEstimate applies the staged depreciation model: 15%/year
// for the first 5 years, then 8%, 5%, and finally 2% once a car enters
// collector territory.
func (c *CarValuation) depreciationEstimate(req core.PriceRequest) *core.Quote {
	baseValue, ok := brandBaseValues[strings.ToLower(req.Brand)]
	if !ok {
		baseValue = 20000
	}

	age := 0
	if req.Year > 0 {
		age = time.Now().Year() - req.Year
		if age < 0 {
			age = 0
		}
	}

	value := baseValue * math.Pow(0.85, math.Min(float64(age), 5))
	if age > 5 {
		value *= math.Pow(0.92, math.Min(float64(age-5), 5))
	}
	if age > 10 {
		value *= math.Pow(0.95, math.Min(float64(age-10), 5))
	}
	if age > 15 {
		value *= math.Pow(0.98, float64(age-15))
	}

	if req.Mileage > 0 && age > 0 {
		expected := float64(age) * 15000
		switch {
		case float64(req.Mileage) > expected*1.5:
			value *= 0.8
		case float64(req.Mileage) < expected*0.5:
			value *= 1.1
		}
	}

	if req.Condition != "" {
		if m, ok := generalConditionMultipliers[strings.ToLower(req.Condition)]; ok {
			value *= m
		}
	}

	price := math.Max(math.Round(value), 1000)

	return &core.Quote{
		Price:    price,
		Currency: "EUR",
		Source:   HeuristicSource,
		Time:     time.Now(),
		Metadata: map[string]any{
			"trade":  math.Round(price * 0.8),
			"retail": math.Round(price * 1.15),
		},
	}
}

// Search is only available through the remote API.
func (c *CarValuation) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/search?q=%s&limit=10&apikey=%s", c.baseURL, url.QueryEscape(query), c.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "patrimoine/1.0")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		Cars []struct {
			Brand string `json:"brand"`
			Model string `json:"model"`
		} `json:"cars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]core.SearchResult, 0, len(result.Cars))
	for _, car := range result.Cars {
		results = append(results, core.SearchResult{
			Name:     strings.TrimSpace(car.Brand + " " + car.Model),
			Type:     core.AssetCar,
			Currency: "EUR",
			Provider: SourceName,
		})
	}
	return results, nil
}

var _ provider.Provider = (*CarValuation)(nil)
