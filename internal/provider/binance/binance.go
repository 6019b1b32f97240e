package binance

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
	// SourceName tags quotes from this provider.
	SourceName = "BINANCE"

	defaultBaseURL = "https://api.binance.com/api/v3"
)

// Binance is the crypto fallback provider. It needs no credential,
// only an enable flag.
type Binance struct {
	client  *http.Client
	baseURL string
	enabled bool
}

// New creates a new Binance provider
func New(enabled bool) *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		enabled: enabled,
	}
}

// NewWithBaseURL creates a Binance provider with custom base URL (for testing)
func NewWithBaseURL(url string) *Binance {
	b := New(true)
	if url != "" {
		b.baseURL = url
	}
	return b
}

func (b *Binance) Name() string {
	return SourceName
}

func (b *Binance) Enabled() bool {
	return b.enabled
}

func (b *Binance) AssetTypes() []core.AssetType {
	return []core.AssetType{core.AssetCrypto}
}

// formatPair builds a Binance trading pair, e.g. BTC + EUR = BTCEUR.
func formatPair(symbol, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return strings.ToUpper(symbol) + strings.ToUpper(currency)
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchPrice fetches the last traded price for the symbol/currency pair.
func (b *Binance) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	pair := formatPair(req.Symbol, req.Currency)

	u := fmt.Sprintf("%s/ticker/price?symbol=%s", b.baseURL, url.QueryEscape(pair))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching ticker: %w", err)
	}
	defer resp.Body.Close()

	// Binance answers 400 for unknown pairs
	if resp.StatusCode == http.StatusBadRequest {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("unknown pair %s", pair))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var ticker tickerPrice
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil || price <= 0 {
		return nil, core.WrapError(core.ErrNoPriceData, fmt.Errorf("unusable price %q for %s", ticker.Price, pair))
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &core.Quote{
		Price:    price,
		Currency: strings.ToUpper(currency),
		Source:   SourceName,
		Time:     time.Now(),
	}, nil
}

// Search is not supported by the ticker API; the search aggregator
// relies on CoinGecko and the static catalog for crypto lookups.
func (b *Binance) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	return nil, nil
}

// FetchHistory returns daily close prices from the klines endpoint.
func (b *Binance) FetchHistory(ctx context.Context, symbol, currency string, limit int) ([]core.PriceRecord, error) {
	if limit < 1 {
		limit = 30
	}
	pair := formatPair(symbol, currency)

	u := fmt.Sprintf("%s/klines?symbol=%s&interval=1d&limit=%d", b.baseURL, url.QueryEscape(pair), limit)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching klines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Klines are arrays: [openTime, open, high, low, close, volume, ...]
	var klines [][]any
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]core.PriceRecord, 0, len(klines))
	for _, k := range klines {
		if len(k) < 5 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		closeStr, ok := k[4].(string)
		if !ok {
			continue
		}
		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		records = append(records, core.PriceRecord{
			Price:      closePrice,
			Source:     SourceName,
			RecordedAt: time.UnixMilli(int64(openTime)),
		})
	}
	return records, nil
}

var _ provider.Provider = (*Binance)(nil)
