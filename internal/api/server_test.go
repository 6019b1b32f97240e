package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mvillard/patrimoine/internal/aggregator"
	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/history"
	"github.com/mvillard/patrimoine/internal/provider"
	"github.com/mvillard/patrimoine/internal/provider/catalog"
	"github.com/mvillard/patrimoine/internal/ratelimit"
	"github.com/mvillard/patrimoine/internal/resolver"
	"github.com/mvillard/patrimoine/internal/storage/asset"
	"github.com/mvillard/patrimoine/internal/storage/pricehistory"
	"github.com/mvillard/patrimoine/internal/valuation"
)

type stubProvider struct {
	name    string
	enabled bool
	types   []core.AssetType
	quote   *core.Quote
	err     error
}

func (s *stubProvider) Name() string                 { return s.name }
func (s *stubProvider) Enabled() bool                { return s.enabled }
func (s *stubProvider) AssetTypes() []core.AssetType { return s.types }

func (s *stubProvider) FetchPrice(ctx context.Context, req core.PriceRequest) (*core.Quote, error) {
	return s.quote, s.err
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	return nil, nil
}

type testServer struct {
	srv   *httptest.Server
	repo  *asset.MemoryRepository
	store *pricehistory.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	p := &stubProvider{name: "COINGECKO", enabled: true, types: []core.AssetType{core.AssetCrypto},
		quote: &core.Quote{Price: 50000, Currency: "EUR", Source: "COINGECKO", Time: time.Now()}}

	reg := provider.NewRegistry()
	reg.Register(p)
	chains, err := resolver.BuildRegistry(reg, []resolver.ChainSpec{
		{Type: core.AssetCrypto, Providers: []string{"COINGECKO"}},
	})
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	repo := asset.NewMemoryRepository()
	store := pricehistory.NewMemoryStore()
	recorder := history.NewRecorder(store, nil, nil, nil)
	svc := aggregator.New(repo, resolver.New(chains, ratelimit.New(0), nil, nil),
		valuation.NewUpdater(repo), recorder, reg, catalog.New(), nil, nil)

	s := NewServer(Config{Host: "127.0.0.1", Port: 0}, svc, repo, recorder, nil, nil, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &testServer{srv: ts, repo: repo, store: store}
}

func (ts *testServer) save(t *testing.T, a core.Asset) core.Asset {
	t.Helper()
	if err := ts.repo.Save(context.Background(), &a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return a
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUpdateOne(t *testing.T) {
	ts := newTestServer(t)
	a := ts.save(t, core.Asset{
		Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC",
		Quantity: 0.5, PurchasePrice: 40000, Active: true,
	})

	resp, err := http.Post(ts.srv.URL+"/api/prices/update/"+a.ID, "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var dto struct {
		ID           string  `json:"id"`
		CurrentPrice float64 `json:"currentPrice"`
		TotalValue   float64 `json:"totalValue"`
	}
	decodeData(t, resp, &dto)

	if dto.ID != a.ID {
		t.Errorf("id = %s, want %s", dto.ID, a.ID)
	}
	if dto.CurrentPrice != 50000 {
		t.Errorf("currentPrice = %f, want 50000", dto.CurrentPrice)
	}
	if dto.TotalValue != 25000 {
		t.Errorf("totalValue = %f, want 25000", dto.TotalValue)
	}
}

func TestUpdateOne_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.srv.URL+"/api/prices/update/missing", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if code := decodeError(t, resp); code != "ASSET_NOT_FOUND" {
		t.Errorf("error code = %s, want ASSET_NOT_FOUND", code)
	}
}

func TestUpdateBulk(t *testing.T) {
	ts := newTestServer(t)
	a := ts.save(t, core.Asset{Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC", Quantity: 1, Active: true})

	body := `{"assetIds": ["` + a.ID + `", "missing"]}`
	resp, err := http.Post(ts.srv.URL+"/api/prices/update-bulk", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report struct {
		Success int `json:"success"`
		Failed  int `json:"failed"`
		Details []struct {
			AssetID string `json:"assetId"`
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"details"`
	}
	decodeData(t, resp, &report)

	if report.Success != 1 || report.Failed != 1 {
		t.Errorf("report = %d/%d, want 1/1", report.Success, report.Failed)
	}
	if len(report.Details) != 2 {
		t.Fatalf("details = %d, want 2", len(report.Details))
	}
}

func TestUpdateBulk_EmptyIDs(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.srv.URL+"/api/prices/update-bulk", "application/json", strings.NewReader(`{"assetIds": []}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUpdateBulk_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.srv.URL+"/api/prices/update-bulk", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUpdateAll(t *testing.T) {
	ts := newTestServer(t)
	ts.save(t, core.Asset{Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC", Quantity: 1, Active: true})
	ts.save(t, core.Asset{Name: "Flat", Type: core.AssetRealEstate, Quantity: 1, Active: true})

	resp, err := http.Post(ts.srv.URL+"/api/prices/update-all", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report struct {
		Success int `json:"success"`
		Failed  int `json:"failed"`
	}
	decodeData(t, resp, &report)
	if report.Success != 1 || report.Failed != 0 {
		t.Errorf("report = %d/%d, want 1/0", report.Success, report.Failed)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/search")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/search?query=bitcoin")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var results []struct {
		Symbol   string `json:"symbol"`
		Provider string `json:"provider"`
	}
	decodeData(t, resp, &results)
	if len(results) == 0 {
		t.Fatal("expected catalog results")
	}
	if results[0].Symbol != "BTC" {
		t.Errorf("top result = %+v, want BTC", results[0])
	}
}

func TestHistoryAndStatistics(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	for i, price := range []float64{100, 80, 120} {
		err := ts.store.Append(ctx, core.PriceRecord{
			AssetID:    "a1",
			Price:      price,
			Source:     "COINGECKO",
			RecordedAt: time.Now().UTC().AddDate(0, 0, i-3),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	resp, err := http.Get(ts.srv.URL + "/api/history/a1?days=30")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, want 200", resp.StatusCode)
	}
	var records []struct {
		Price float64 `json:"price"`
	}
	decodeData(t, resp, &records)
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].Price != 100 || records[2].Price != 120 {
		t.Errorf("records out of order: %v", records)
	}

	resp, err = http.Get(ts.srv.URL + "/api/statistics/a1")
	if err != nil {
		t.Fatalf("GET statistics: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics status = %d, want 200", resp.StatusCode)
	}
	var stats struct {
		Current       float64 `json:"current"`
		Min           float64 `json:"min"`
		Max           float64 `json:"max"`
		Avg           float64 `json:"avg"`
		ChangePercent float64 `json:"changePercent"`
	}
	decodeData(t, resp, &stats)
	if stats.Current != 120 || stats.Min != 80 || stats.Max != 120 || stats.Avg != 100 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ChangePercent != 20 {
		t.Errorf("changePercent = %f, want 20", stats.ChangePercent)
	}
}

func TestStatistics_NoHistory(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/statistics/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if code := decodeError(t, resp); code != "NO_HISTORY" {
		t.Errorf("error code = %s, want NO_HISTORY", code)
	}
}

func TestPrediction_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/predictions/a1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
