package core

import "time"

// AssetType represents the type of a portfolio asset
type AssetType string

const (
	AssetStock      AssetType = "STOCK"
	AssetETF        AssetType = "ETF"
	AssetBond       AssetType = "BOND"
	AssetCrypto     AssetType = "CRYPTO"
	AssetCommodity  AssetType = "COMMODITY"
	AssetFund       AssetType = "FUND"
	AssetRealEstate AssetType = "REAL_ESTATE"
	AssetCash       AssetType = "CASH"
	AssetWatch      AssetType = "LUXURY_WATCH"
	AssetCar        AssetType = "COLLECTOR_CAR"
	AssetArtwork    AssetType = "ARTWORK"
	AssetWine       AssetType = "WINE"
	AssetOther      AssetType = "OTHER"
)

// AllAssetTypes lists every member of the closed type set.
var AllAssetTypes = []AssetType{
	AssetStock, AssetETF, AssetBond, AssetCrypto, AssetCommodity,
	AssetFund, AssetRealEstate, AssetCash, AssetWatch, AssetCar,
	AssetArtwork, AssetWine, AssetOther,
}

// IsCollectible reports whether the type is valued by attributes
// (brand/model/year/condition) rather than a market symbol.
func (t AssetType) IsCollectible() bool {
	return t == AssetWatch || t == AssetCar
}

// IsTrackable reports whether the type is eligible for automatic
// price refresh.
func (t AssetType) IsTrackable() bool {
	switch t {
	case AssetStock, AssetETF, AssetBond, AssetCrypto, AssetCommodity,
		AssetFund, AssetWatch, AssetCar:
		return true
	}
	return false
}

// Asset is a portfolio position. Valuation fields are cached values
// recomputed after each successful price resolution.
type Asset struct {
	ID     string
	Type   AssetType
	Symbol string
	Name   string

	// Collectible attributes (watches, cars)
	Brand     string
	Model     string
	Year      int
	Condition string
	Mileage   int

	Quantity      float64
	PurchasePrice float64
	Currency      string

	CurrentPrice     float64
	TotalValue       float64
	TotalGain        float64
	TotalGainPercent float64
	LastPriceUpdate  time.Time

	Active bool
}

// Age returns the asset age in years, 0 when no year is set.
func (a Asset) Age() int {
	if a.Year <= 0 {
		return 0
	}
	age := time.Now().Year() - a.Year
	if age < 0 {
		return 0
	}
	return age
}

// PriceRequest carries the identifying attributes a provider needs to
// quote an asset.
type PriceRequest struct {
	Type      AssetType
	Symbol    string
	Currency  string
	Brand     string
	Model     string
	Year      int
	Condition string
	Mileage   int
}

// RequestFor builds a price request from an asset.
func RequestFor(a Asset) PriceRequest {
	return PriceRequest{
		Type:      a.Type,
		Symbol:    a.Symbol,
		Currency:  a.Currency,
		Brand:     a.Brand,
		Model:     a.Model,
		Year:      a.Year,
		Condition: a.Condition,
		Mileage:   a.Mileage,
	}
}

// Quote is a single price observation returned by a provider. It lives
// only for the duration of one resolution call.
type Quote struct {
	Price    float64
	Currency string
	Source   string
	Time     time.Time
	Metadata map[string]any
}

// IsValid checks if the quote has a usable price.
func (q Quote) IsValid() bool {
	return q.Price > 0 && q.Source != ""
}

// PriceRecord is one appended point in an asset's price time series.
type PriceRecord struct {
	AssetID    string
	Price      float64
	Source     string
	RecordedAt time.Time
}

// Statistics aggregates a price history window.
type Statistics struct {
	Current       float64
	Min           float64
	Max           float64
	Avg           float64
	ChangePercent float64
}

// SearchResult is one match returned by a provider search.
type SearchResult struct {
	Symbol   string
	Name     string
	Type     AssetType
	Region   string
	Currency string
	Provider string
}

// BatchResult is the per-asset outcome inside a batch report.
type BatchResult struct {
	AssetID string
	Success bool
	Price   float64
	Error   string
}

// BatchReport aggregates the outcome of updating a set of assets.
type BatchReport struct {
	Success int
	Failed  int
	Details []BatchResult
}

// Add appends a per-asset result and bumps the counters.
func (r *BatchReport) Add(res BatchResult) {
	r.Details = append(r.Details, res)
	if res.Success {
		r.Success++
	} else {
		r.Failed++
	}
}

// Prediction is an optional enrichment estimate, never written back to
// an asset's valuation fields.
type Prediction struct {
	AssetID        string
	PredictedPrice float64
	Confidence     float64
	Timeframe      string
	Algorithm      string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}
