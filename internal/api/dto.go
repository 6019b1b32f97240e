// internal/api/dto.go
package api

import (
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

type assetDTO struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Symbol           string     `json:"symbol,omitempty"`
	Name             string     `json:"name"`
	Currency         string     `json:"currency,omitempty"`
	Quantity         float64    `json:"quantity"`
	CurrentPrice     float64    `json:"currentPrice"`
	TotalValue       float64    `json:"totalValue"`
	TotalGain        float64    `json:"totalGain"`
	TotalGainPercent float64    `json:"totalGainPercent"`
	LastPriceUpdate  *time.Time `json:"lastPriceUpdate,omitempty"`
}

func toAssetDTO(a core.Asset) assetDTO {
	dto := assetDTO{
		ID:               a.ID,
		Type:             string(a.Type),
		Symbol:           a.Symbol,
		Name:             a.Name,
		Currency:         a.Currency,
		Quantity:         a.Quantity,
		CurrentPrice:     a.CurrentPrice,
		TotalValue:       a.TotalValue,
		TotalGain:        a.TotalGain,
		TotalGainPercent: a.TotalGainPercent,
	}
	if !a.LastPriceUpdate.IsZero() {
		t := a.LastPriceUpdate
		dto.LastPriceUpdate = &t
	}
	return dto
}

type batchResultDTO struct {
	AssetID string  `json:"assetId"`
	Success bool    `json:"success"`
	Price   float64 `json:"price,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type batchReportDTO struct {
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Details []batchResultDTO `json:"details"`
}

func toBatchReportDTO(r core.BatchReport) batchReportDTO {
	dto := batchReportDTO{
		Success: r.Success,
		Failed:  r.Failed,
		Details: make([]batchResultDTO, 0, len(r.Details)),
	}
	for _, d := range r.Details {
		dto.Details = append(dto.Details, batchResultDTO{
			AssetID: d.AssetID,
			Success: d.Success,
			Price:   d.Price,
			Error:   d.Error,
		})
	}
	return dto
}

type priceRecordDTO struct {
	AssetID    string    `json:"assetId"`
	Price      float64   `json:"price"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recordedAt"`
}

func toRecordDTOs(records []core.PriceRecord) []priceRecordDTO {
	out := make([]priceRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, priceRecordDTO{
			AssetID:    rec.AssetID,
			Price:      rec.Price,
			Source:     rec.Source,
			RecordedAt: rec.RecordedAt,
		})
	}
	return out
}

type statisticsDTO struct {
	Current       float64 `json:"current"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Avg           float64 `json:"avg"`
	ChangePercent float64 `json:"changePercent"`
}

type searchResultDTO struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
	Provider string `json:"provider"`
}

func toSearchDTOs(results []core.SearchResult) []searchResultDTO {
	out := make([]searchResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultDTO{
			Symbol:   r.Symbol,
			Name:     r.Name,
			Type:     string(r.Type),
			Region:   r.Region,
			Currency: r.Currency,
			Provider: r.Provider,
		})
	}
	return out
}

type predictionDTO struct {
	AssetID        string    `json:"assetId"`
	PredictedPrice float64   `json:"predictedPrice"`
	Confidence     float64   `json:"confidence"`
	Timeframe      string    `json:"timeframe"`
	Algorithm      string    `json:"algorithm"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
