package core

import (
	"testing"
	"time"
)

func TestAssetType_IsTrackable(t *testing.T) {
	trackable := map[AssetType]bool{
		AssetStock:      true,
		AssetETF:        true,
		AssetBond:       true,
		AssetCrypto:     true,
		AssetCommodity:  true,
		AssetFund:       true,
		AssetWatch:      true,
		AssetCar:        true,
		AssetRealEstate: false,
		AssetCash:       false,
		AssetArtwork:    false,
		AssetWine:       false,
		AssetOther:      false,
	}

	for _, at := range AllAssetTypes {
		want, ok := trackable[at]
		if !ok {
			t.Fatalf("type %s missing from expectation table", at)
		}
		if got := at.IsTrackable(); got != want {
			t.Errorf("%s.IsTrackable() = %v, want %v", at, got, want)
		}
	}
}

func TestAssetType_IsCollectible(t *testing.T) {
	for _, at := range AllAssetTypes {
		want := at == AssetWatch || at == AssetCar
		if got := at.IsCollectible(); got != want {
			t.Errorf("%s.IsCollectible() = %v, want %v", at, got, want)
		}
	}
}

func TestAsset_Age(t *testing.T) {
	current := time.Now().Year()

	tests := []struct {
		name string
		year int
		want int
	}{
		{"no year", 0, 0},
		{"this year", current, 0},
		{"thirty years old", current - 30, 30},
		{"future year clamps to zero", current + 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Asset{Year: tt.year}
			if got := a.Age(); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuote_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		quote Quote
		want  bool
	}{
		{"valid", Quote{Price: 100, Source: "COINGECKO"}, true},
		{"zero price", Quote{Price: 0, Source: "COINGECKO"}, false},
		{"negative price", Quote{Price: -1, Source: "COINGECKO"}, false},
		{"missing source", Quote{Price: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quote.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestFor(t *testing.T) {
	a := Asset{
		Type:      AssetCar,
		Symbol:    "",
		Currency:  "EUR",
		Brand:     "Porsche",
		Model:     "911",
		Year:      1985,
		Condition: "excellent",
		Mileage:   120000,
	}

	req := RequestFor(a)
	if req.Type != AssetCar || req.Brand != "Porsche" || req.Model != "911" {
		t.Errorf("req = %+v", req)
	}
	if req.Year != 1985 || req.Condition != "excellent" || req.Mileage != 120000 {
		t.Errorf("collectible attributes lost: %+v", req)
	}
}

func TestBatchReport_Add(t *testing.T) {
	var report BatchReport

	report.Add(BatchResult{AssetID: "a1", Success: true, Price: 100})
	report.Add(BatchResult{AssetID: "a2", Success: false, Error: "Asset has no symbol"})
	report.Add(BatchResult{AssetID: "a3", Success: true, Price: 50})

	if report.Success != 2 {
		t.Errorf("Success = %d, want 2", report.Success)
	}
	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if len(report.Details) != 3 {
		t.Errorf("Details = %d, want 3", len(report.Details))
	}
	if report.Success+report.Failed != len(report.Details) {
		t.Error("counters do not match details")
	}
}
