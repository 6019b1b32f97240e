package asset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

func TestSave_AssignsID(t *testing.T) {
	repo := NewMemoryRepository()
	a := core.Asset{Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC", Active: true}

	if err := repo.Save(context.Background(), &a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated ID")
	}

	stored, err := repo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Name != "Bitcoin" {
		t.Errorf("Name = %s, want Bitcoin", stored.Name)
	}
}

func TestSave_ReplacesExisting(t *testing.T) {
	repo := NewMemoryRepository()
	a := core.Asset{ID: "fixed", Name: "Old", Type: core.AssetStock, Symbol: "AAPL", Active: true}
	if err := repo.Save(context.Background(), &a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a.Name = "New"
	if err := repo.Save(context.Background(), &a); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	stored, err := repo.GetByID(context.Background(), "fixed")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Name != "New" {
		t.Errorf("Name = %s, want New", stored.Name)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListTrackable(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	assets := []core.Asset{
		{Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC", Active: true},
		{Name: "Apple", Type: core.AssetStock, Symbol: "AAPL", Active: true},
		{Name: "Inactive", Type: core.AssetCrypto, Symbol: "ETH", Active: false},
		{Name: "Flat", Type: core.AssetRealEstate, Active: true},
		{Name: "No symbol stock", Type: core.AssetStock, Active: true},
		{Name: "Submariner", Type: core.AssetWatch, Brand: "Rolex", Active: true},
	}
	for i := range assets {
		if err := repo.Save(ctx, &assets[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	trackable, err := repo.ListTrackable(ctx)
	if err != nil {
		t.Fatalf("ListTrackable: %v", err)
	}

	if len(trackable) != 4 {
		t.Fatalf("got %d trackable assets, want 4", len(trackable))
	}
	// Insertion order is preserved; the symbol-less stock stays in so
	// the batch can report its failure.
	want := []string{"Bitcoin", "Apple", "No symbol stock", "Submariner"}
	for i, name := range want {
		if trackable[i].Name != name {
			t.Errorf("trackable[%d] = %s, want %s", i, trackable[i].Name, name)
		}
	}
}

func TestUpdateValuation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := core.Asset{Name: "Bitcoin", Type: core.AssetCrypto, Symbol: "BTC", Active: true}
	if err := repo.Save(ctx, &a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	now := time.Now().UTC()
	v := Valuation{
		CurrentPrice:     50000,
		TotalValue:       25000,
		TotalGain:        5000,
		TotalGainPercent: 25,
		LastPriceUpdate:  now,
	}
	if err := repo.UpdateValuation(ctx, a.ID, v); err != nil {
		t.Fatalf("UpdateValuation: %v", err)
	}

	stored, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.CurrentPrice != 50000 || stored.TotalValue != 25000 {
		t.Errorf("valuation = %+v", stored)
	}
	if !stored.LastPriceUpdate.Equal(now) {
		t.Errorf("LastPriceUpdate = %v, want %v", stored.LastPriceUpdate, now)
	}
}

func TestUpdateValuation_NotFound(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdateValuation(context.Background(), "missing", Valuation{CurrentPrice: 1})
	if !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
