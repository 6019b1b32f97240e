package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/mvillard/patrimoine/internal/core"
)

func TestSearch_ExactSymbolFirst(t *testing.T) {
	c := New()

	results, err := c.Search(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Symbol != "BTC" {
		t.Errorf("first result = %s, want exact match BTC", results[0].Symbol)
	}
}

func TestSearch_SymbolPrefixBeforeNameMatch(t *testing.T) {
	c := New()

	results, err := c.Search(context.Background(), "b")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	pos := func(symbol string) int {
		for i, r := range results {
			if r.Symbol == symbol {
				return i
			}
		}
		return -1
	}

	// BTC, BND and BNP.PA match on symbol prefix; AVGO (Broadcom) only
	// on name and must rank after them.
	avgo := pos("AVGO")
	if avgo == -1 {
		t.Fatal("expected AVGO in results")
	}
	for _, symbolPrefix := range []string{"BTC", "BND", "BNP.PA"} {
		p := pos(symbolPrefix)
		if p == -1 {
			t.Fatalf("expected %s in results", symbolPrefix)
		}
		if p > avgo {
			t.Errorf("%s at %d ranked after name-only match AVGO at %d", symbolPrefix, p, avgo)
		}
	}
}

func TestSearch_NameMatch(t *testing.T) {
	c := New()

	results, err := c.Search(context.Background(), "apple")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results for name query")
	}
	if results[0].Symbol != "AAPL" {
		t.Errorf("first result = %s, want AAPL", results[0].Symbol)
	}
	if results[0].Provider != SourceName {
		t.Errorf("provider = %s, want %s", results[0].Provider, SourceName)
	}
}

func TestSearch_CapsAtTen(t *testing.T) {
	c := New()

	// "a" matches many entries
	results, err := c.Search(context.Background(), "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) > 10 {
		t.Errorf("got %d results, cap is 10", len(results))
	}
}

func TestSearchType_Filter(t *testing.T) {
	c := New()

	results := c.SearchType("v", core.AssetETF)
	if len(results) == 0 {
		t.Fatal("expected ETF results")
	}
	for _, r := range results {
		if r.Type != core.AssetETF {
			t.Errorf("got type %s with ETF filter", r.Type)
		}
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := New()
	results, _ := c.Search(context.Background(), "   ")
	if len(results) != 0 {
		t.Errorf("expected no results for blank query, got %d", len(results))
	}
}

func TestFetchPrice_Unsupported(t *testing.T) {
	c := New()
	_, err := c.FetchPrice(context.Background(), core.PriceRequest{Symbol: "AAPL"})
	if !errors.Is(err, core.ErrNoPriceData) {
		t.Errorf("expected no-data error, got %v", err)
	}
}

func TestHasSymbol(t *testing.T) {
	c := New()
	if !c.HasSymbol("aapl") {
		t.Error("expected case-insensitive symbol lookup to match AAPL")
	}
	if c.HasSymbol("ZZZZ") {
		t.Error("unexpected match for ZZZZ")
	}
}
