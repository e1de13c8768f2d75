package universe

import (
	"testing"

	"github.com/rickgao/venue-matcher/internal/model"
)

func TestPool_FirstSeenWins(t *testing.T) {
	p := NewPool(0)

	if !p.Add(model.TickerInstrument{Ticker: "A", Title: "first"}) {
		t.Fatal("Add(A) = false, want true")
	}
	if p.Add(model.TickerInstrument{Ticker: "A", Title: "second"}) {
		t.Error("duplicate Add(A) = true, want false")
	}
	if p.Add(model.TickerInstrument{Title: "no ticker"}) {
		t.Error("Add with empty ticker = true, want false")
	}
	p.Add(model.TickerInstrument{Ticker: "B"})

	items := p.Items()
	if p.Len() != 2 || len(items) != 2 {
		t.Fatalf("Len = %d, items = %d, want 2", p.Len(), len(items))
	}
	if items[0].Title != "first" || items[1].Ticker != "B" {
		t.Errorf("items = %+v", items)
	}
	if !p.Contains("B") || p.Contains("C") {
		t.Error("Contains mismatch")
	}

	items[0].Title = "mutated"
	if p.Items()[0].Title != "first" {
		t.Error("Items should return a copy")
	}
}

func TestFromCache(t *testing.T) {
	p := FromCache([]model.CachedTicker{
		{Ticker: "KXBTC-1", Title: "BTC above 100k"},
		{Ticker: "KXBTC-1", Title: "dup"},
		{Ticker: "KXFED-1", Title: "Fed cut"},
	})

	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	if got := p.Items()[0].Title; got != "BTC above 100k" {
		t.Errorf("Title = %q", got)
	}
}
