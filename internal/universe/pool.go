package universe

import "github.com/rickgao/venue-matcher/internal/model"

// Pool is an ordered set of Kalshi instruments keyed by ticker.
// The first instrument seen for a ticker wins. Not safe for concurrent use.
type Pool struct {
	items []model.TickerInstrument
	seen  map[string]struct{}
}

// NewPool creates an empty pool.
func NewPool(capacity int) *Pool {
	return &Pool{
		items: make([]model.TickerInstrument, 0, capacity),
		seen:  make(map[string]struct{}, capacity),
	}
}

// FromCache builds a pool from previously persisted tickers.
func FromCache(cached []model.CachedTicker) *Pool {
	p := NewPool(len(cached))
	for _, c := range cached {
		p.Add(model.TickerInstrument{Ticker: c.Ticker, Title: c.Title})
	}
	return p
}

// Add inserts inst unless its ticker is empty or already present.
func (p *Pool) Add(inst model.TickerInstrument) bool {
	if inst.Ticker == "" {
		return false
	}
	if _, ok := p.seen[inst.Ticker]; ok {
		return false
	}
	p.seen[inst.Ticker] = struct{}{}
	p.items = append(p.items, inst)
	return true
}

// Contains reports whether ticker is in the pool.
func (p *Pool) Contains(ticker string) bool {
	_, ok := p.seen[ticker]
	return ok
}

// Len returns the number of distinct tickers.
func (p *Pool) Len() int {
	return len(p.items)
}

// Items returns a copy of the instruments in first-seen order.
func (p *Pool) Items() []model.TickerInstrument {
	out := make([]model.TickerInstrument, len(p.items))
	copy(out, p.items)
	return out
}
