package universe

import "time"

// Config bounds every retrieval strategy.
type Config struct {
	// Flat pagination
	FlatPageSize   int           // Requested page size (default: 1000)
	FlatMaxPages   int           // Hard page cap, baseline included (default: 5)
	FlatMaxMarkets int           // Hard cap on accumulated tickers (default: 5000)
	FlatBudget     time.Duration // Wall clock from first request (default: 20s)
	BaselineSize   int           // Size of the auto-mode baseline page (default: 100)

	// Scoped crawl
	TargetCategories     []string // Kalshi event categories crawled in order
	CategoryMaxPages     int      // Event pages per category (default: 20)
	CategoryTargetEvents int      // Stop a category after this many matches (default: 120)
	EventPageSize        int      // Events per page (default: 200)
	EventFetchMultiplier int      // Distinct event cap = multiplier × result limit (default: 5)
	EventFetchCap        int      // Absolute distinct event cap (default: 1000)

	// Fan-out
	BatchSize   int           // Concurrent market fetches per batch (default: 20)
	CallTimeout time.Duration // Per-call timeout inside a batch (default: 10s)
}

// DefaultTargetCategories are the Kalshi categories crawled in scoped modes.
var DefaultTargetCategories = []string{
	"Politics",
	"Elections",
	"Economics",
	"Financials",
	"Crypto",
	"Companies",
	"World",
	"Science and Technology",
	"Climate and Weather",
	"Entertainment",
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FlatPageSize:         1000,
		FlatMaxPages:         5,
		FlatMaxMarkets:       5000,
		FlatBudget:           20 * time.Second,
		BaselineSize:         100,
		TargetCategories:     DefaultTargetCategories,
		CategoryMaxPages:     20,
		CategoryTargetEvents: 120,
		EventPageSize:        200,
		EventFetchMultiplier: 5,
		EventFetchCap:        1000,
		BatchSize:            20,
		CallTimeout:          10 * time.Second,
	}
}

// EventCap returns the distinct event bound for a requested result limit.
func (c Config) EventCap(resultLimit int) int {
	n := c.EventFetchMultiplier * resultLimit
	if n <= 0 || n > c.EventFetchCap {
		return c.EventFetchCap
	}
	return n
}
