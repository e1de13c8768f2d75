package universe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/polymarket"
)

type fakeTicker struct {
	mu          sync.Mutex
	marketCalls []api.GetMarketsOptions
	eventCalls  []api.GetEventsOptions

	markets func(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error)
	events  func(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error)
}

func (f *fakeTicker) GetMarkets(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
	f.mu.Lock()
	f.marketCalls = append(f.marketCalls, opts)
	f.mu.Unlock()
	return f.markets(ctx, opts)
}

func (f *fakeTicker) GetEvents(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error) {
	f.mu.Lock()
	f.eventCalls = append(f.eventCalls, opts)
	f.mu.Unlock()
	return f.events(ctx, opts)
}

func (f *fakeTicker) marketCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.marketCalls)
}

type fakeEvents struct {
	mu     sync.Mutex
	limits map[string]int
	byTag  map[string][]polymarket.APIEvent
	errTag map[string]error
}

func (f *fakeEvents) ListEvents(ctx context.Context, tagID string, limit int) ([]polymarket.APIEvent, error) {
	f.mu.Lock()
	if f.limits == nil {
		f.limits = make(map[string]int)
	}
	f.limits[tagID] = limit
	f.mu.Unlock()

	if err := f.errTag[tagID]; err != nil {
		return nil, err
	}
	return f.byTag[tagID], nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) ObserveRequest(venue, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[venue+"/"+outcome]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// page returns n markets with tickers prefix-0 .. prefix-(n-1).
func page(prefix string, n int, cursor string) *api.MarketsResponse {
	resp := &api.MarketsResponse{Cursor: cursor}
	for i := 0; i < n; i++ {
		resp.Markets = append(resp.Markets, api.APIMarket{
			Ticker: fmt.Sprintf("%s-%d", prefix, i),
			Title:  fmt.Sprintf("Market %s %d", prefix, i),
		})
	}
	return resp
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FlatPageSize = 10
	cfg.BaselineSize = 5
	cfg.CallTimeout = time.Second
	return cfg
}
