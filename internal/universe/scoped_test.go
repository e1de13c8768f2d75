package universe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/venue-matcher/internal/api"
)

// oneMarketPerEvent answers GetMarkets with a single market named after the event.
func oneMarketPerEvent(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
	return &api.MarketsResponse{Markets: []api.APIMarket{
		{Ticker: opts.EventTicker + "-M", EventTicker: opts.EventTicker, Title: "Market for " + opts.EventTicker},
	}}, nil
}

func categoryEvents(byCategory map[string][]api.APIEvent) func(context.Context, api.GetEventsOptions) (*api.EventsResponse, error) {
	return func(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error) {
		return &api.EventsResponse{Events: byCategory[opts.Category]}, nil
	}
}

func poolTickers(p *Pool) []string {
	var out []string
	for _, it := range p.Items() {
		out = append(out, it.Ticker)
	}
	return out
}

func TestScoped_FilterAndOrdering(t *testing.T) {
	venue := &fakeTicker{
		events: categoryEvents(map[string][]api.APIEvent{
			"Politics": {
				{EventTicker: "KXPRES-28", Title: "Presidential winner", Category: "Politics"},
				{EventTicker: "KXNFL-26", Title: "Pro football champion", Category: "Sports"},
				{EventTicker: "KXSENATE-26", Title: "Senate control", Category: "politics"},
			},
			"Crypto": {
				{EventTicker: "KXBTC-26MAR", Title: "Bitcoin price in March", Category: "Crypto"},
			},
		}),
		markets: oneMarketPerEvent,
	}

	cfg := testConfig()
	cfg.TargetCategories = []string{"Politics", "Crypto"}

	t.Run("hits first", func(t *testing.T) {
		f := NewFetcher(cfg, venue, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{Keywords: []string{"bitcoin"}, ResultLimit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := strings.Join(poolTickers(res.Pool), ",")
		want := "KXBTC-26MAR-M,KXPRES-28-M,KXSENATE-26-M"
		if got != want {
			t.Errorf("pool = %s, want %s", got, want)
		}
		if res.Categories[0].Scanned != 3 || res.Categories[0].Matched != 2 {
			t.Errorf("politics summary = %+v", res.Categories[0])
		}
		if res.Categories[1].Hits != 1 {
			t.Errorf("crypto hits = %d, want 1", res.Categories[1].Hits)
		}
		if items := res.Pool.Items(); items[0].Category != "Crypto" {
			t.Errorf("category = %q, want %q", items[0].Category, "Crypto")
		}
	})

	t.Run("require hit", func(t *testing.T) {
		f := NewFetcher(cfg, venue, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{
			Prefixes:    []string{"KXPRES"},
			RequireHit:  true,
			ResultLimit: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Join(poolTickers(res.Pool), ","); got != "KXPRES-28-M" {
			t.Errorf("pool = %s, want KXPRES-28-M", got)
		}
		if res.Dropped != 2 {
			t.Errorf("dropped = %d, want 2", res.Dropped)
		}
	})

	t.Run("require hit without hints keeps everything", func(t *testing.T) {
		f := NewFetcher(cfg, venue, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{RequireHit: true, ResultLimit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Pool.Len() != 3 {
			t.Errorf("pool = %d, want 3", res.Pool.Len())
		}
	})

	t.Run("event cap", func(t *testing.T) {
		capped := cfg
		capped.EventFetchMultiplier = 1
		f := NewFetcher(capped, venue, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Selected != 2 || res.Pool.Len() != 2 {
			t.Errorf("selected = %d, pool = %d, want 2", res.Selected, res.Pool.Len())
		}
	})
}

func TestScoped_CategoryPagination(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCategories = []string{"Economics"}
	cfg.CategoryMaxPages = 3
	cfg.CategoryTargetEvents = 1000

	calls := 0
	venue := &fakeTicker{
		events: func(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error) {
			calls++
			return &api.EventsResponse{
				Events: []api.APIEvent{{EventTicker: fmt.Sprintf("KXCPI-%d", calls), Category: "Economics"}},
				Cursor: "more",
			}, nil
		},
		markets: oneMarketPerEvent,
	}

	f := NewFetcher(cfg, venue, nil, quietLogger())
	res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || res.Categories[0].Pages != 3 {
		t.Errorf("calls = %d, pages = %d, want 3", calls, res.Categories[0].Pages)
	}
	if venue.eventCalls[1].Cursor != "more" || venue.eventCalls[0].Category != "Economics" {
		t.Errorf("event calls = %+v", venue.eventCalls)
	}

	t.Run("target reached", func(t *testing.T) {
		cfg.CategoryTargetEvents = 1
		calls = 0
		f := NewFetcher(cfg, venue, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 || res.Categories[0].Pages != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("page failure ends category", func(t *testing.T) {
		failing := &fakeTicker{
			events: func(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error) {
				return nil, &api.APIError{StatusCode: 503}
			},
			markets: oneMarketPerEvent,
		}
		f := NewFetcher(cfg, failing, nil, quietLogger())
		res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Pool.Len() != 0 || len(res.Failures) != 1 || res.Categories[0].Error == "" {
			t.Errorf("res = %+v", res)
		}
	})
}

func manyEvents(n int) map[string][]api.APIEvent {
	events := make([]api.APIEvent, n)
	for i := range events {
		events[i] = api.APIEvent{EventTicker: fmt.Sprintf("E-%d", i), Category: "Politics"}
	}
	return map[string][]api.APIEvent{"Politics": events}
}

func TestScoped_Batches(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCategories = []string{"Politics"}

	var inflight, peak atomic.Int32
	venue := &fakeTicker{
		events: categoryEvents(manyEvents(45)),
		markets: func(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
			n := inflight.Add(1)
			defer inflight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return oneMarketPerEvent(ctx, opts)
		},
	}

	f := NewFetcher(cfg, venue, nil, quietLogger())
	res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Batches != 3 {
		t.Errorf("batches = %d, want 3", res.Batches)
	}
	if res.Pool.Len() != 45 || res.Fetched != 45 {
		t.Errorf("pool = %d, fetched = %d, want 45", res.Pool.Len(), res.Fetched)
	}
	if peak.Load() > 20 {
		t.Errorf("peak concurrency = %d, want <= 20", peak.Load())
	}
	// Pool order follows event order regardless of completion order.
	if first := res.Pool.Items()[0].Ticker; first != "E-0-M" {
		t.Errorf("first = %q, want E-0-M", first)
	}
}

func TestScoped_SlowCallTimesOut(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCategories = []string{"Politics"}
	cfg.CallTimeout = 30 * time.Millisecond

	venue := &fakeTicker{
		events: categoryEvents(manyEvents(3)),
		markets: func(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
			if opts.EventTicker == "E-1" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return oneMarketPerEvent(ctx, opts)
		},
	}
	rec := &countingRecorder{}

	f := NewFetcher(cfg, venue, rec, quietLogger())
	res, err := f.Scoped(context.Background(), ScopedOptions{ResultLimit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(poolTickers(res.Pool), ","); got != "E-0-M,E-2-M" {
		t.Errorf("pool = %s, want E-0-M,E-2-M", got)
	}
	if res.Timeouts != 1 || len(res.Failures) != 1 || !res.Failures[0].IsTimeout() {
		t.Errorf("timeouts = %d, failures = %v", res.Timeouts, res.Failures)
	}
	if res.Failures[0].Key != "E-1" {
		t.Errorf("failure key = %q, want E-1", res.Failures[0].Key)
	}
	if rec.get("kalshi/timeout") != 1 {
		t.Errorf("recorded timeouts = %d, want 1", rec.get("kalshi/timeout"))
	}
}

func TestScoped_CancelMidBatch(t *testing.T) {
	cfg := testConfig()
	cfg.TargetCategories = []string{"Politics"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	venue := &fakeTicker{
		events: categoryEvents(manyEvents(30)),
		markets: func(cctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
			if opts.EventTicker == "E-3" {
				cancel()
			}
			<-cctx.Done()
			return nil, cctx.Err()
		},
	}

	f := NewFetcher(cfg, venue, nil, quietLogger())
	_, err := f.Scoped(ctx, ScopedOptions{ResultLimit: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := venue.marketCallCount(); n > 20 {
		t.Errorf("market calls = %d, second batch should not start", n)
	}
}
