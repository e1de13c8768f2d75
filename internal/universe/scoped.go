package universe

import (
	"context"
	"strings"

	"github.com/rickgao/venue-matcher/internal/api"
)

// ScopedOptions configures a category/event-scoped crawl.
type ScopedOptions struct {
	Keywords    []string // Lower-case substrings matched against event titles
	Prefixes    []string // Upper-case ticker prefixes matched against event and series tickers
	RequireHit  bool     // Drop events that match no keyword or prefix (ignored when both are empty)
	ResultLimit int      // Caller's requested result limit, bounds the event fan-out
	MveFilter   string
}

// CategorySummary records the crawl of one category.
type CategorySummary struct {
	Category string `json:"category"`
	Pages    int    `json:"pages"`
	Scanned  int    `json:"scanned"`
	Matched  int    `json:"matched"`
	Hits     int    `json:"hits"`
	Error    string `json:"error,omitempty"`
}

// ScopedResult is the outcome of a scoped crawl.
type ScopedResult struct {
	Pool       *Pool
	Categories []CategorySummary
	Selected   int // Distinct events chosen for market fetches
	Dropped    int // Distinct events beyond the event cap or without a required hit
	Batches    int
	Fetched    int // Events whose markets were fetched successfully
	Timeouts   int
	Failures   []*FetchError
}

type scopedEvent struct {
	ticker   string
	category string
	hit      bool
}

// Scoped crawls the target categories, selects events, and fetches their
// markets in fixed-size concurrent batches.
func (f *Fetcher) Scoped(ctx context.Context, opts ScopedOptions) (*ScopedResult, error) {
	start := f.now()
	res := &ScopedResult{}

	var events []scopedEvent
	for _, category := range f.cfg.TargetCategories {
		found, summary, err := f.crawlCategory(ctx, category, opts, res)
		if err != nil {
			return res, err
		}
		res.Categories = append(res.Categories, summary)
		events = append(events, found...)
	}

	selected := f.selectEvents(events, opts)
	res.Selected = len(selected)
	res.Dropped = countDistinct(events) - len(selected)

	pool, err := f.fetchEventMarkets(ctx, selected, opts.MveFilter, res)
	res.Pool = pool
	if err != nil {
		return res, err
	}

	f.logger.Info("scoped crawl complete",
		"categories", len(res.Categories),
		"events", res.Selected,
		"batches", res.Batches,
		"markets", pool.Len(),
		"failures", len(res.Failures),
		"duration", f.now().Sub(start),
	)
	return res, nil
}

func (f *Fetcher) crawlCategory(ctx context.Context, category string, opts ScopedOptions, res *ScopedResult) ([]scopedEvent, CategorySummary, error) {
	summary := CategorySummary{Category: category}
	var found []scopedEvent
	cursor := ""

	for summary.Pages < f.cfg.CategoryMaxPages {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		resp, err := callWithTimeout(ctx, f.cfg.CallTimeout, func(cctx context.Context) (*api.EventsResponse, error) {
			return f.venue.GetEvents(cctx, api.GetEventsOptions{
				Limit:    f.cfg.EventPageSize,
				Cursor:   cursor,
				Status:   "open",
				Category: category,
			})
		})
		f.recorder.ObserveRequest("kalshi", outcomeOf(err))
		if err != nil {
			if ctx.Err() != nil {
				return nil, summary, ctx.Err()
			}
			fe := &FetchError{Op: "events", Key: category, Err: err}
			res.Failures = appendFailure(res.Failures, fe)
			if fe.IsTimeout() {
				res.Timeouts++
			}
			summary.Error = err.Error()
			f.logger.Warn("category page failed", "category", category, "page", summary.Pages+1, "err", err)
			break
		}
		summary.Pages++

		for _, ev := range resp.Events {
			summary.Scanned++
			// The server-side category filter is not reliable.
			if !strings.EqualFold(ev.Category, category) {
				continue
			}
			hit := matchesHint(ev, opts)
			if hit {
				summary.Hits++
			}
			summary.Matched++
			found = append(found, scopedEvent{ticker: ev.EventTicker, category: ev.Category, hit: hit})
		}

		if summary.Matched >= f.cfg.CategoryTargetEvents || resp.Cursor == "" || len(resp.Events) == 0 {
			break
		}
		cursor = resp.Cursor
	}

	return found, summary, nil
}

// selectEvents orders hits first, deduplicates, and applies the event cap.
func (f *Fetcher) selectEvents(events []scopedEvent, opts ScopedOptions) []scopedEvent {
	requireHit := opts.RequireHit && (len(opts.Keywords) > 0 || len(opts.Prefixes) > 0)
	limit := f.cfg.EventCap(opts.ResultLimit)

	seen := make(map[string]struct{}, len(events))
	out := make([]scopedEvent, 0, min(len(events), limit))

	take := func(wantHit bool) {
		for _, ev := range events {
			if len(out) >= limit {
				return
			}
			if ev.hit != wantHit || ev.ticker == "" {
				continue
			}
			if _, ok := seen[ev.ticker]; ok {
				continue
			}
			seen[ev.ticker] = struct{}{}
			out = append(out, ev)
		}
	}

	take(true)
	if !requireHit {
		take(false)
	}
	return out
}

func matchesHint(ev api.APIEvent, opts ScopedOptions) bool {
	if len(opts.Keywords) > 0 {
		title := strings.ToLower(ev.Title)
		for _, kw := range opts.Keywords {
			if kw != "" && strings.Contains(title, kw) {
				return true
			}
		}
	}
	for _, p := range opts.Prefixes {
		if p == "" {
			continue
		}
		if strings.HasPrefix(ev.EventTicker, p) || strings.HasPrefix(ev.SeriesTicker, p) {
			return true
		}
	}
	return false
}

func countDistinct(events []scopedEvent) int {
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		seen[ev.ticker] = struct{}{}
	}
	return len(seen)
}

