package universe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/venue-matcher/internal/api"
)

// marketsPerEvent is the page size used when listing an event's markets.
const marketsPerEvent = 200

// fetchEventMarkets fetches markets for events in batches of cfg.BatchSize.
// Members of a batch run concurrently; each call carries its own timeout.
// A batch completes when every member has succeeded or failed, and the
// caller's context is checked before each batch.
func (f *Fetcher) fetchEventMarkets(ctx context.Context, events []scopedEvent, mveFilter string, res *ScopedResult) (*Pool, error) {
	pool := NewPool(len(events) * 4)
	size := max(f.cfg.BatchSize, 1)

	for start := 0; start < len(events); start += size {
		if err := ctx.Err(); err != nil {
			return pool, err
		}

		batch := events[start:min(start+size, len(events))]
		markets := make([][]api.APIMarket, len(batch))
		errs := make([]error, len(batch))

		var g errgroup.Group
		for i, ev := range batch {
			g.Go(func() error {
				resp, err := callWithTimeout(ctx, f.cfg.CallTimeout, func(cctx context.Context) (*api.MarketsResponse, error) {
					return f.venue.GetMarkets(cctx, api.GetMarketsOptions{
						EventTicker: ev.ticker,
						Limit:       marketsPerEvent,
						Status:      "open",
						MveFilter:   mveFilter,
					})
				})
				f.recorder.ObserveRequest("kalshi", outcomeOf(err))
				if err != nil {
					errs[i] = err
					return nil
				}
				markets[i] = resp.Markets
				return nil
			})
		}
		_ = g.Wait()
		res.Batches++

		if err := ctx.Err(); err != nil {
			return pool, err
		}

		for i, ev := range batch {
			if errs[i] != nil {
				fe := &FetchError{Op: "markets", Key: ev.ticker, Err: errs[i]}
				res.Failures = appendFailure(res.Failures, fe)
				if fe.IsTimeout() {
					res.Timeouts++
				}
				f.logger.Warn("event markets fetch failed", "event_ticker", ev.ticker, "err", errs[i])
				continue
			}
			res.Fetched++
			for j := range markets[i] {
				pool.Add(markets[i][j].ToInstrument(ev.category))
			}
		}
	}

	return pool, nil
}

