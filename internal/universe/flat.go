package universe

import (
	"context"
	"strconv"
	"time"

	"github.com/rickgao/venue-matcher/internal/api"
)

// Flat pagination stop reasons.
const (
	StopCursorEnd  = "cursor_end"
	StopEmptyPage  = "empty_page"
	StopMaxPages   = "max_pages"
	StopMaxMarkets = "max_markets"
	StopBudget     = "budget"
	StopPageError  = "page_error"
)

// FlatState is the resumable progress of a flat pagination. A baseline
// fetch returns a state that Flat continues from; the baseline page counts
// toward the page cap and the budget starts at its request.
type FlatState struct {
	Pool       *Pool
	Cursor     string
	Pages      int
	Received   int // Raw instruments received, duplicates included
	StopReason string
	Failures   []*FetchError

	started    time.Time
	done       bool
	lastFailed bool
}

// Done reports whether pagination has stopped for good.
func (s *FlatState) Done() bool {
	return s.done
}

func (s *FlatState) stop(reason string) {
	s.StopReason = reason
	s.done = true
}

// Baseline fetches a single small page of open markets.
func (f *Fetcher) Baseline(ctx context.Context, mveFilter string) (*FlatState, error) {
	st := &FlatState{Pool: NewPool(f.cfg.BaselineSize)}
	if err := f.paginate(ctx, st, mveFilter, f.cfg.BaselineSize, 1); err != nil {
		return st, err
	}
	return st, nil
}

// Flat paginates open markets until a cap, the budget, an empty cursor or
// an empty page stops it. st may be nil or a state returned by Baseline.
// A failed page is retried from the same cursor and still counts as a page.
func (f *Fetcher) Flat(ctx context.Context, st *FlatState, mveFilter string) (*FlatState, error) {
	if st == nil {
		st = &FlatState{Pool: NewPool(f.cfg.FlatPageSize)}
	}
	if err := f.paginate(ctx, st, mveFilter, f.cfg.FlatPageSize, f.cfg.FlatMaxPages); err != nil {
		return st, err
	}
	if !st.done {
		if st.lastFailed {
			st.stop(StopPageError)
		} else {
			st.stop(StopMaxPages)
		}
	}

	f.logger.Info("flat pagination complete",
		"pages", st.Pages,
		"received", st.Received,
		"markets", st.Pool.Len(),
		"stop", st.StopReason,
		"elapsed", f.now().Sub(st.started),
	)
	return st, nil
}

func (f *Fetcher) paginate(ctx context.Context, st *FlatState, mveFilter string, pageSize, maxPages int) error {
	if st.done {
		return nil
	}
	if st.started.IsZero() {
		st.started = f.now()
	}
	deadline := st.started.Add(f.cfg.FlatBudget)

	pctx, cancel := context.WithTimeout(ctx, deadline.Sub(f.now()))
	defer cancel()

	for st.Pages < maxPages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !f.now().Before(deadline) {
			st.stop(StopBudget)
			return nil
		}
		if st.Pool.Len() >= f.cfg.FlatMaxMarkets {
			st.stop(StopMaxMarkets)
			return nil
		}

		resp, err := f.venue.GetMarkets(pctx, api.GetMarketsOptions{
			Limit:     pageSize,
			Cursor:    st.Cursor,
			Status:    "open",
			MveFilter: mveFilter,
		})
		st.Pages++
		f.recorder.ObserveRequest("kalshi", outcomeOf(err))

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if pctx.Err() != nil {
				st.stop(StopBudget)
				return nil
			}
			fe := &FetchError{Op: "markets page", Key: strconv.Itoa(st.Pages), Err: err}
			st.Failures = appendFailure(st.Failures, fe)
			f.logger.Warn("flat page failed", "page", st.Pages, "cursor", st.Cursor, "err", err)
			st.lastFailed = true
			continue
		}
		st.lastFailed = false

		if len(resp.Markets) == 0 {
			st.stop(StopEmptyPage)
			return nil
		}

		st.Received += len(resp.Markets)
		for i := range resp.Markets {
			if st.Pool.Len() >= f.cfg.FlatMaxMarkets {
				st.stop(StopMaxMarkets)
				return nil
			}
			st.Pool.Add(resp.Markets[i].ToInstrument(""))
		}

		st.Cursor = resp.Cursor
		if st.Cursor == "" {
			st.stop(StopCursorEnd)
			return nil
		}
	}

	return nil
}
