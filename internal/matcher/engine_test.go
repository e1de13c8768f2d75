package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/textmatch"
)

func quietEngine() *Engine {
	return New(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func collect(matches *[]Match) Sink {
	return func(ctx context.Context, m Match) error {
		*matches = append(*matches, m)
		return nil
	}
}

func TestClassify(t *testing.T) {
	e := quietEngine()

	tests := []struct {
		name     string
		score    float64
		degraded bool
		emitted  int
		want     model.Confidence
		wantOK   bool
	}{
		{"exact", 1.0, false, 0, model.ConfidenceHigh, true},
		{"at high threshold", 0.85, false, 0, model.ConfidenceHigh, true},
		{"normal", 0.5, false, 50, model.ConfidenceNormal, true},
		{"at candidate threshold is not a candidate", 0.25, false, 50, "", false},
		{"low while few emitted", 0.2, false, 9, model.ConfidenceLow, true},
		{"low blocked after enough emitted", 0.2, false, 10, "", false},
		{"low allowed when degraded", 0.2, true, 500, model.ConfidenceLow, true},
		{"at low floor", 0.05, true, 0, "", false},
		{"zero", 0, false, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Classify(tt.score, tt.degraded, tt.emitted)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Classify(%v, %v, %d) = (%q, %v), want (%q, %v)",
					tt.score, tt.degraded, tt.emitted, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRun_HighConfidenceScenario(t *testing.T) {
	events := []model.EventInstrument{{ID: "pm-1", Title: "Will BTC exceed $100k by March 2026"}}
	pool := []model.TickerInstrument{
		{Ticker: "KXNFL-1", Title: "Chiefs win the Super Bowl"},
		{Ticker: "KXBTC-26MAR-T100000", Title: "BTC Above $100K"},
	}

	var matches []Match
	st, err := quietEngine().Run(context.Background(), events, pool, Options{Limit: 10}, collect(&matches))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	c := matches[0].Candidate
	if c.Ticker != "KXBTC-26MAR-T100000" || c.EventID != "pm-1" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Score < 0.85 || c.Confidence != model.ConfidenceHigh {
		t.Errorf("score = %v, confidence = %q", c.Score, c.Confidence)
	}
	if !strings.Contains(c.Reason, "substring") || !strings.Contains(c.Reason, "edit_distance=") {
		t.Errorf("reason = %q", c.Reason)
	}
	if st.High != 1 || st.Candidates != 1 || st.Scanned != 1 || st.Comparisons != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRun_NoStrongMatches(t *testing.T) {
	var events []model.EventInstrument
	for i := 0; i < 10; i++ {
		events = append(events, model.EventInstrument{ID: fmt.Sprint(i), Title: fmt.Sprintf("Oscars best picture nominee %d", i)})
	}
	pool := []model.TickerInstrument{{Ticker: "KXCPI-1", Title: "CPI year over year"}}

	// Force the fallback gate closed so no low-confidence candidates appear.
	cfg := DefaultConfig()
	cfg.LowMaxCandidates = 0
	e := New(cfg, nil)

	var matches []Match
	st, err := e.Run(context.Background(), events, pool, Options{Limit: 1000}, collect(&matches))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 || st.Candidates != 0 {
		t.Errorf("candidates = %d, want 0", st.Candidates)
	}
	if st.Scanned != 10 || st.Skipped != 10 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRun_LimitIsAStoppingCondition(t *testing.T) {
	var events []model.EventInstrument
	var pool []model.TickerInstrument
	for i := 0; i < 20; i++ {
		title := fmt.Sprintf("Distinct topic number %c%c%c", 'a'+i, 'b'+i, 'c'+i)
		events = append(events, model.EventInstrument{ID: fmt.Sprint(i), Title: title})
		pool = append(pool, model.TickerInstrument{Ticker: fmt.Sprintf("T-%d", i), Title: title})
	}

	var matches []Match
	st, err := quietEngine().Run(context.Background(), events, pool, Options{Limit: 5}, collect(&matches))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 5 {
		t.Fatalf("matches = %d, want 5", len(matches))
	}
	if !st.LimitHit || st.Scanned != 5 {
		t.Errorf("stats = %+v", st)
	}
	// Earliest events win.
	for i, m := range matches {
		if m.Candidate.EventID != fmt.Sprint(i) {
			t.Errorf("match %d event = %s", i, m.Candidate.EventID)
		}
	}
}

func TestRun_TopKAlternatives(t *testing.T) {
	events := []model.EventInstrument{{ID: "e", Title: "Fed cuts rates in March"}}
	pool := []model.TickerInstrument{
		{Ticker: "A", Title: "Fed hikes rates in March"},
		{Ticker: "B", Title: "Fed cuts rates in March"},
		{Ticker: "C", Title: "Fed holds rates in March"},
		{Ticker: "D", Title: "Completely unrelated"},
	}

	var matches []Match
	if _, err := quietEngine().Run(context.Background(), events, pool, Options{}, collect(&matches)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := matches[0]
	if m.Best.Instrument.Ticker != "B" {
		t.Errorf("best = %s, want B", m.Best.Instrument.Ticker)
	}
	if len(m.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(m.Alternatives))
	}
	for _, alt := range m.Alternatives {
		if alt.Instrument.Ticker == "D" {
			t.Error("lowest score should not be retained")
		}
		if alt.Result.Value > m.Best.Result.Value {
			t.Error("alternative outranks best")
		}
	}
}

func TestRun_DegradedRelaxesLowGate(t *testing.T) {
	// Twelve events that each score weakly against the single pooled title.
	var events []model.EventInstrument
	for i := 0; i < 12; i++ {
		events = append(events, model.EventInstrument{ID: fmt.Sprint(i), Title: fmt.Sprintf("Recession odds %d", i)})
	}
	pool := []model.TickerInstrument{{Ticker: "KXRECSSNBER", Title: "Will the US enter a recession this year"}}

	for _, ev := range events {
		if v := textmatch.Score(ev.Title, pool[0].Title).Value; v <= 0.05 || v > 0.25 {
			t.Fatalf("fixture %q scores %v, outside the low band", ev.Title, v)
		}
	}

	run := func(src model.PoolSource) Stats {
		st, err := quietEngine().Run(context.Background(), events, pool, Options{Pool: src}, func(context.Context, Match) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return st
	}

	if st := run(model.PoolLive); st.Low != 10 {
		t.Errorf("live low = %d, want 10", st.Low)
	}
	if st := run(model.PoolDegraded); st.Low != 12 {
		t.Errorf("degraded low = %d, want 12", st.Low)
	}
}

func TestRun_EmptyPool(t *testing.T) {
	events := []model.EventInstrument{{ID: "1", Title: "Anything"}}

	st, err := quietEngine().Run(context.Background(), events, nil, Options{}, func(context.Context, Match) error {
		t.Error("sink called for empty pool")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", st.Skipped)
	}
}

func TestRun_CancelledAndSinkError(t *testing.T) {
	events := []model.EventInstrument{{ID: "1", Title: "BTC above 100k"}, {ID: "2", Title: "BTC above 100k"}}
	pool := []model.TickerInstrument{{Ticker: "KXBTC", Title: "BTC above 100k"}}

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := quietEngine().Run(ctx, events, pool, Options{}, func(context.Context, Match) error {
			calls++
			cancel()
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("sink calls = %d, want 1", calls)
		}
	})

	t.Run("sink error", func(t *testing.T) {
		boom := errors.New("stream closed")
		_, err := quietEngine().Run(context.Background(), events, pool, Options{}, func(context.Context, Match) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})
}

func TestRun_Progress(t *testing.T) {
	events := make([]model.EventInstrument, 7)
	var ticks []int
	_, err := quietEngine().Run(context.Background(), events, nil, Options{
		Every:    3,
		Progress: func(n int) { ticks = append(ticks, n) },
	}, collect(new([]Match)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ticks) != 2 || ticks[0] != 3 || ticks[1] != 6 {
		t.Errorf("ticks = %v, want [3 6]", ticks)
	}
}
