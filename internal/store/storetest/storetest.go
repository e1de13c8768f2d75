// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/store"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("RunLifecycle", func(t *testing.T) { testRunLifecycle(t, newStore(t)) })
	t.Run("RunErrors", func(t *testing.T) { testRunErrors(t, newStore(t)) })
	t.Run("PairUniqueness", func(t *testing.T) { testPairUniqueness(t, newStore(t)) })
	t.Run("CachedTickers", func(t *testing.T) { testCachedTickers(t, newStore(t)) })
	t.Run("InvalidPair", func(t *testing.T) { testInvalidPair(t, newStore(t)) })
}

func testRunLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}

	run := &model.ScanRun{ID: "run-1", Status: model.RunRunning, StartedAt: started}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got.Status != model.RunRunning || got.CompletedAt != nil {
		t.Errorf("new run = %+v, want running with no completion time", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	processed := 7
	if err := s.UpdateRun(ctx, "run-1", model.RunPatch{PairsProcessed: &processed}); err != nil {
		t.Fatalf("UpdateRun(progress) error: %v", err)
	}

	status := model.RunFailed
	completed := started.Add(90 * time.Second)
	code := "CLIENT_ABORT"
	if err := s.UpdateRun(ctx, "run-1", model.RunPatch{Status: &status, CompletedAt: &completed, Error: &code}); err != nil {
		t.Fatalf("UpdateRun(fail) error: %v", err)
	}

	got, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got.Status != model.RunFailed {
		t.Errorf("Status = %q, want %q", got.Status, model.RunFailed)
	}
	if got.Error != code {
		t.Errorf("Error = %q, want %q", got.Error, code)
	}
	if got.PairsProcessed != processed {
		t.Errorf("PairsProcessed = %d, want %d (left untouched by later patch)", got.PairsProcessed, processed)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, completed)
	}
	if !got.IsTerminal() {
		t.Error("failed run should be terminal")
	}
}

func testRunErrors(t *testing.T, s store.Store) {
	ctx := context.Background()
	run := &model.ScanRun{ID: "run-dup", Status: model.RunRunning, StartedAt: time.Now().UTC()}

	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error: %v", err)
	}
	if err := s.CreateRun(ctx, run); !errors.Is(err, store.ErrDuplicateKey) {
		t.Errorf("duplicate CreateRun() = %v, want ErrDuplicateKey", err)
	}
	if err := s.CreateRun(ctx, &model.ScanRun{Status: model.RunRunning}); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("CreateRun(no id) = %v, want ErrInvalidInput", err)
	}

	status := model.RunCompleted
	if err := s.UpdateRun(ctx, "missing", model.RunPatch{Status: &status}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateRun(missing) = %v, want ErrNotFound", err)
	}
	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetRun(missing) = %v, want ErrNotFound", err)
	}
}

func testPairUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := &model.MatchedPair{
		EventID:    "pm-1",
		Ticker:     "KXBTC-26MAR-T100000",
		TitleA:     "Will BTC exceed $100k by March 2026",
		TitleB:     "BTC Above $100K",
		Confidence: 0.9,
	}
	if err := s.CreatePair(ctx, first); err != nil {
		t.Fatalf("CreatePair() error: %v", err)
	}
	if first.ID == 0 {
		t.Error("CreatePair() should assign an id")
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatePair() should set CreatedAt")
	}

	dups := []*model.MatchedPair{
		{EventID: "pm-1", Ticker: "OTHER", TitleA: "a", TitleB: "b", Confidence: 0.9},
		{EventID: "pm-2", Ticker: "KXBTC-26MAR-T100000", TitleA: "a", TitleB: "b", Confidence: 0.9},
	}
	for _, p := range dups {
		if err := s.CreatePair(ctx, p); !errors.Is(err, store.ErrDuplicateKey) {
			t.Errorf("CreatePair(%s, %s) = %v, want ErrDuplicateKey", p.EventID, p.Ticker, err)
		}
	}

	lookups := []struct {
		eventID, ticker string
	}{
		{"pm-1", "NOPE"},
		{"nope", "KXBTC-26MAR-T100000"},
		{"pm-1", "KXBTC-26MAR-T100000"},
	}
	for _, l := range lookups {
		got, err := s.FindExistingPair(ctx, l.eventID, l.ticker)
		if err != nil {
			t.Errorf("FindExistingPair(%s, %s) error: %v", l.eventID, l.ticker, err)
			continue
		}
		if got.ID != first.ID || got.Status != model.PairUnverified || got.TitleB != first.TitleB {
			t.Errorf("FindExistingPair(%s, %s) = %+v, want pair %d", l.eventID, l.ticker, got, first.ID)
		}
	}

	if _, err := s.FindExistingPair(ctx, "pm-9", "T9"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FindExistingPair(unknown) = %v, want ErrNotFound", err)
	}
}

func testCachedTickers(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.ListCachedTickers(ctx, 0)
	if err != nil {
		t.Fatalf("ListCachedTickers() error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty store returned %d tickers", len(empty))
	}

	for _, id := range []string{"1", "2", "3"} {
		p := &model.MatchedPair{EventID: "pm-" + id, Ticker: "T" + id, TitleA: "A" + id, TitleB: "B" + id, Confidence: 0.88}
		if err := s.CreatePair(ctx, p); err != nil {
			t.Fatalf("CreatePair(%s) error: %v", id, err)
		}
	}

	got, err := s.ListCachedTickers(ctx, 2)
	if err != nil {
		t.Fatalf("ListCachedTickers(2) error: %v", err)
	}
	want := []model.CachedTicker{{Ticker: "T3", Title: "B3"}, {Ticker: "T2", Title: "B2"}}
	if len(got) != len(want) {
		t.Fatalf("ListCachedTickers(2) = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tickers[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	all, err := s.ListCachedTickers(ctx, 0)
	if err != nil {
		t.Fatalf("ListCachedTickers(0) error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListCachedTickers(0) returned %d, want 3", len(all))
	}
}

func testInvalidPair(t *testing.T, s store.Store) {
	err := s.CreatePair(context.Background(), &model.MatchedPair{Ticker: "T1", Confidence: 0.9})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("CreatePair(no event id) = %v, want ErrInvalidInput", err)
	}
}
