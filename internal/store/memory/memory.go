// Package memory provides an in-memory Store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/store"
)

// Store is a concurrency-safe in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	runs     map[string]model.ScanRun
	pairs    []model.MatchedPair
	byEvent  map[string]int
	byTicker map[string]int
	nextID   int64
	now      func() time.Time
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		runs:     make(map[string]model.ScanRun),
		byEvent:  make(map[string]int),
		byTicker: make(map[string]int),
		now:      time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateRun stores a copy of run.
func (s *Store) CreateRun(_ context.Context, run *model.ScanRun) error {
	if err := store.ValidateRun(run); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return store.ErrDuplicateKey
	}
	s.runs[run.ID] = copyRun(*run)
	return nil
}

// UpdateRun merges patch into the stored run.
func (s *Store) UpdateRun(_ context.Context, id string, patch model.RunPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("update run %s: %w", id, store.ErrNotFound)
	}
	run.Apply(patch)
	s.runs[id] = run
	return nil
}

// GetRun returns a copy of the run.
func (s *Store) GetRun(_ context.Context, id string) (*model.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyRun(run)
	return &cp, nil
}

// FindExistingPair looks the pair up by event id first, then by ticker.
func (s *Store) FindExistingPair(_ context.Context, eventID, ticker string) (*model.MatchedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byEvent[eventID]
	if !ok {
		idx, ok = s.byTicker[ticker]
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	p := s.pairs[idx]
	return &p, nil
}

// CreatePair appends the pair if neither key is already paired.
func (s *Store) CreatePair(_ context.Context, pair *model.MatchedPair) error {
	if err := store.PreparePair(pair, s.now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEvent[pair.EventID]; ok {
		return store.ErrDuplicateKey
	}
	if _, ok := s.byTicker[pair.Ticker]; ok {
		return store.ErrDuplicateKey
	}

	s.nextID++
	pair.ID = s.nextID
	s.pairs = append(s.pairs, *pair)
	s.byEvent[pair.EventID] = len(s.pairs) - 1
	s.byTicker[pair.Ticker] = len(s.pairs) - 1
	return nil
}

// ListCachedTickers returns tickers newest first.
func (s *Store) ListCachedTickers(_ context.Context, limit int) ([]model.CachedTicker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.pairs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.CachedTicker, 0, n)
	for i := len(s.pairs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, model.CachedTicker{Ticker: s.pairs[i].Ticker, Title: s.pairs[i].TitleB})
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Pairs returns a copy of all stored pairs in insertion order.
func (s *Store) Pairs() []model.MatchedPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MatchedPair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

func copyRun(r model.ScanRun) model.ScanRun {
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	return r
}
