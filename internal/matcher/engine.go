package matcher

import (
	"context"
	"log/slog"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/textmatch"
)

// Config holds the classification thresholds.
type Config struct {
	CandidateThreshold float64 // Best score must exceed this to be a candidate (default: 0.25)
	HighThreshold      float64 // Candidates at or above are high confidence (default: 0.85)
	LowFloor           float64 // Low-confidence fallback must exceed this (default: 0.05)
	LowMaxCandidates   int     // Fallback allowed while fewer candidates were emitted (default: 10)
	TopK               int     // Tickers retained per event (default: 3)
}

// DefaultConfig returns the hand-tuned thresholds.
func DefaultConfig() Config {
	return Config{
		CandidateThreshold: 0.25,
		HighThreshold:      0.85,
		LowFloor:           0.05,
		LowMaxCandidates:   10,
		TopK:               3,
	}
}

// Scored is a ticker with its score against one event.
type Scored struct {
	Instrument model.TickerInstrument
	Result     textmatch.Result
	index      int // Position in the pool, for stable ordering
}

// Match is an emitted candidate with its context.
type Match struct {
	Event        model.EventInstrument
	Best         Scored
	Alternatives []Scored // Remaining retained tickers, best first
	Candidate    model.MatchCandidate
}

// Sink receives matches as they are found. A returned error stops the run.
type Sink func(ctx context.Context, m Match) error

// Options are per-run inputs.
type Options struct {
	Limit    int              // Stop after this many candidates; <= 0 means no limit
	Pool     model.PoolSource // Degraded pools relax the low-confidence gate
	Progress func(scanned int)
	Every    int // Progress cadence in events (default: 100)
}

// Stats summarises a matching pass.
type Stats struct {
	Scanned     int  `json:"scanned"`
	Candidates  int  `json:"candidates"`
	High        int  `json:"high"`
	Normal      int  `json:"normal"`
	Low         int  `json:"low"`
	Skipped     int  `json:"skipped"`
	Comparisons int  `json:"comparisons"`
	LimitHit    bool `json:"limit_hit"`
}

// Engine is the matching engine. It holds no per-run state.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Engine.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Classify maps a best score to a tier. ok is false when no candidate is
// emitted. emitted is the number of candidates emitted so far.
func (e *Engine) Classify(score float64, degraded bool, emitted int) (model.Confidence, bool) {
	switch {
	case score > e.cfg.CandidateThreshold && score >= e.cfg.HighThreshold:
		return model.ConfidenceHigh, true
	case score > e.cfg.CandidateThreshold:
		return model.ConfidenceNormal, true
	case score > e.cfg.LowFloor && (degraded || emitted < e.cfg.LowMaxCandidates):
		return model.ConfidenceLow, true
	default:
		return "", false
	}
}

// Run scores events against pool and calls sink for every candidate.
// The context is checked before each event.
func (e *Engine) Run(ctx context.Context, events []model.EventInstrument, pool []model.TickerInstrument, opts Options, sink Sink) (Stats, error) {
	var st Stats
	degraded := opts.Pool == model.PoolDegraded
	every := opts.Every
	if every <= 0 {
		every = 100
	}

	prepared := make([]textmatch.Prepared, len(pool))
	for i := range pool {
		prepared[i] = textmatch.Prepare(pool[i].Title)
	}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if opts.Limit > 0 && st.Candidates >= opts.Limit {
			st.LimitHit = true
			break
		}

		st.Scanned++
		evp := textmatch.Prepare(ev.Title)
		top := newTopK(e.cfg.TopK)

		for i := range pool {
			r := textmatch.ScorePrepared(evp, prepared[i])
			top.offer(Scored{Instrument: pool[i], Result: r, index: i})
		}
		st.Comparisons += len(pool)

		if opts.Progress != nil && st.Scanned%every == 0 {
			opts.Progress(st.Scanned)
		}

		best, ok := top.best()
		if !ok {
			st.Skipped++
			continue
		}

		tier, ok := e.Classify(best.Result.Value, degraded, st.Candidates)
		if !ok {
			st.Skipped++
			continue
		}

		st.Candidates++
		switch tier {
		case model.ConfidenceHigh:
			st.High++
		case model.ConfidenceNormal:
			st.Normal++
		case model.ConfidenceLow:
			st.Low++
		}

		m := Match{
			Event:        ev,
			Best:         best,
			Alternatives: top.rest(),
			Candidate: model.MatchCandidate{
				EventID:    ev.ID,
				Ticker:     best.Instrument.Ticker,
				Score:      best.Result.Value,
				Reason:     textmatch.Explain(evp, prepared[best.index], best.Result),
				Confidence: tier,
			},
		}
		if err := sink(ctx, m); err != nil {
			return st, err
		}
	}

	e.logger.Debug("matching pass complete",
		"events", len(events),
		"pool", len(pool),
		"scanned", st.Scanned,
		"candidates", st.Candidates,
		"limit_hit", st.LimitHit,
	)
	return st, nil
}
