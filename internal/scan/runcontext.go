package scan

import (
	"time"

	"github.com/rickgao/venue-matcher/internal/matcher"
	"github.com/rickgao/venue-matcher/internal/mode"
	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/universe"
)

const (
	maxFailureSamples = 20
	maxTitleSamples   = 5
)

// Counts are the running totals reported on progress and complete events.
type Counts struct {
	Scanned    int `json:"scanned"`
	Candidates int `json:"candidates"`
	Added      int `json:"added"`
	Existing   int `json:"existing"`
	Skipped    int `json:"skipped"` // Candidates below the auto-persist tier
	Errors     int `json:"errors"`  // Persistence failures
	Unmatched  int `json:"unmatched"`
}

// FlatSummary records a flat pagination.
type FlatSummary struct {
	Pages      int    `json:"pages"`
	Received   int    `json:"received"`
	Markets    int    `json:"markets"`
	StopReason string `json:"stop_reason"`
}

// RunContext is the mutable state of one run. It is owned by the run's
// goroutine and passed to every phase.
type RunContext struct {
	RunID         string
	RequestID     string
	Request       Request
	StartedAt     time.Time
	Phase         Phase
	Mode          *mode.State
	Decision      *mode.Decision
	Hints         []string
	Keywords      []string
	Source        model.PoolSource
	Authenticated bool

	KalshiPool     int
	PolymarketPool int
	Flat           *FlatSummary
	Categories     []universe.CategorySummary
	Tags           []universe.TagSummary
	Failures       []string
	KalshiSamples  []string
	EventSamples   []string

	Counts Counts
	Match  matcher.Stats
}

func newRunContext(runID, requestID string, req Request, started time.Time, authenticated bool) *RunContext {
	return &RunContext{
		RunID:         runID,
		RequestID:     requestID,
		Request:       req,
		StartedAt:     started,
		Phase:         PhaseCreated,
		Mode:          mode.NewState(req.Mode),
		Source:        model.PoolLive,
		Authenticated: authenticated,
	}
}

func (rc *RunContext) addFailures(fs []*universe.FetchError) {
	for _, fe := range fs {
		if len(rc.Failures) >= maxFailureSamples {
			return
		}
		rc.Failures = append(rc.Failures, fe.Error())
	}
}

func (rc *RunContext) recordFlat(st *universe.FlatState) {
	rc.Flat = &FlatSummary{
		Pages:      st.Pages,
		Received:   st.Received,
		Markets:    st.Pool.Len(),
		StopReason: st.StopReason,
	}
	rc.addFailures(st.Failures)
}

func (rc *RunContext) sampleTickers(items []model.TickerInstrument) {
	rc.KalshiSamples = rc.KalshiSamples[:0]
	for i := 0; i < len(items) && i < maxTitleSamples; i++ {
		rc.KalshiSamples = append(rc.KalshiSamples, items[i].Title)
	}
}

func (rc *RunContext) sampleEvents(events []model.EventInstrument) {
	rc.EventSamples = rc.EventSamples[:0]
	for i := 0; i < len(events) && i < maxTitleSamples; i++ {
		rc.EventSamples = append(rc.EventSamples, events[i].Title)
	}
}

// Snapshot is the JSON view of a RunContext attached to debug and error events.
type Snapshot struct {
	RunID          string                     `json:"run_id"`
	Phase          Phase                      `json:"phase"`
	RequestedMode  mode.Mode                  `json:"requested_mode"`
	Mode           mode.Mode                  `json:"mode"`
	ModeSwitched   bool                       `json:"mode_switched"`
	Decision       *mode.Decision             `json:"decision,omitempty"`
	Hints          []string                   `json:"topic_hints,omitempty"`
	Keywords       []string                   `json:"keywords,omitempty"`
	PoolSource     model.PoolSource           `json:"pool_source"`
	KalshiPool     int                        `json:"kalshi_pool"`
	PolymarketPool int                        `json:"polymarket_pool"`
	Flat           *FlatSummary               `json:"flat,omitempty"`
	Categories     []universe.CategorySummary `json:"categories,omitempty"`
	Tags           []universe.TagSummary      `json:"tags,omitempty"`
	Failures       []string                   `json:"failures,omitempty"`
	KalshiSamples  []string                   `json:"kalshi_samples,omitempty"`
	EventSamples   []string                   `json:"polymarket_samples,omitempty"`
	Counts         Counts                     `json:"counts"`
	Match          matcher.Stats              `json:"match"`
	ElapsedMS      int64                      `json:"elapsed_ms"`
}

func (rc *RunContext) snapshot(now time.Time) Snapshot {
	return Snapshot{
		RunID:          rc.RunID,
		Phase:          rc.Phase,
		RequestedMode:  rc.Mode.Requested(),
		Mode:           rc.Mode.Current(),
		ModeSwitched:   rc.Mode.Switched(),
		Decision:       rc.Decision,
		Hints:          rc.Hints,
		Keywords:       rc.Keywords,
		PoolSource:     rc.Source,
		KalshiPool:     rc.KalshiPool,
		PolymarketPool: rc.PolymarketPool,
		Flat:           rc.Flat,
		Categories:     rc.Categories,
		Tags:           rc.Tags,
		Failures:       rc.Failures,
		KalshiSamples:  rc.KalshiSamples,
		EventSamples:   rc.EventSamples,
		Counts:         rc.Counts,
		Match:          rc.Match,
		ElapsedMS:      now.Sub(rc.StartedAt).Milliseconds(),
	}
}

// reason picks the complete reason by precedence.
func (rc *RunContext) reason() string {
	switch {
	case rc.KalshiPool == 0:
		return ReasonNoKalshiMarkets
	case rc.Source == model.PoolDegraded && !rc.Authenticated:
		return ReasonAuthMissingDegraded
	case rc.Source == model.PoolDegraded:
		return ReasonDegradedCached
	case rc.Counts.Candidates == 0:
		return ReasonNoMatches
	default:
		return ReasonCompletedNormally
	}
}
