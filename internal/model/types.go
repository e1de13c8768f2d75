package model

import "time"

// -----------------------------------------------------------------------------
// Venue Instruments
// -----------------------------------------------------------------------------

// TickerInstrument is a Kalshi market snapshot. Read-only for the duration of a run.
type TickerInstrument struct {
	Ticker      string    // Primary key (e.g., "KXBTC-26MAR-T100000")
	EventTicker string    // Parent event (e.g., "KXBTC-26MAR")
	Title       string    // Display title
	Category    string    // Category of the parent event, may be empty
	CloseDate   time.Time // Market close time
}

// SubMarket is a binary market nested inside a Polymarket event.
type SubMarket struct {
	ID       string
	Question string
	Slug     string
}

// EventInstrument is a Polymarket event snapshot. Fetched fresh each run.
type EventInstrument struct {
	ID         string      // Polymarket event id
	Title      string      // Display title
	Slug       string      // URL slug
	EndDate    time.Time   // Resolution date
	SubMarkets []SubMarket // Nested binary markets
}

// -----------------------------------------------------------------------------
// Matching
// -----------------------------------------------------------------------------

// Confidence is the tier assigned to a match candidate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceNormal Confidence = "normal"
	ConfidenceLow    Confidence = "low"
)

// MatchCandidate is an ephemeral pairing produced by the matching engine.
type MatchCandidate struct {
	EventID    string     // Polymarket event id
	Ticker     string     // Kalshi ticker
	Score      float64    // Similarity in [0, 1]
	Reason     string     // Free-text justification
	Confidence Confidence // Tier
}

// PoolSource records where the Kalshi universe of a run came from.
type PoolSource string

const (
	// PoolLive is a universe fetched from Kalshi during the run.
	PoolLive PoolSource = "live"

	// PoolDegraded is a universe rebuilt from previously persisted pairs
	// because live retrieval yielded nothing. Matching relaxes its
	// low-confidence gate for degraded pools.
	PoolDegraded PoolSource = "degraded"
)

// -----------------------------------------------------------------------------
// Persisted Types
// -----------------------------------------------------------------------------

// PairStatus is the review state of a persisted pair.
type PairStatus string

const PairUnverified PairStatus = "unverified"

// MatchedPair is a persisted cross-venue pairing.
// Neither EventID nor Ticker may appear in more than one pair.
type MatchedPair struct {
	ID         int64      // Surrogate key, assigned by the store
	EventID    string     // Polymarket event id
	Ticker     string     // Kalshi ticker
	TitleA     string     // Polymarket title at match time
	TitleB     string     // Kalshi title at match time
	Status     PairStatus // Always "unverified" when created by a scan
	Confidence float64    // Score at match time
	CreatedAt  time.Time
}

// CachedTicker is a ticker/title pair recovered from persisted pairs.
type CachedTicker struct {
	Ticker string
	Title  string
}

// RunStatus is the lifecycle state of a scan run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScanRun is the bookkeeping record of a single scan invocation.
type ScanRun struct {
	ID             string
	Status         RunStatus
	StartedAt      time.Time
	CompletedAt    *time.Time // nil while running
	Error          string     // Machine code when failed
	PairsProcessed int
}

// RunPatch is a partial update to a ScanRun. Nil fields are left unchanged.
type RunPatch struct {
	Status         *RunStatus
	CompletedAt    *time.Time
	Error          *string
	PairsProcessed *int
}

// IsTerminal reports whether the run has left the running state.
func (r *ScanRun) IsTerminal() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}

// Apply merges a patch into the run.
func (r *ScanRun) Apply(p RunPatch) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		r.CompletedAt = &t
	}
	if p.Error != nil {
		r.Error = *p.Error
	}
	if p.PairsProcessed != nil {
		r.PairsProcessed = *p.PairsProcessed
	}
}
