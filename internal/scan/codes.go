package scan

// Machine-readable error codes.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeDBConnectionFailed = "DB_CONNECTION_FAILED"
	CodeFatal              = "FATAL_ERROR"
	CodeClientAbort        = "CLIENT_ABORT"
)

// Complete reasons, highest precedence first.
const (
	ReasonNoKalshiMarkets     = "no_kalshi_markets_available"
	ReasonAuthMissingDegraded = "kalshi_auth_missing_degraded"
	ReasonDegradedCached      = "degraded_cached_universe"
	ReasonNoMatches           = "no_matches_found"
	ReasonCompletedNormally   = "completed_normally"
)

// Persistence outcomes reported on candidate events.
const (
	PersistAdded    = "added"
	PersistExisting = "existing"
	PersistSkipped  = "skipped"
	PersistError    = "error"
)

// Phase is a run state.
type Phase string

const (
	PhaseCreated    Phase = "created"
	PhaseBaseline   Phase = "fetching_baseline"
	PhaseUniverse   Phase = "fetching_universe"
	PhaseMatching   Phase = "matching"
	PhaseCompleted  Phase = "completed"
	PhaseTerminated Phase = "terminated"
)
