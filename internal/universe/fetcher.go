package universe

import (
	"log/slog"
	"time"
)

// maxFailureSamples bounds the failures kept for diagnostics.
const maxFailureSamples = 25

// Fetcher retrieves the Kalshi universe.
type Fetcher struct {
	cfg      Config
	venue    TickerVenue
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewFetcher creates a Kalshi universe fetcher. rec may be nil.
func NewFetcher(cfg Config, venue TickerVenue, rec Recorder, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Fetcher{
		cfg:      cfg,
		venue:    venue,
		recorder: rec,
		logger:   logger,
		now:      time.Now,
	}
}

// Config returns the fetcher's bounds.
func (f *Fetcher) Config() Config {
	return f.cfg
}

func appendFailure(list []*FetchError, fe *FetchError) []*FetchError {
	if len(list) >= maxFailureSamples {
		return list
	}
	return append(list, fe)
}
