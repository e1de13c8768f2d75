package scan

import (
	"time"

	"github.com/rickgao/venue-matcher/internal/config"
	"github.com/rickgao/venue-matcher/internal/matcher"
	"github.com/rickgao/venue-matcher/internal/mode"
	"github.com/rickgao/venue-matcher/internal/universe"
)

// Settings are the tunables a Service runs with.
type Settings struct {
	Universe          universe.Config
	Matcher           matcher.Config
	SportsThreshold   float64        // Auto switch threshold (default: 0.15)
	Tags              []universe.Tag // Polymarket tags sampled per run
	TagLimit          int            // Events requested per tag (default: 200)
	CachedTickerLimit int            // Degraded pool bound (default: 5000)
	GraceDelay        time.Duration  // Pause after a terminated event (default: 500ms)
	ProgressEvery     int            // Matching progress cadence in events (default: 100)
}

// DefaultSettings returns the hand-tuned defaults.
func DefaultSettings() Settings {
	return Settings{
		Universe:          universe.DefaultConfig(),
		Matcher:           matcher.DefaultConfig(),
		SportsThreshold:   mode.DefaultSportsThreshold,
		Tags:              universe.DefaultTags,
		TagLimit:          config.DefaultPolymarketTagLimit,
		CachedTickerLimit: MaxLimit,
		GraceDelay:        config.DefaultStreamGraceDelay,
		ProgressEvery:     100,
	}
}

// SettingsFromConfig maps loaded configuration onto Settings. Empty
// category and tag lists keep the built-in tables.
func SettingsFromConfig(sc config.ScanConfig, server config.ServerConfig) Settings {
	s := DefaultSettings()

	s.Universe = universe.Config{
		FlatPageSize:         sc.FlatPageSize,
		FlatMaxPages:         sc.FlatMaxPages,
		FlatMaxMarkets:       sc.FlatMaxMarkets,
		FlatBudget:           sc.FlatBudget,
		BaselineSize:         sc.BaselineSize,
		TargetCategories:     universe.DefaultTargetCategories,
		CategoryMaxPages:     sc.CategoryMaxPages,
		CategoryTargetEvents: sc.CategoryTargetEvents,
		EventPageSize:        sc.EventPageSize,
		EventFetchMultiplier: sc.EventFetchMultiplier,
		EventFetchCap:        sc.EventFetchCap,
		BatchSize:            sc.BatchSize,
		CallTimeout:          sc.CallTimeout,
	}
	if len(sc.TargetCategories) > 0 {
		s.Universe.TargetCategories = sc.TargetCategories
	}

	s.Matcher = matcher.Config{
		CandidateThreshold: sc.CandidateThreshold,
		HighThreshold:      sc.HighConfidenceThreshold,
		LowFloor:           sc.LowConfidenceFloor,
		LowMaxCandidates:   sc.LowConfidenceMaxCandidates,
		TopK:               sc.TopK,
	}
	s.SportsThreshold = sc.SportsFractionThreshold

	if len(sc.PolymarketTags) > 0 {
		s.Tags = make([]universe.Tag, len(sc.PolymarketTags))
		for i, t := range sc.PolymarketTags {
			s.Tags[i] = universe.Tag{Label: t.Label, ID: t.ID}
		}
	}
	if sc.PolymarketTagLimit > 0 {
		s.TagLimit = sc.PolymarketTagLimit
	}
	if server.StreamGraceDelay > 0 {
		s.GraceDelay = server.StreamGraceDelay
	}
	return s
}
