package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultKalshiRestURL        = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultGammaURL             = "https://gamma-api.polymarket.com"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultPolymarketMaxRetries = 2
	DefaultRetryBackoff         = time.Second
	DefaultDriver               = DriverPostgres
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultSQLitePath           = "matcher.db"
	DefaultServerPort           = 8080
	DefaultStreamGraceDelay     = 500 * time.Millisecond
	DefaultReadTimeout          = 10 * time.Second
	DefaultShutdownTimeout      = 15 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultMetricsPath          = "/metrics"
)

// Scan defaults. The thresholds are hand-tuned.
const (
	DefaultCandidateThreshold         = 0.25
	DefaultHighConfidenceThreshold    = 0.85
	DefaultLowConfidenceFloor         = 0.05
	DefaultLowConfidenceMaxCandidates = 10
	DefaultTopK                       = 3
	DefaultSportsFractionThreshold    = 0.15
	DefaultFlatPageSize               = 1000
	DefaultFlatMaxPages               = 5
	DefaultFlatMaxMarkets             = 5000
	DefaultFlatBudget                 = 20 * time.Second
	DefaultBaselineSize               = 100
	DefaultCategoryMaxPages           = 20
	DefaultCategoryTargetEvents       = 120
	DefaultEventPageSize              = 200
	DefaultEventFetchMultiplier       = 5
	DefaultEventFetchCap              = 1000
	DefaultBatchSize                  = 20
	DefaultCallTimeout                = 10 * time.Second
	DefaultPolymarketTagLimit         = 200
)

// ApplyDefaults fills zero-valued optional fields.
func (c *MatcherConfig) ApplyDefaults() {
	// Kalshi defaults
	if c.Kalshi.RestURL == "" {
		c.Kalshi.RestURL = DefaultKalshiRestURL
	}
	if c.Kalshi.Timeout == 0 {
		c.Kalshi.Timeout = DefaultAPITimeout
	}
	if c.Kalshi.MaxRetries == 0 {
		c.Kalshi.MaxRetries = DefaultMaxRetries
	}

	// Polymarket defaults
	if c.Polymarket.GammaURL == "" {
		c.Polymarket.GammaURL = DefaultGammaURL
	}
	if c.Polymarket.Timeout == 0 {
		c.Polymarket.Timeout = DefaultAPITimeout
	}
	if c.Polymarket.MaxRetries == 0 {
		c.Polymarket.MaxRetries = DefaultPolymarketMaxRetries
	}

	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	applyDBDefaults(&c.Database.Postgres)
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = DefaultSQLitePath
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.StreamGraceDelay == 0 {
		c.Server.StreamGraceDelay = DefaultStreamGraceDelay
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	c.Scan.applyDefaults()

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func (s *ScanConfig) applyDefaults() {
	if s.CandidateThreshold == 0 {
		s.CandidateThreshold = DefaultCandidateThreshold
	}
	if s.HighConfidenceThreshold == 0 {
		s.HighConfidenceThreshold = DefaultHighConfidenceThreshold
	}
	if s.LowConfidenceFloor == 0 {
		s.LowConfidenceFloor = DefaultLowConfidenceFloor
	}
	if s.LowConfidenceMaxCandidates == 0 {
		s.LowConfidenceMaxCandidates = DefaultLowConfidenceMaxCandidates
	}
	if s.TopK == 0 {
		s.TopK = DefaultTopK
	}
	if s.SportsFractionThreshold == 0 {
		s.SportsFractionThreshold = DefaultSportsFractionThreshold
	}
	if s.FlatPageSize == 0 {
		s.FlatPageSize = DefaultFlatPageSize
	}
	if s.FlatMaxPages == 0 {
		s.FlatMaxPages = DefaultFlatMaxPages
	}
	if s.FlatMaxMarkets == 0 {
		s.FlatMaxMarkets = DefaultFlatMaxMarkets
	}
	if s.FlatBudget == 0 {
		s.FlatBudget = DefaultFlatBudget
	}
	if s.BaselineSize == 0 {
		s.BaselineSize = DefaultBaselineSize
	}
	if s.CategoryMaxPages == 0 {
		s.CategoryMaxPages = DefaultCategoryMaxPages
	}
	if s.CategoryTargetEvents == 0 {
		s.CategoryTargetEvents = DefaultCategoryTargetEvents
	}
	if s.EventPageSize == 0 {
		s.EventPageSize = DefaultEventPageSize
	}
	if s.EventFetchMultiplier == 0 {
		s.EventFetchMultiplier = DefaultEventFetchMultiplier
	}
	if s.EventFetchCap == 0 {
		s.EventFetchCap = DefaultEventFetchCap
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.CallTimeout == 0 {
		s.CallTimeout = DefaultCallTimeout
	}
	if s.PolymarketTagLimit == 0 {
		s.PolymarketTagLimit = DefaultPolymarketTagLimit
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
