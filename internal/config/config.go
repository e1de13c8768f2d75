package config

import "time"

// MatcherConfig is the root configuration for a matcher instance.
type MatcherConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Kalshi     KalshiConfig     `yaml:"kalshi"`
	Polymarket PolymarketConfig `yaml:"polymarket"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Scan       ScanConfig       `yaml:"scan"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InstanceConfig identifies this matcher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// KalshiConfig holds Kalshi API settings.
type KalshiConfig struct {
	RestURL        string        `yaml:"rest_url"`
	APIKey         string        `yaml:"api_key"`          // API key ID (for KALSHI-ACCESS-KEY header)
	PrivateKeyPath string        `yaml:"private_key_path"` // Path to RSA private key PEM file
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// PolymarketConfig holds Polymarket Gamma API settings.
type PolymarketConfig struct {
	GammaURL   string        `yaml:"gamma_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and configures the pair store.
type DatabaseConfig struct {
	Driver   string       `yaml:"driver"` // postgres, sqlite or memory
	Postgres DBConfig     `yaml:"postgres"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
}

// DBConfig holds a single PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SQLiteConfig holds the local database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             int           `yaml:"port"`
	StreamGraceDelay time.Duration `yaml:"stream_grace_delay"` // Pause before closing a failed stream
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// ScanConfig holds matching thresholds and retrieval budgets.
type ScanConfig struct {
	// Matching
	CandidateThreshold         float64 `yaml:"candidate_threshold"`
	HighConfidenceThreshold    float64 `yaml:"high_confidence_threshold"`
	LowConfidenceFloor         float64 `yaml:"low_confidence_floor"`
	LowConfidenceMaxCandidates int     `yaml:"low_confidence_max_candidates"`
	TopK                       int     `yaml:"top_k"`

	// Mode decision
	SportsFractionThreshold float64 `yaml:"sports_fraction_threshold"`

	// Flat pagination
	FlatPageSize   int           `yaml:"flat_page_size"`
	FlatMaxPages   int           `yaml:"flat_max_pages"`
	FlatMaxMarkets int           `yaml:"flat_max_markets"`
	FlatBudget     time.Duration `yaml:"flat_budget"`
	BaselineSize   int           `yaml:"baseline_size"`

	// Scoped crawl
	TargetCategories     []string `yaml:"target_categories"`
	CategoryMaxPages     int      `yaml:"category_max_pages"`
	CategoryTargetEvents int      `yaml:"category_target_events"`
	EventPageSize        int      `yaml:"event_page_size"`
	EventFetchMultiplier int      `yaml:"event_fetch_multiplier"`
	EventFetchCap        int      `yaml:"event_fetch_cap"`

	// Fan-out
	BatchSize   int           `yaml:"batch_size"`
	CallTimeout time.Duration `yaml:"call_timeout"`

	// Polymarket sampling
	PolymarketTags     []TagConfig `yaml:"polymarket_tags"`
	PolymarketTagLimit int         `yaml:"polymarket_tag_limit"` // Events requested per tag
}

// TagConfig is a Polymarket topic tag.
type TagConfig struct {
	Label string `yaml:"label"`
	ID    string `yaml:"id"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
