package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *MatcherConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if (c.Kalshi.APIKey == "") != (c.Kalshi.PrivateKeyPath == "") {
		return errors.New("kalshi.api_key and kalshi.private_key_path must be set together")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	case DriverSQLite:
		if c.Database.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory, got %q", c.Database.Driver)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if err := c.Scan.validate(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (s *ScanConfig) validate() error {
	if s.CandidateThreshold <= 0 || s.CandidateThreshold >= 1 {
		return fmt.Errorf("scan.candidate_threshold must be in (0, 1), got %v", s.CandidateThreshold)
	}
	if s.HighConfidenceThreshold <= s.CandidateThreshold || s.HighConfidenceThreshold > 1 {
		return fmt.Errorf("scan.high_confidence_threshold (%v) must be in (candidate_threshold, 1]", s.HighConfidenceThreshold)
	}
	if s.LowConfidenceFloor < 0 || s.LowConfidenceFloor >= s.CandidateThreshold {
		return fmt.Errorf("scan.low_confidence_floor (%v) must be in [0, candidate_threshold)", s.LowConfidenceFloor)
	}
	if s.TopK < 1 {
		return errors.New("scan.top_k must be >= 1")
	}
	if s.FlatMaxPages < 1 {
		return errors.New("scan.flat_max_pages must be >= 1")
	}
	if s.FlatPageSize < 1 {
		return errors.New("scan.flat_page_size must be >= 1")
	}
	if s.BaselineSize < 1 {
		return errors.New("scan.baseline_size must be >= 1")
	}
	if s.BatchSize < 1 {
		return errors.New("scan.batch_size must be >= 1")
	}
	if s.CallTimeout <= 0 {
		return errors.New("scan.call_timeout must be positive")
	}
	for i, tag := range s.PolymarketTags {
		if tag.ID == "" {
			return fmt.Errorf("scan.polymarket_tags[%d].id is required", i)
		}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
