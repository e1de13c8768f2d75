package database

import (
	"fmt"
	"net/url"

	"github.com/rickgao/venue-matcher/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
// The password is query-escaped and ssl mode defaults to prefer.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
