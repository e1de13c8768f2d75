// Package store defines the persistence boundary for scan runs and
// matched pairs.
//
// Implementations live in subpackages: postgres for production, sqlite for
// local use, and memory for tests. All of them enforce that a Polymarket
// event id or a Kalshi ticker appears in at most one matched pair.
package store

import (
	"context"

	"github.com/rickgao/venue-matcher/internal/model"
)

// Store persists scan run bookkeeping and matched pairs.
type Store interface {
	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// CreateRun inserts a new run. Returns ErrDuplicateKey if the id exists.
	CreateRun(ctx context.Context, run *model.ScanRun) error

	// UpdateRun applies a partial update. Returns ErrNotFound if the run does not exist.
	UpdateRun(ctx context.Context, id string, patch model.RunPatch) error

	// GetRun returns a run by id. Returns ErrNotFound if it does not exist.
	GetRun(ctx context.Context, id string) (*model.ScanRun, error)

	// FindExistingPair returns any pair referencing either the event id or
	// the ticker. Returns ErrNotFound if neither is referenced.
	FindExistingPair(ctx context.Context, eventID, ticker string) (*model.MatchedPair, error)

	// CreatePair inserts a pair and sets its ID and CreatedAt.
	// Returns ErrDuplicateKey if either key is already paired.
	CreatePair(ctx context.Context, pair *model.MatchedPair) error

	// ListCachedTickers returns ticker/title pairs from persisted pairs,
	// newest first. limit <= 0 means no limit.
	ListCachedTickers(ctx context.Context, limit int) ([]model.CachedTicker, error)

	// Close releases the underlying resources.
	Close() error
}
