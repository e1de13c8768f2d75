// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/venue-matcher/internal/config"
	"github.com/rickgao/venue-matcher/internal/database"
	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/store"
	"github.com/rickgao/venue-matcher/internal/store/migrations"
)

// Store implements store.Store using a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Connect opens a pool from config and applies migrations.
func Connect(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunPostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

// New wraps an already migrated pool. The store owns the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateRun inserts a run. Returns ErrDuplicateKey if the id exists.
func (s *Store) CreateRun(ctx context.Context, run *model.ScanRun) error {
	if err := store.ValidateRun(run); err != nil {
		return err
	}

	query := `
		INSERT INTO scan_runs (id, status, started_at, completed_at, error, pairs_processed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		run.ID,
		string(run.Status),
		run.StartedAt,
		run.CompletedAt,
		run.Error,
		run.PairsProcessed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun applies the non-nil fields of patch.
func (s *Store) UpdateRun(ctx context.Context, id string, patch model.RunPatch) error {
	query := `
		UPDATE scan_runs SET
			status = COALESCE($2, status),
			completed_at = COALESCE($3, completed_at),
			error = COALESCE($4, error),
			pairs_processed = COALESCE($5, pairs_processed)
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		id,
		store.StatusPtr(patch.Status),
		patch.CompletedAt,
		patch.Error,
		patch.PairsProcessed,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update run %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*model.ScanRun, error) {
	query := `
		SELECT id, status, started_at, completed_at, error, pairs_processed
		FROM scan_runs
		WHERE id = $1
	`

	var (
		run    model.ScanRun
		status string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &status, &run.StartedAt, &run.CompletedAt, &run.Error, &run.PairsProcessed,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Status = model.RunStatus(status)
	return &run, nil
}

// FindExistingPair returns the oldest pair referencing either key.
func (s *Store) FindExistingPair(ctx context.Context, eventID, ticker string) (*model.MatchedPair, error) {
	query := `
		SELECT id, polymarket_id, kalshi_ticker, title_a, title_b, status, confidence, created_at
		FROM matched_pairs
		WHERE polymarket_id = $1 OR kalshi_ticker = $2
		ORDER BY id
		LIMIT 1
	`

	var (
		p      model.MatchedPair
		status string
	)
	err := s.pool.QueryRow(ctx, query, eventID, ticker).Scan(
		&p.ID, &p.EventID, &p.Ticker, &p.TitleA, &p.TitleB, &status, &p.Confidence, &p.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find existing pair: %w", err)
	}
	p.Status = model.PairStatus(status)
	return &p, nil
}

// CreatePair inserts a pair. Returns ErrDuplicateKey if either key is paired.
func (s *Store) CreatePair(ctx context.Context, pair *model.MatchedPair) error {
	if err := store.PreparePair(pair, s.now()); err != nil {
		return err
	}

	query := `
		INSERT INTO matched_pairs (polymarket_id, kalshi_ticker, title_a, title_b, status, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		pair.EventID,
		pair.Ticker,
		pair.TitleA,
		pair.TitleB,
		string(pair.Status),
		pair.Confidence,
		pair.CreatedAt,
	).Scan(&pair.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert pair: %w", err)
	}
	return nil
}

// ListCachedTickers returns tickers of persisted pairs, newest first.
func (s *Store) ListCachedTickers(ctx context.Context, limit int) ([]model.CachedTicker, error) {
	query := `SELECT kalshi_ticker, title_b FROM matched_pairs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cached tickers: %w", err)
	}
	defer rows.Close()

	var out []model.CachedTicker
	for rows.Next() {
		var c model.CachedTicker
		if err := rows.Scan(&c.Ticker, &c.Title); err != nil {
			return nil, fmt.Errorf("scan cached ticker: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached tickers: %w", err)
	}
	return out, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKeyError checks for a unique_violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
