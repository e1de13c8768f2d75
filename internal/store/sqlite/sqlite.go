// Package sqlite implements store.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/store"
	"github.com/rickgao/venue-matcher/internal/store/migrations"
)

// Store implements store.Store using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrations.RunSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateRun inserts a run. Returns ErrDuplicateKey if the id exists.
func (s *Store) CreateRun(ctx context.Context, run *model.ScanRun) error {
	if err := store.ValidateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (id, status, started_at, completed_at, error, pairs_processed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt.UTC(), utcPtr(run.CompletedAt), run.Error, run.PairsProcessed,
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
	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_runs SET
			status = COALESCE(?, status),
			completed_at = COALESCE(?, completed_at),
			error = COALESCE(?, error),
			pairs_processed = COALESCE(?, pairs_processed)
		WHERE id = ?`,
		store.StatusPtr(patch.Status), utcPtr(patch.CompletedAt), patch.Error, patch.PairsProcessed, id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update run %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*model.ScanRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, started_at, completed_at, error, pairs_processed
		FROM scan_runs
		WHERE id = ?`, id)

	var (
		run       model.ScanRun
		status    string
		completed sql.NullTime
	)
	err := row.Scan(&run.ID, &status, &run.StartedAt, &completed, &run.Error, &run.PairsProcessed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// FindExistingPair returns the oldest pair referencing either key.
func (s *Store) FindExistingPair(ctx context.Context, eventID, ticker string) (*model.MatchedPair, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, polymarket_id, kalshi_ticker, title_a, title_b, status, confidence, created_at
		FROM matched_pairs
		WHERE polymarket_id = ? OR kalshi_ticker = ?
		ORDER BY id
		LIMIT 1`, eventID, ticker)

	var (
		p      model.MatchedPair
		status string
	)
	err := row.Scan(&p.ID, &p.EventID, &p.Ticker, &p.TitleA, &p.TitleB, &status, &p.Confidence, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matched_pairs (polymarket_id, kalshi_ticker, title_a, title_b, status, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pair.EventID, pair.Ticker, pair.TitleA, pair.TitleB, string(pair.Status), pair.Confidence, pair.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert pair: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get pair id: %w", err)
	}
	pair.ID = id
	return nil
}

// ListCachedTickers returns tickers of persisted pairs, newest first.
func (s *Store) ListCachedTickers(ctx context.Context, limit int) ([]model.CachedTicker, error) {
	query := `SELECT kalshi_ticker, title_b FROM matched_pairs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
