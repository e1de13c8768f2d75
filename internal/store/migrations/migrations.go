package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExecFunc executes one migration file.
type ExecFunc func(ctx context.Context, query string) error

// Files returns the migration file names for a dialect in lexical order.
func Files(dialect string) ([]string, error) {
	entries, err := fs.ReadDir(FS, dialect)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dialect, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Apply runs every embedded file of a dialect through exec in lexical order.
// Migrations are expected to be idempotent.
func Apply(ctx context.Context, dialect string, exec ExecFunc) error {
	files, err := Files(dialect)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(FS, dialect+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}

// RunPostgres applies the postgres migrations.
func RunPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	return Apply(ctx, Postgres, func(ctx context.Context, query string) error {
		_, err := pool.Exec(ctx, query)
		return err
	})
}

// RunSQLite applies the sqlite migrations.
func RunSQLite(ctx context.Context, db *sql.DB) error {
	return Apply(ctx, SQLite, func(ctx context.Context, query string) error {
		_, err := db.ExecContext(ctx, query)
		return err
	})
}
