package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rickgao/venue-matcher/internal/database"
	"github.com/rickgao/venue-matcher/internal/store/migrations"
)

// setupTestDB starts a PostgreSQL container, applies migrations, and returns
// a store. The container is terminated on test cleanup.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("MATCHER_INTEGRATION") != "1" {
		t.Skip("set MATCHER_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("matcher"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := database.Open(ctx, dsn, 0, 4)
	require.NoError(t, err, "failed to create pool")

	require.NoError(t, migrations.RunPostgres(ctx, pool), "failed to apply migrations")
	// Second pass checks the migrations are idempotent.
	require.NoError(t, migrations.RunPostgres(ctx, pool), "migrations are not idempotent")

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return New(pool)
}
