// matcher serves Kalshi/Polymarket scan runs over SSE and WebSocket.
// Usage: go run ./cmd/matcher --config configs/matcher.example.yaml
//
// Without --config the memory store and built-in defaults are used.
// Optional environment variables (loaded from .env when present):
//
//	KALSHI_API_KEY          - API key ID from the Kalshi dashboard
//	KALSHI_PRIVATE_KEY_PATH - Path to the RSA private key PEM file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/auth"
	"github.com/rickgao/venue-matcher/internal/config"
	"github.com/rickgao/venue-matcher/internal/metrics"
	"github.com/rickgao/venue-matcher/internal/polymarket"
	"github.com/rickgao/venue-matcher/internal/scan"
	"github.com/rickgao/venue-matcher/internal/store"
	"github.com/rickgao/venue-matcher/internal/store/memory"
	"github.com/rickgao/venue-matcher/internal/store/postgres"
	"github.com/rickgao/venue-matcher/internal/store/sqlite"
	"github.com/rickgao/venue-matcher/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting matcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	st, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Kalshi credentials are optional; unsigned requests still see public markets.
	kalshiOpts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Kalshi.Timeout),
		api.WithRetries(cfg.Kalshi.MaxRetries, config.DefaultRetryBackoff),
	}
	creds, err := auth.LoadOptional(cfg.Kalshi.APIKey, cfg.Kalshi.PrivateKeyPath)
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
		logger.Warn("kalshi credentials not configured, requests are unsigned")
	case err != nil:
		logger.Error("failed to load kalshi credentials", "error", err)
		os.Exit(1)
	default:
		kalshiOpts = append(kalshiOpts, api.WithCredentials(creds))
		logger.Info("using kalshi credentials", "key_id", creds.KeyID)
	}
	kalshi := api.NewClient(cfg.Kalshi.RestURL, kalshiOpts...)

	pm := polymarket.NewClient(cfg.Polymarket.GammaURL,
		polymarket.WithLogger(logger),
		polymarket.WithTimeout(cfg.Polymarket.Timeout),
		polymarket.WithRetries(cfg.Polymarket.MaxRetries, config.DefaultRetryBackoff),
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := scan.NewService(kalshi, pm, st, scan.SettingsFromConfig(cfg.Scan, cfg.Server),
		scan.WithMetrics(m),
		scan.WithLogger(logger),
		scan.WithAuthenticated(kalshi.HasCredentials()),
	)

	mux := http.NewServeMux()
	scan.NewHandler(svc, kalshi, logger).Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler(reg))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("matcher running",
		"scan_url", fmt.Sprintf("http://localhost:%d/api/scan", cfg.Server.Port),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
		"authenticated", kalshi.HasCredentials(),
		"driver", cfg.Database.Driver,
	)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("matcher stopped")
}

func loadConfig(path string) (*config.MatcherConfig, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Kalshi.APIKey = os.Getenv("KALSHI_API_KEY")
		cfg.Kalshi.PrivateKeyPath = os.Getenv("KALSHI_PRIVATE_KEY_PATH")
		return cfg, cfg.Validate()
	}
	return config.LoadAndValidate(path)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		logger.Info("connecting to postgres",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		return postgres.Connect(ctx, cfg.Postgres)
	case config.DriverSQLite:
		logger.Info("opening sqlite", "path", cfg.SQLite.Path)
		return sqlite.Open(ctx, cfg.SQLite.Path)
	case config.DriverMemory:
		logger.Warn("using in-memory store, pairs are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
