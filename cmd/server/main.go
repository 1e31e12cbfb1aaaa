package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/growmetrics/sheetimport/internal/config"
	"github.com/growmetrics/sheetimport/internal/importer"
	"github.com/growmetrics/sheetimport/internal/logging"
	"github.com/growmetrics/sheetimport/internal/postgres"
	"github.com/growmetrics/sheetimport/internal/source"
	"github.com/growmetrics/sheetimport/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source_max_rows", cfg.Source.MaxRows,
		"sample_rows", cfg.Import.SampleRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Pick the store: Postgres when DATABASE_URL is configured, the
	// in-memory store otherwise.
	var store importer.Store
	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}
		store = postgres.NewStore(pool)
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		store = importer.NewMemoryStore()
	}

	connector := source.NewGoogleSheets(source.GoogleSheetsOptions{
		Timeout:  cfg.Source.FetchTimeout,
		MaxBytes: cfg.Source.MaxBytes,
		MaxRows:  cfg.Source.MaxRows,
	})

	service := importer.NewService(connector, store, slog.Default(), importer.ServiceOptions{
		SampleRows:      cfg.Import.SampleRows,
		DefaultCurrency: cfg.Import.DefaultCurrency,
	})

	server := web.NewServer(service, web.ServerOptions{
		RequestTimeout:   cfg.Server.RequestTimeout,
		RateLimit:        cfg.Rate.RequestsPerMinute,
		RateLimitEnabled: cfg.Rate.Enabled,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight imports to finish (with timeout)
		if active := service.Locks().ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Locks().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
