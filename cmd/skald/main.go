package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/skald-run/skald/internal/config"
	"github.com/skald-run/skald/internal/consolidate"
	"github.com/skald-run/skald/internal/reputation"
	"github.com/skald-run/skald/internal/server"
	"github.com/skald-run/skald/internal/storage"
	"github.com/skald-run/skald/internal/telemetry"
	"github.com/skald-run/skald/internal/workload"
	"github.com/skald-run/skald/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := parseLogLevel(os.Getenv("SKALD_LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("skald starting", "version", version, "port", cfg.Port, "stateful", cfg.Stateful)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	metrics, err := telemetry.NewConsolidationMetrics(telemetry.Meter("skald/consolidate"))
	if err != nil {
		return fmt.Errorf("telemetry: consolidation metrics: %w", err)
	}

	var db *storage.DB
	var store reputation.Store
	if cfg.Stateful {
		db, err = storage.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}

		store = reputation.NewPostgresStore(db.Pool())
	} else {
		logger.Info("running in stateless mode: no database, reputation is request-scoped")
		store = reputation.NewMemoryStore()
	}

	rep, err := reputation.New(cfg.K, cfg.LF, store, logger)
	if err != nil {
		return fmt.Errorf("reputation: %w", err)
	}

	consolidator := consolidate.New(cfg.K, cfg.Dampening, cfg.Influence, logger)
	manager := workload.New(consolidator, rep, cfg.Stateful, logger)

	var pingable interface {
		Ping(ctx context.Context) error
	}
	if db != nil {
		pingable = db
	}

	srv := server.New(server.ServerConfig{
		Manager:             manager,
		Logger:              logger,
		DB:                  pingable,
		Metrics:             metrics,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		Stateful:            cfg.Stateful,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("skald shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("skald stopped")
	return nil
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
