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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/colwise/colwise/internal/config"
	"github.com/colwise/colwise/internal/history"
	"github.com/colwise/colwise/internal/infer"
	"github.com/colwise/colwise/internal/logging"
	"github.com/colwise/colwise/internal/session"
	"github.com/colwise/colwise/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"auto_detect", cfg.Upload.AutoDetect,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_enabled", cfg.Database.URL != "",
	)

	// Background jobs stop when this context is cancelled.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var store *history.Store
	if cfg.Database.URL != "" {
		pool, err := openPool(jobCtx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = history.New(pool, slog.Default())
		if err := store.Init(jobCtx); err != nil {
			slog.Error("failed to initialize history store", "error", err)
			os.Exit(1)
		}

		go store.StartRetention(jobCtx,
			cfg.History.PruneInterval,
			time.Duration(cfg.History.RetentionDays)*24*time.Hour)
	}

	var recorder session.Recorder
	if store != nil {
		recorder = store
	}

	service := session.NewService(session.Config{
		MaxFileSize:    cfg.Upload.MaxFileSize,
		PreviewRows:    cfg.Upload.PreviewRows,
		AutoDetect:     cfg.Upload.AutoDetect,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		MaxWait:        cfg.Upload.MaxWaitTime,
		ProcessTimeout: cfg.Upload.ProcessTimeout,
		Options: infer.Options{
			DecimalSeparator:   cfg.Detection.DecimalSeparator,
			ThousandsSeparator: cfg.Detection.ThousandsSeparator,
			StrictMode:         cfg.Detection.StrictMode,
			SampleLimit:        cfg.Detection.SampleLimit,
		},
	}, recorder, slog.Default())

	server := web.NewServer(service, store, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := service.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("active sessions did not finish in time", "error", err)
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

// openPool connects the pgx pool used by the history store and verifies
// the connection before returning it.
func openPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
