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
	"time"

	"github.com/use-agent/carscout/config"
	"github.com/use-agent/carscout/ingest"
	"github.com/use-agent/carscout/store"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))

	st, err := openStore(cfg.Ingest)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Ingest.Host, cfg.Ingest.Port),
		Handler: ingest.NewServer(st, cfg.Ingest.Secret, slog.Default()).Router(cfg.Server.Mode),
	}

	go func() {
		slog.Info("sink listening", "addr", srv.Addr, "signed", cfg.Ingest.Secret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("sink server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("sink forced shutdown", "error", err)
	}
	slog.Info("sink stopped")
}

// openStore picks PostgreSQL when a database URL is configured and an
// in-memory store otherwise.
func openStore(cfg config.IngestConfig) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("no database configured, keeping listings in memory")
		return store.NewMemory(), nil
	}

	ctx := context.Background()
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	slog.Info("using postgres store")
	return pg, nil
}
