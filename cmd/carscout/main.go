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

	"github.com/use-agent/carscout/api"
	"github.com/use-agent/carscout/cache"
	"github.com/use-agent/carscout/config"
	"github.com/use-agent/carscout/extractor"
	"github.com/use-agent/carscout/harvest"
	"github.com/use-agent/carscout/imageres"
	"github.com/use-agent/carscout/scraper"
	"github.com/use-agent/carscout/sink"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))
	slog.Info("carscout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
		"sink", cfg.Sink.URL,
	)

	// ── 3. Initialise scraper (launches browser, attaches engines) ──
	sc, err := scraper.Launch(cfg)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Harvest pipeline ─────────────────────────────────────────
	sinkClient := sink.NewClient(sink.Config{
		BaseURL: cfg.Sink.URL,
		Secret:  cfg.Sink.Secret,
		Timeout: cfg.Sink.Timeout,
	})
	ex := extractor.New(imageres.New(cfg.Marketplace.ImageHosts), nil)
	hv := harvest.New(ex, sinkClient, slog.Default())

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(api.Deps{
		Renderer:  cache.NewRenderer(sc, cfg.Cache.MaxEntries),
		Pool:      sc,
		Sink:      sinkClient,
		Harvester: hv,
		StartTime: time.Now(),
	}, cfg)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close runs via defer and kills Chrome.
	slog.Info("carscout stopped")
}
