// Command gateway runs the HTTP server described in SPEC_FULL.md §6:
// POST /api/v1/generate, GET /healthz, GET /metrics. Bootstrap and graceful
// shutdown are grounded on the teacher's cmd/tokenhub/main.go.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftgate/gateway/internal/app"
	"github.com/driftgate/gateway/internal/config"
	"github.com/driftgate/gateway/internal/httpapi"
)

var version = "dev"

func main() {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("app init error: %v", err)
	}

	srv := httpapi.New(a.Router, a.Credentials, a.Store.DB(), a.Metrics, a.Logger, httpapi.Config{
		RateLimitPerSecond: cfg.RateLimit.PerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
		IdempotencyTTL:     cfg.IdempotencyTTL(),
		TracingEnabled:     cfg.Tracing.Enabled,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteTimeout:      300 * time.Second,
	}

	go func() {
		log.Printf("gateway %s listening on %s", version, cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("shutting down (draining in-flight requests)...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Printf("app close error: %v", err)
	}
}
