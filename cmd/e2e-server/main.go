// Package main provides a standalone HTTP server for E2E testing.
// It runs the same routes as cmd/server, but quotes come from in-process
// mock providers and storage is in memory unless E2E_DATABASE_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-manager/config"
	"portfolio-manager/e2e/mocks"
	"portfolio-manager/internal/api"
	"portfolio-manager/internal/app"
	"portfolio-manager/marketdata"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
	"portfolio-manager/services"
)

func main() {
	observability.InitLogger(false)
	observability.InitMetrics()

	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}

	upstream := mocks.NewMockServer()
	defer upstream.Close()

	cfg := config.NewTestConfig()
	cfg.HTTP.Addr = ":" + port
	cfg.StockAPI.BaseURL = upstream.URL()
	cfg.Marketstack.BaseURL = upstream.URL()
	cfg.Marketstack.APIKey = "e2e-test-key"

	ctx := context.Background()

	var store repository.Store = repository.NewMemoryStore()
	if databaseURL := os.Getenv("E2E_DATABASE_URL"); databaseURL != "" {
		if _, err := repository.Migrate(ctx, databaseURL); err != nil {
			observability.Fatal("failed to migrate test database", "error", err)
		}
		repo, err := repository.NewRepository(ctx, databaseURL)
		if err != nil {
			observability.Fatal("failed to connect to database", "error", err)
		}
		store = repo
		observability.Info("connected to test database")
	}

	breakers := services.NewCircuitBreakerRegistry(marketdata.BreakerConfig(cfg))
	resolver := marketdata.NewResolverFromConfig(cfg, breakers)
	application := app.New(cfg, store, resolver, breakers)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		observability.Info("starting E2E test server", "port", port,
			"url", fmt.Sprintf("http://localhost:%s", port), "upstream", upstream.URL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down E2E test server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("E2E test server stopped")
}
