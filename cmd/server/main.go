// Package main runs the portfolio HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"portfolio-manager/config"
	"portfolio-manager/internal/api"
	"portfolio-manager/internal/app"
	"portfolio-manager/internal/settings"
	"portfolio-manager/marketdata"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
	"portfolio-manager/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		observability.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("failed to load configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))
	observability.InitMetrics()

	if cfg.HasSettings() {
		creds, err := settings.NewStore(cfg.Settings.Dir, cfg.Settings.Passphrase)
		if err != nil {
			observability.Fatal("failed to open settings store", "error", err)
		}
		creds.Apply(cfg)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		observability.Fatal("failed to initialize storage", "error", err)
	}

	breakers := services.NewCircuitBreakerRegistry(marketdata.BreakerConfig(cfg))
	resolver := marketdata.NewResolverFromConfig(cfg, breakers)
	observability.Info("quote providers configured", "providers", resolver.ProviderNames())

	application := app.New(cfg, store, resolver, breakers)
	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
	}

	go func() {
		observability.Info("starting portfolio server", "addr", cfg.HTTP.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down portfolio server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("portfolio server stopped")
}

// openStore migrates and connects to Postgres when DATABASE_URL is set,
// and falls back to the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if !cfg.HasDatabase() {
		observability.Warn("DATABASE_URL not set, using in-memory storage")
		return repository.NewMemoryStore(), nil
	}

	version, err := repository.Migrate(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	observability.Info("database migrated", "version", version)

	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
