package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"portfolio-manager/config"
	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/portfolio"
	"portfolio-manager/repository"
	"portfolio-manager/services"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput marks malformed request values such as a bad id
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when creating something that already exists
	ErrConflict = errors.New("already exists")
)

// QuoteResolver defines the quote operations needed by App
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (models.Quote, error)
	ResolveMany(ctx context.Context, symbols []string) (map[string]models.Quote, error)
	ClearCache()
	CacheSize() int
}

// BreakerStatus reports provider circuit breaker state
type BreakerStatus interface {
	Status() map[string]services.CircuitBreakerStatus
}

// App holds application dependencies using interfaces for testability
type App struct {
	cfg      *config.Config
	store    repository.Store
	quotes   QuoteResolver
	engine   *portfolio.Engine
	breakers BreakerStatus
	metrics  *observability.Metrics
	health   *healthCache

	// ownerLocks serializes ledger writes per owner
	ownerLocks sync.Map
}

// New creates a new App. breakers may be nil.
func New(cfg *config.Config, store repository.Store, quotes QuoteResolver, breakers BreakerStatus) *App {
	return &App{
		cfg:      cfg,
		store:    store,
		quotes:   quotes,
		engine:   portfolio.NewEngine(quotes),
		breakers: breakers,
		metrics:  observability.GetMetrics(),
		health:   newHealthCache(DefaultHealthCacheTTL),
	}
}

// WithMetrics records on m instead of the global metrics
func (a *App) WithMetrics(m *observability.Metrics) *App {
	a.metrics = m
	a.engine.WithMetrics(m)
	return a
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Shutdown releases the store
func (a *App) Shutdown(ctx context.Context) {
	if a.store != nil {
		a.store.Close()
	}
}

// HealthReport is the result of Health
type HealthReport struct {
	Status          string                                   `json:"status"`
	Database        string                                   `json:"database"`
	QuoteCacheSize  int                                      `json:"quote_cache_size"`
	CircuitBreakers map[string]services.CircuitBreakerStatus `json:"circuit_breakers"`
}

// Health checks the store and provider breakers. The status is "degraded"
// when the store is unreachable or any breaker is open. Store probes are
// cached for DefaultHealthCacheTTL.
func (a *App) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:          "ok",
		Database:        "connected",
		QuoteCacheSize:  a.quotes.CacheSize(),
		CircuitBreakers: map[string]services.CircuitBreakerStatus{},
	}

	valid, err := a.health.get()
	if !valid {
		err = a.store.Health(ctx)
		a.health.set(err)
		if err != nil {
			observability.WithError(err).Warn("store health check failed")
		}
	}
	if err != nil {
		report.Database = "disconnected"
		report.Status = "degraded"
	}

	if a.breakers != nil {
		report.CircuitBreakers = a.breakers.Status()
		for _, cb := range report.CircuitBreakers {
			if cb.State == "open" {
				report.Status = "degraded"
				break
			}
		}
	}

	return report
}

func (a *App) lockOwner(ownerID int64) func() {
	v, _ := a.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (a *App) loadLedger(ctx context.Context, ownerID int64) (*portfolio.Ledger, error) {
	txs, err := a.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return portfolio.NewLedger(ownerID, txs...), nil
}

// ParseUUID parses a transaction id
func ParseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrInvalidInput, id)
	}
	return parsed, nil
}
