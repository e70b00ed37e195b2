// Package e2e provides end-to-end testing infrastructure for the portfolio API.
package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"portfolio-manager/config"
	"portfolio-manager/e2e/mocks"
	"portfolio-manager/internal/api"
	"portfolio-manager/internal/app"
	"portfolio-manager/marketdata"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
	"portfolio-manager/services"

	"github.com/prometheus/client_golang/prometheus"
)

// TestHarness wires the real resolver, breakers, app and router against
// mock upstream providers.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	store      repository.Store
	repo       *repository.Repository
	breakers   *services.CircuitBreakerRegistry
	resolver   *marketdata.QuoteResolver
	app        *app.App
	router     http.Handler
	config     *config.Config
	metrics    *observability.Metrics
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup initializes all test dependencies. Postgres is used when
// E2E_DATABASE_URL is set, the in-memory store otherwise.
func (h *TestHarness) Setup() error {
	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()
	h.metrics = observability.NewMetrics(prometheus.NewRegistry())

	if dbURL := os.Getenv("E2E_DATABASE_URL"); dbURL != "" {
		if _, err := repository.Migrate(h.ctx, dbURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		repo, err := repository.NewRepository(h.ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to test database: %w", err)
		}
		h.repo = repo.WithMetrics(h.metrics)
		h.store = h.repo
		h.cleanupTestData()
	} else {
		h.store = repository.NewMemoryStore()
	}

	h.breakers = services.NewCircuitBreakerRegistry(marketdata.BreakerConfig(h.config)).WithMetrics(h.metrics)
	h.resolver = marketdata.NewResolverFromConfig(h.config, h.breakers).WithMetrics(h.metrics)

	h.app = app.New(h.config, h.store, h.resolver, h.breakers).WithMetrics(h.metrics)
	handler := api.NewHandler(h.app, h.config).WithMetrics(h.metrics)
	h.router = api.NewRouter(handler, h.config)

	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.cancel != nil {
		h.cancel()
	}

	if h.repo != nil {
		h.cleanupTestData()
	}

	if h.app != nil {
		h.app.Shutdown(context.Background())
	}

	if h.mockServer != nil {
		h.mockServer.Close()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Resolver returns the quote resolver.
func (h *TestHarness) Resolver() *marketdata.QuoteResolver {
	return h.resolver
}

// Metrics returns the metrics all components record on.
func (h *TestHarness) Metrics() *observability.Metrics {
	return h.metrics
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request on behalf of owner.
func (h *TestHarness) DoRequest(owner int64, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner > 0 {
		req.Header.Set(api.OwnerHeader, strconv.FormatInt(owner, 10))
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *TestHarness) createTestConfig() *config.Config {
	mockURL := h.mockServer.URL()

	cfg := config.NewTestConfig()
	cfg.StockAPI.BaseURL = mockURL
	cfg.StockAPI.Timeout = 2 * time.Second
	cfg.Marketstack.BaseURL = mockURL
	cfg.Marketstack.APIKey = "e2e-test-key"
	cfg.Marketstack.Timeout = 2 * time.Second
	cfg.CircuitBreaker.ConsecutiveFailures = 3
	cfg.CircuitBreaker.Timeout = time.Minute

	return cfg
}

// cleanupTestData removes rows written by E2E owners and TEST stocks.
func (h *TestHarness) cleanupTestData() {
	queries := []string{
		"DELETE FROM transactions WHERE owner_id >= 880000 AND owner_id < 890000",
		"DELETE FROM portfolios WHERE owner_id >= 880000 AND owner_id < 890000",
		"DELETE FROM stocks WHERE symbol LIKE 'E2E%'",
	}

	for _, q := range queries {
		if _, err := h.repo.Pool().Exec(context.Background(), q); err != nil {
			h.t.Logf("cleanup query failed: %s: %v", q, err)
		}
	}
}
