package app

import (
	"context"
	"errors"
	"sync"

	"portfolio-manager/models"
	"portfolio-manager/repository"
	"portfolio-manager/services"

	"github.com/shopspring/decimal"
)

// mockResolver serves fixed prices; unknown symbols get the default quote
type mockResolver struct {
	mu      sync.Mutex
	prices  map[string]string
	err     error
	cleared int
	cached  int
}

func newMockResolver(prices map[string]string) *mockResolver {
	return &mockResolver{prices: prices}
}

func (m *mockResolver) Resolve(ctx context.Context, symbol string) (models.Quote, error) {
	if m.err != nil {
		return models.Quote{}, m.err
	}
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q := models.NewDefaultQuote(sym)
	if p, ok := m.prices[sym]; ok {
		q.Price = decimal.RequireFromString(p)
		q.PreviousClose = q.Price
		q.Name = sym + " Corp"
		q.Volume = 100
	}
	return q, nil
}

func (m *mockResolver) ResolveMany(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(symbols))
	for _, s := range symbols {
		q, err := m.Resolve(ctx, s)
		if err != nil {
			return nil, err
		}
		out[q.Symbol] = q
	}
	return out, nil
}

func (m *mockResolver) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	m.cached = 0
}

func (m *mockResolver) CacheSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached
}

// mockBreakers returns a fixed status map
type mockBreakers map[string]services.CircuitBreakerStatus

func (m mockBreakers) Status() map[string]services.CircuitBreakerStatus {
	return m
}

// failingStore wraps a MemoryStore and fails selected operations
type failingStore struct {
	*repository.MemoryStore
	healthErr   error
	snapshotErr error
	createErr   error
	healthCalls int
}

var errStore = errors.New("store unavailable")

func (f *failingStore) Health(ctx context.Context) error {
	f.healthCalls++
	if f.healthErr != nil {
		return f.healthErr
	}
	return f.MemoryStore.Health(ctx)
}

func (f *failingStore) SavePortfolioSnapshot(ctx context.Context, p *models.Portfolio) error {
	if f.snapshotErr != nil {
		return f.snapshotErr
	}
	return f.MemoryStore.SavePortfolioSnapshot(ctx, p)
}

func (f *failingStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryStore.CreateTransaction(ctx, tx)
}
