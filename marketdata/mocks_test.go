package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"portfolio-manager/models"
)

var errUpstream = errors.New("upstream down")

// mockProvider is a configurable QuoteProvider
type mockProvider struct {
	name    string
	calls   atomic.Int32
	fetchFn func(ctx context.Context, symbol string) (models.Quote, error)

	mu      sync.Mutex
	symbols []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.symbols = append(m.symbols, symbol)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, symbol)
	}
	return models.Quote{}, errUpstream
}

func (m *mockProvider) Calls() int { return int(m.calls.Load()) }

func failingProvider(name string) *mockProvider {
	return &mockProvider{name: name}
}

func pricedProvider(name string, price int64) *mockProvider {
	return &mockProvider{
		name: name,
		fetchFn: func(ctx context.Context, symbol string) (models.Quote, error) {
			q := models.NewDefaultQuote(symbol)
			q.Name = name + " " + symbol
			q.Price = decimal.NewFromInt(price)
			q.Volume = 1000
			return q, nil
		},
	}
}
