package api

import (
	"context"

	"portfolio-manager/models"

	"github.com/shopspring/decimal"
)

// mockResolver serves fixed prices; unknown symbols get the default quote
type mockResolver struct {
	prices  map[string]string
	cleared bool
}

func (m *mockResolver) Resolve(ctx context.Context, symbol string) (models.Quote, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}
	q := models.NewDefaultQuote(sym)
	if p, ok := m.prices[sym]; ok {
		q.Price = decimal.RequireFromString(p)
		q.Volume = 1
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

func (m *mockResolver) ClearCache() { m.cleared = true }

func (m *mockResolver) CacheSize() int { return 2 }
