package app

import (
	"context"
	"fmt"
	"strings"

	"portfolio-manager/models"
)

// Quote resolves a single symbol through the cache and provider chain
func (a *App) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	return a.quotes.Resolve(ctx, symbol)
}

// SearchQuotes resolves a comma separated list of symbols. Results follow
// the order of first appearance; duplicates are dropped.
func (a *App) SearchQuotes(ctx context.Context, symbols string) ([]models.Quote, error) {
	var requested []string
	for _, s := range strings.Split(symbols, ",") {
		if strings.TrimSpace(s) != "" {
			requested = append(requested, s)
		}
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no symbols given", models.ErrInvalidSymbol)
	}

	quotes, err := a.quotes.ResolveMany(ctx, requested)
	if err != nil {
		return nil, err
	}

	out := make([]models.Quote, 0, len(quotes))
	seen := make(map[string]bool, len(quotes))
	for _, s := range requested {
		sym, _ := models.NormalizeSymbol(s)
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, quotes[sym])
	}
	return out, nil
}

// ClearQuoteCache drops all cached quotes and returns how many were fresh
func (a *App) ClearQuoteCache() int {
	n := a.quotes.CacheSize()
	a.quotes.ClearCache()
	return n
}
