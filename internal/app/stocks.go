package app

import (
	"context"
	"errors"
	"fmt"

	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
	"portfolio-manager/screener"
)

// ListStocks returns the watch list with prices refreshed from live quotes
func (a *App) ListStocks(ctx context.Context) ([]models.Stock, error) {
	stocks, err := a.store.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return stocks, nil
	}

	symbols := make([]string, len(stocks))
	for i, s := range stocks {
		symbols[i] = s.Symbol
	}
	quotes, err := a.quotes.ResolveMany(ctx, symbols)
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		if q, ok := quotes[stocks[i].Symbol]; ok && !q.IsZero() {
			stocks[i].ApplyQuote(q)
		}
	}
	return stocks, nil
}

// GetStock returns a stored stock with a refreshed price
func (a *App) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	stock, err := a.store.GetStock(ctx, sym)
	if err != nil {
		return nil, err
	}
	a.refreshPrice(ctx, stock)
	return stock, nil
}

// SearchStock looks a symbol up without storing it. Stored metadata is
// returned when the symbol is already on the watch list.
func (a *App) SearchStock(ctx context.Context, symbol string) (*models.Stock, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	stock, err := a.store.GetStock(ctx, sym)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		stock = &models.Stock{Symbol: sym, Level: models.StockLevelWatch}
	case err != nil:
		return nil, err
	}

	q, err := a.quotes.Resolve(ctx, sym)
	if err != nil {
		return nil, err
	}
	stock.ApplyQuote(q)
	if stock.Name == "" {
		stock.Name = sym
	}
	return stock, nil
}

// CreateStock adds a stock to the watch list
func (a *App) CreateStock(ctx context.Context, stock *models.Stock) (*models.Stock, error) {
	if err := stock.Validate(); err != nil {
		return nil, err
	}
	if _, err := a.store.GetStock(ctx, stock.Symbol); err == nil {
		return nil, fmt.Errorf("stock %s: %w", stock.Symbol, ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	a.refreshPrice(ctx, stock)
	if err := a.store.UpsertStock(ctx, stock); err != nil {
		return nil, err
	}
	observability.WithSymbol(stock.Symbol).Info("stock added", "level", stock.Level)
	return stock, nil
}

// UpdateStock replaces a stored stock's metadata. The path symbol wins over
// any symbol in the body.
func (a *App) UpdateStock(ctx context.Context, symbol string, stock *models.Stock) (*models.Stock, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.GetStock(ctx, sym); err != nil {
		return nil, err
	}

	stock.Symbol = sym
	if err := stock.Validate(); err != nil {
		return nil, err
	}
	a.refreshPrice(ctx, stock)
	if err := a.store.UpsertStock(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// DeleteStock removes a stock from the watch list. Transactions in the
// symbol are kept.
func (a *App) DeleteStock(ctx context.Context, symbol string) error {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return a.store.DeleteStock(ctx, sym)
}

// refreshPrice applies a live quote when one is available
func (a *App) refreshPrice(ctx context.Context, stock *models.Stock) {
	q, err := a.quotes.Resolve(ctx, stock.Symbol)
	if err != nil || q.IsZero() {
		return
	}
	stock.ApplyQuote(q)
}

// ScreenStocks ranks the watch list as dividend investments using live prices
func (a *App) ScreenStocks(ctx context.Context, criteria screener.Criteria) ([]screener.Candidate, error) {
	stocks, err := a.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	return screener.Screen(stocks, criteria), nil
}
