package app

import (
	"context"
	"fmt"
	"strings"

	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
)

// Portfolio values the owner's whole ledger. The totals are saved as a
// display snapshot; failing to save is logged and does not fail the call.
func (a *App) Portfolio(ctx context.Context, ownerID int64) (*models.Portfolio, error) {
	meta, err := a.store.GetOrCreatePortfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ledger, err := a.loadLedger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stocks, err := a.stockIndex(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.engine.ValuePortfolio(ctx, ledger, stocks)
	if err != nil {
		return nil, err
	}
	p.Name = meta.Name
	p.Description = meta.Description

	if err := a.store.SavePortfolioSnapshot(ctx, &p); err != nil {
		observability.WithOwner(ownerID).Warn("failed to save portfolio snapshot", "error", err)
	}
	return &p, nil
}

// Positions returns every position, or only those still holding shares
func (a *App) Positions(ctx context.Context, ownerID int64, openOnly bool) ([]models.Position, error) {
	p, err := a.Portfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if openOnly {
		return p.OpenPositions(), nil
	}
	return p.Positions, nil
}

// Position values a single symbol. A symbol the owner never traded is
// reported as repository.ErrNotFound.
func (a *App) Position(ctx context.Context, ownerID int64, symbol string) (*models.Position, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	ledger, err := a.loadLedger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !hasSymbol(ledger.Symbols(), sym) {
		return nil, fmt.Errorf("position %s: %w", sym, repository.ErrNotFound)
	}

	var stock *models.Stock
	if s, err := a.store.GetStock(ctx, sym); err == nil {
		stock = s
	}

	pos, err := a.engine.ValueSymbol(ctx, ledger, sym, stock)
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// PortfolioMeta returns the owner's portfolio name and description
func (a *App) PortfolioMeta(ctx context.Context, ownerID int64) (*models.PortfolioMeta, error) {
	return a.store.GetOrCreatePortfolio(ctx, ownerID)
}

// RenamePortfolio sets a non-empty portfolio name
func (a *App) RenamePortfolio(ctx context.Context, ownerID int64, name string) (*models.PortfolioMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if _, err := a.store.GetOrCreatePortfolio(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := a.store.UpdatePortfolioName(ctx, ownerID, name); err != nil {
		return nil, err
	}
	return a.store.GetOrCreatePortfolio(ctx, ownerID)
}

// DescribePortfolio replaces the portfolio description, which may be empty
func (a *App) DescribePortfolio(ctx context.Context, ownerID int64, description string) (*models.PortfolioMeta, error) {
	if _, err := a.store.GetOrCreatePortfolio(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := a.store.UpdatePortfolioDescription(ctx, ownerID, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	return a.store.GetOrCreatePortfolio(ctx, ownerID)
}

func (a *App) stockIndex(ctx context.Context) (map[string]models.Stock, error) {
	stocks, err := a.store.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.Stock, len(stocks))
	for _, s := range stocks {
		index[s.Symbol] = s
	}
	return index, nil
}

func hasSymbol(symbols []string, sym string) bool {
	for _, s := range symbols {
		if s == sym {
			return true
		}
	}
	return false
}
