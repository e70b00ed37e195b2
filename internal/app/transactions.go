package app

import (
	"context"
	"fmt"

	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/repository"
)

// ListTransactions returns the owner's transactions in chronological order,
// optionally restricted to one symbol
func (a *App) ListTransactions(ctx context.Context, ownerID int64, symbol string) ([]models.Transaction, error) {
	if symbol == "" {
		return a.store.ListTransactions(ctx, ownerID)
	}
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return a.store.ListTransactionsBySymbol(ctx, ownerID, sym)
}

// GetTransaction returns one of the owner's transactions
func (a *App) GetTransaction(ctx context.Context, ownerID int64, id string) (*models.Transaction, error) {
	txID, err := ParseUUID(id)
	if err != nil {
		return nil, err
	}
	return a.store.GetTransaction(ctx, ownerID, txID)
}

// RecordTransaction appends tx to the owner's ledger and persists it. The
// ledger rejects invalid fields and any sale that exceeds the holdings at
// its execution time.
func (a *App) RecordTransaction(ctx context.Context, ownerID int64, tx *models.Transaction) (*models.Transaction, error) {
	unlock := a.lockOwner(ownerID)
	defer unlock()

	if _, err := a.store.GetOrCreatePortfolio(ctx, ownerID); err != nil {
		return nil, err
	}
	ledger, err := a.loadLedger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Append(tx); err != nil {
		return nil, err
	}
	if err := a.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	a.metrics.RecordTransaction(string(tx.Type))
	observability.WithOwner(ownerID).Info("transaction recorded",
		"id", tx.ID, "symbol", tx.Symbol, "type", tx.Type, "quantity", tx.Quantity.String())
	return tx, nil
}

// DeleteTransaction removes one of the owner's transactions. Removing a buy
// that later sales depend on is refused.
func (a *App) DeleteTransaction(ctx context.Context, ownerID int64, id string) error {
	txID, err := ParseUUID(id)
	if err != nil {
		return err
	}

	unlock := a.lockOwner(ownerID)
	defer unlock()

	ledger, err := a.loadLedger(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ledger.RemoveByID(txID) {
		return fmt.Errorf("transaction %s: %w", txID, repository.ErrNotFound)
	}
	if err := ledger.Verify(); err != nil {
		return fmt.Errorf("cannot delete transaction %s: %w", txID, err)
	}
	if err := a.store.DeleteTransaction(ctx, ownerID, txID); err != nil {
		return err
	}

	observability.WithOwner(ownerID).Info("transaction deleted", "id", txID)
	return nil
}
