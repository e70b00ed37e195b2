package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-manager/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, owner_id, seq, symbol, type, quantity, price, cost, executed_at`

// ListTransactions returns the owner's transactions in chronological order
func (r *Repository) ListTransactions(ctx context.Context, ownerID int64) ([]models.Transaction, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_id = $1
		ORDER BY executed_at, seq
	`, ownerID)
	if err != nil {
		r.observe("select", "transactions", start, err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	r.observe("select", "transactions", start, err)
	return txs, err
}

// ListTransactionsBySymbol returns the owner's transactions for one symbol
func (r *Repository) ListTransactionsBySymbol(ctx context.Context, ownerID int64, symbol string) ([]models.Transaction, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_id = $1 AND symbol = $2
		ORDER BY executed_at, seq
	`, ownerID, symbol)
	if err != nil {
		r.observe("select", "transactions", start, err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	r.observe("select", "transactions", start, err)
	return txs, err
}

// GetTransaction returns a single transaction owned by ownerID
func (r *Repository) GetTransaction(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Transaction, error) {
	start := time.Now()

	var t models.Transaction
	err := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE owner_id = $1 AND id = $2
	`, ownerID, id).Scan(&t.ID, &t.OwnerID, &t.Seq, &t.Symbol, &t.Type, &t.Quantity, &t.Price, &t.Cost, &t.ExecutedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		r.observe("select", "transactions", start, nil)
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	r.observe("select", "transactions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	return &t, nil
}

// CreateTransaction inserts a transaction. The sequence number must already
// be assigned.
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	start := time.Now()
	_, err := r.db.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tx.ID, tx.OwnerID, tx.Seq, tx.Symbol, tx.Type, tx.Quantity, tx.Price, tx.Cost, tx.ExecutedAt)
	r.observe("insert", "transactions", start, err)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// DeleteTransaction removes a transaction owned by ownerID
func (r *Repository) DeleteTransaction(ctx context.Context, ownerID int64, id uuid.UUID) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE owner_id = $1 AND id = $2`, ownerID, id)
	r.observe("delete", "transactions", start, err)

	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.OwnerID, &t.Seq, &t.Symbol, &t.Type, &t.Quantity, &t.Price, &t.Cost, &t.ExecutedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	return txs, nil
}
