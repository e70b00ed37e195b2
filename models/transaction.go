package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one buy or sell event. Transactions are immutable once
// persisted.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	OwnerID    int64           `json:"owner_id"`
	Seq        int64           `json:"seq"`
	Symbol     string          `json:"symbol"`
	Type       TransactionType `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	ExecutedAt time.Time       `json:"executed_at"`
}

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// ParseTransactionType accepts the type case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeBuy:
		return TransactionTypeBuy, nil
	case TransactionTypeSell:
		return TransactionTypeSell, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, s)
	}
}

func NewTransaction(ownerID int64, symbol string, txType TransactionType, quantity, price, cost decimal.Decimal, executedAt time.Time) *Transaction {
	return &Transaction{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Symbol:     symbol,
		Type:       txType,
		Quantity:   quantity,
		Price:      price,
		Cost:       cost,
		ExecutedAt: executedAt,
	}
}

// Validate normalizes the symbol in place and checks the field-level
// invariants. Holdings checks need the rest of the ledger and live in the
// portfolio package.
func (t *Transaction) Validate() error {
	symbol, err := NormalizeSymbol(t.Symbol)
	if err != nil {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTransaction)
	}
	t.Symbol = symbol

	if t.Type != TransactionTypeBuy && t.Type != TransactionTypeSell {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTransaction, t.Quantity)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidTransaction, t.Price)
	}
	if t.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative, got %s", ErrInvalidTransaction, t.Cost)
	}
	if t.ExecutedAt.IsZero() {
		return fmt.Errorf("%w: executed_at is required", ErrInvalidTransaction)
	}
	return nil
}

// Amount is quantity times price, fees excluded.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// Less orders transactions chronologically, ties broken by insertion order.
func (t *Transaction) Less(o *Transaction) bool {
	if !t.ExecutedAt.Equal(o.ExecutedAt) {
		return t.ExecutedAt.Before(o.ExecutedAt)
	}
	return t.Seq < o.Seq
}
