package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"portfolio-manager/models"
)

var day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(symbol string, qty, price string, at time.Time) *models.Transaction {
	return &models.Transaction{
		Symbol:     symbol,
		Type:       models.TransactionTypeBuy,
		Quantity:   dec(qty),
		Price:      dec(price),
		Cost:       decimal.Zero,
		ExecutedAt: at,
	}
}

func sell(symbol string, qty, price string, at time.Time) *models.Transaction {
	tx := buy(symbol, qty, price, at)
	tx.Type = models.TransactionTypeSell
	return tx
}

func withFee(tx *models.Transaction, fee string) *models.Transaction {
	tx.Cost = dec(fee)
	return tx
}

// stored converts builders into persisted rows with IDs and sequence numbers
func stored(txs ...*models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		row := *tx
		row.ID = uuid.New()
		row.Seq = int64(i + 1)
		out[i] = row
	}
	return out
}

func priced(symbol, price string) models.Quote {
	q := models.NewDefaultQuote(symbol)
	q.Price = dec(price)
	return q
}

// mockQuoteSource returns fixed quotes
type mockQuoteSource struct {
	quotes map[string]models.Quote
	err    error
	calls  int
}

func (m *mockQuoteSource) ResolveMany(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]models.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}
