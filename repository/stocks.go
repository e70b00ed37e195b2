package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-manager/models"

	"github.com/jackc/pgx/v5"
)

const stockColumns = `symbol, name, price, change_percent, target_price, dividend_rate, dividend_growth,
	years_dividend_growth, credit_rating, comment, level`

// ListStocks returns the watch list ordered by symbol
func (r *Repository) ListStocks(ctx context.Context) ([]models.Stock, error) {
	start := time.Now()

	rows, err := r.db.Query(ctx, `SELECT `+stockColumns+` FROM stocks ORDER BY symbol`)
	if err != nil {
		r.observe("select", "stocks", start, err)
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]models.Stock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			r.observe("select", "stocks", start, err)
			return nil, err
		}
		stocks = append(stocks, s)
	}
	err = rows.Err()
	r.observe("select", "stocks", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to read stocks: %w", err)
	}

	return stocks, nil
}

// GetStock returns a single stock by symbol
func (r *Repository) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	start := time.Now()

	s, err := scanStock(r.db.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE symbol = $1`, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		r.observe("select", "stocks", start, nil)
		return nil, fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	r.observe("select", "stocks", start, err)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// UpsertStock creates the stock or replaces all of its fields
func (r *Repository) UpsertStock(ctx context.Context, stock *models.Stock) error {
	start := time.Now()
	_, err := r.db.Exec(ctx, `
		INSERT INTO stocks (`+stockColumns+`, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			change_percent = EXCLUDED.change_percent,
			target_price = EXCLUDED.target_price,
			dividend_rate = EXCLUDED.dividend_rate,
			dividend_growth = EXCLUDED.dividend_growth,
			years_dividend_growth = EXCLUDED.years_dividend_growth,
			credit_rating = EXCLUDED.credit_rating,
			comment = EXCLUDED.comment,
			level = EXCLUDED.level,
			updated_at = NOW()
	`, stock.Symbol, stock.Name, stock.Price, stock.ChangePercent, stock.TargetPrice, stock.DividendRate,
		stock.DividendGrowth, stock.YearsDividendGrowth, stock.CreditRating, stock.Comment, stock.Level)
	r.observe("upsert", "stocks", start, err)

	if err != nil {
		return fmt.Errorf("failed to upsert stock: %w", err)
	}
	return nil
}

// DeleteStock removes a stock from the watch list
func (r *Repository) DeleteStock(ctx context.Context, symbol string) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM stocks WHERE symbol = $1`, symbol)
	r.observe("delete", "stocks", start, err)

	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	return nil
}

func scanStock(row pgx.Row) (models.Stock, error) {
	var s models.Stock
	err := row.Scan(&s.Symbol, &s.Name, &s.Price, &s.ChangePercent, &s.TargetPrice, &s.DividendRate,
		&s.DividendGrowth, &s.YearsDividendGrowth, &s.CreditRating, &s.Comment, &s.Level)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("failed to scan stock: %w", err)
	}
	return s, nil
}
