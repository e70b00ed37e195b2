package repository

import (
	"context"
	"fmt"
	"time"

	"portfolio-manager/models"
)

// GetOrCreatePortfolio returns the owner's portfolio metadata, creating it
// with the default name on first access
func (r *Repository) GetOrCreatePortfolio(ctx context.Context, ownerID int64) (*models.PortfolioMeta, error) {
	start := time.Now()

	var p models.PortfolioMeta
	err := r.db.QueryRow(ctx, `
		INSERT INTO portfolios (owner_id, name, description)
		VALUES ($1, $2, '')
		ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
		RETURNING owner_id, name, description, created_at, updated_at
	`, ownerID, models.DefaultPortfolioName).Scan(&p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	r.observe("upsert", "portfolios", start, err)

	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return &p, nil
}

// UpdatePortfolioName renames the owner's portfolio
func (r *Repository) UpdatePortfolioName(ctx context.Context, ownerID int64, name string) error {
	return r.updatePortfolioField(ctx, ownerID, "name", name)
}

// UpdatePortfolioDescription replaces the owner's portfolio description
func (r *Repository) UpdatePortfolioDescription(ctx context.Context, ownerID int64, description string) error {
	return r.updatePortfolioField(ctx, ownerID, "description", description)
}

// updatePortfolioField only receives column names from this file
func (r *Repository) updatePortfolioField(ctx context.Context, ownerID int64, column, value string) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE portfolios SET `+column+` = $2, updated_at = NOW() WHERE owner_id = $1`, ownerID, value)
	r.observe("update", "portfolios", start, err)

	if err != nil {
		return fmt.Errorf("failed to update portfolio %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio for owner %d: %w", ownerID, ErrNotFound)
	}
	return nil
}

// SavePortfolioSnapshot caches the latest valuation totals for display.
// The ledger stays the source of truth.
func (r *Repository) SavePortfolioSnapshot(ctx context.Context, p *models.Portfolio) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE portfolios SET
			snapshot_total_cost = $2,
			snapshot_current_value = $3,
			snapshot_realized_result = $4,
			snapshot_total_return = $5,
			snapshot_total_return_percentage = $6,
			snapshot_at = $7
		WHERE owner_id = $1
	`, p.OwnerID, p.TotalCost, p.CurrentValue, p.RealizedResult, p.TotalReturn, p.TotalReturnPercent, p.ValuedAt)
	r.observe("update", "portfolios", start, err)

	if err != nil {
		return fmt.Errorf("failed to save portfolio snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio for owner %d: %w", p.OwnerID, ErrNotFound)
	}
	return nil
}
