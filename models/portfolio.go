package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the aggregate of one owner's positions. Percentages are
// recomputed from the summed absolute fields, so they are cost-weighted.
type Portfolio struct {
	OwnerID                 int64           `json:"owner_id"`
	Name                    string          `json:"name"`
	Description             string          `json:"description,omitempty"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	InvestedCost            decimal.Decimal `json:"invested_cost"`
	CurrentValue            decimal.Decimal `json:"current_value"`
	UnrealizedResult        decimal.Decimal `json:"unrealized_result"`
	UnrealizedResultPercent decimal.Decimal `json:"unrealized_result_percentage"`
	RealizedResult          decimal.Decimal `json:"realized_result"`
	AnnualIncome            decimal.Decimal `json:"annual_income"`
	TotalIncome             decimal.Decimal `json:"total_income"`
	YieldOnCost             decimal.Decimal `json:"yield_on_cost"`
	TotalReturn             decimal.Decimal `json:"total_return"`
	TotalReturnPercent      decimal.Decimal `json:"total_return_percentage"`
	Positions               []Position      `json:"positions"`
	ValuedAt                time.Time       `json:"valued_at"`
}

// OpenPositions returns the positions that still hold shares.
func (p *Portfolio) OpenPositions() []Position {
	open := make([]Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		if pos.IsOpen() {
			open = append(open, pos)
		}
	}
	return open
}

// Position returns the position for symbol, if the portfolio has one.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return pos, true
		}
	}
	return Position{}, false
}

// PortfolioMeta is the persisted, user-editable part of a portfolio.
type PortfolioMeta struct {
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultPortfolioName is used when an owner's portfolio is created lazily.
const DefaultPortfolioName = "Default Portfolio"
