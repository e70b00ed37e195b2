package models

import (
	"github.com/shopspring/decimal"
)

// Position is the derived aggregate of one symbol's transactions combined
// with the latest quote. It is recomputed on demand and never stored as
// authoritative state.
type Position struct {
	Symbol                  string          `json:"symbol"`
	Name                    string          `json:"stock_name"`
	Quantity                decimal.Decimal `json:"no_of_shares"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	CostPerShare            decimal.Decimal `json:"cost_per_share"`
	InvestedCost            decimal.Decimal `json:"invested_cost"`
	CurrentPrice            decimal.Decimal `json:"current_price"`
	CurrentValue            decimal.Decimal `json:"current_value"`
	UnrealizedResult        decimal.Decimal `json:"unrealized_result"`
	UnrealizedResultPercent decimal.Decimal `json:"unrealized_result_percentage"`
	RealizedResult          decimal.Decimal `json:"realized_result"`
	AnnualIncome            decimal.Decimal `json:"annual_income"`
	TotalIncome             decimal.Decimal `json:"total_income"`
	YieldOnCost             decimal.Decimal `json:"yield_on_cost"`
	TotalReturn             decimal.Decimal `json:"total_return"`
	TotalReturnPercent      decimal.Decimal `json:"total_return_percentage"`
	TransactionCount        int             `json:"transaction_count"`
}

// IsOpen reports whether the position still holds shares. Fully exited
// positions keep their realized result for historical reporting.
func (p Position) IsOpen() bool {
	return p.Quantity.IsPositive()
}
