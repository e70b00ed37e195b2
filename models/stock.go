package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Stock is watch-list metadata for a symbol. DividendRate is the annual
// dividend per share and drives income metrics.
type Stock struct {
	Symbol              string          `json:"symbol"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	ChangePercent       decimal.Decimal `json:"change_perc"`
	TargetPrice         decimal.Decimal `json:"target_price"`
	DividendRate        decimal.Decimal `json:"div_rate"`
	DividendGrowth      decimal.Decimal `json:"div_growth"`
	YearsDividendGrowth int             `json:"years_div_growth"`
	CreditRating        CreditRating    `json:"credit_rating,omitempty"`
	Comment             string          `json:"comment,omitempty"`
	Level               StockLevel      `json:"level"`
}

type CreditRating string

const (
	CreditRatingAAA  CreditRating = "AAA"
	CreditRatingAA   CreditRating = "AA"
	CreditRatingA    CreditRating = "A"
	CreditRatingBBB  CreditRating = "BBB"
	CreditRatingBB   CreditRating = "BB"
	CreditRatingB    CreditRating = "B"
	CreditRatingCCC  CreditRating = "CCC"
	CreditRatingNone CreditRating = "NONE"
)

type StockLevel string

const (
	StockLevelGoal      StockLevel = "GOAL"
	StockLevelWatch     StockLevel = "WATCH"
	StockLevelOwned     StockLevel = "OWNED"
	StockLevelAvailable StockLevel = "AVAILABLE"
)

var creditRatings = map[CreditRating]bool{
	CreditRatingAAA: true, CreditRatingAA: true, CreditRatingA: true,
	CreditRatingBBB: true, CreditRatingBB: true, CreditRatingB: true,
	CreditRatingCCC: true, CreditRatingNone: true,
}

var stockLevels = map[StockLevel]bool{
	StockLevelGoal: true, StockLevelWatch: true, StockLevelOwned: true, StockLevelAvailable: true,
}

// Validate normalizes the symbol and checks enum fields.
func (s *Stock) Validate() error {
	symbol, err := NormalizeSymbol(s.Symbol)
	if err != nil {
		return err
	}
	s.Symbol = symbol
	if s.Name == "" {
		s.Name = symbol
	}
	if s.Level == "" {
		s.Level = StockLevelWatch
	}
	s.Level = StockLevel(strings.ToUpper(string(s.Level)))
	if !stockLevels[s.Level] {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidStock, s.Level)
	}
	if s.CreditRating != "" {
		s.CreditRating = CreditRating(strings.ToUpper(string(s.CreditRating)))
		if !creditRatings[s.CreditRating] {
			return fmt.Errorf("%w: unknown credit rating %q", ErrInvalidStock, s.CreditRating)
		}
	}
	if s.DividendRate.IsNegative() {
		return fmt.Errorf("%w: dividend rate must not be negative", ErrInvalidStock)
	}
	if s.YearsDividendGrowth < 0 {
		return fmt.Errorf("%w: years of dividend growth must not be negative", ErrInvalidStock)
	}
	return nil
}

// ApplyQuote refreshes the price fields from a resolved quote.
func (s *Stock) ApplyQuote(q Quote) {
	if s.Name == "" || s.Name == s.Symbol {
		s.Name = q.Name
	}
	s.Price = q.Price
	s.ChangePercent = q.ChangePercent()
}
