package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time market snapshot for one symbol. Monetary fields
// are never absent: a zero decimal.Decimal means "no data".
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
	Open          decimal.Decimal `json:"open"`
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	YearHigh      decimal.Decimal `json:"year_high"`
	YearLow       decimal.Decimal `json:"year_low"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Volume        int64           `json:"volume"`
}

// NewDefaultQuote returns the all-zero quote used when no provider could
// deliver data. The display name falls back to the symbol.
func NewDefaultQuote(symbol string) Quote {
	return Quote{
		Symbol:        symbol,
		Name:          symbol,
		Price:         decimal.Zero,
		Bid:           decimal.Zero,
		Ask:           decimal.Zero,
		Open:          decimal.Zero,
		DayHigh:       decimal.Zero,
		DayLow:        decimal.Zero,
		YearHigh:      decimal.Zero,
		YearLow:       decimal.Zero,
		PreviousClose: decimal.Zero,
		Volume:        0,
	}
}

// IsZero reports whether the quote carries no market data at all.
func (q Quote) IsZero() bool {
	return q.Price.IsZero() && q.Bid.IsZero() && q.Ask.IsZero() &&
		q.Open.IsZero() && q.DayHigh.IsZero() && q.DayLow.IsZero() &&
		q.YearHigh.IsZero() && q.YearLow.IsZero() && q.PreviousClose.IsZero() &&
		q.Volume == 0
}

// ChangePercent returns the move from the previous close in percent,
// zero when there is no previous close.
func (q Quote) ChangePercent() decimal.Decimal {
	if q.PreviousClose.IsZero() {
		return decimal.Zero
	}
	return q.Price.Sub(q.PreviousClose).Div(q.PreviousClose).Mul(decimal.NewFromInt(100)).Round(4)
}

// NormalizeSymbol trims and uppercases a ticker. An empty result is
// reported as ErrInvalidSymbol.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}
