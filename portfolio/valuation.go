package portfolio

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-manager/models"
	"portfolio-manager/observability"
)

const percentPlaces = 4

var hundred = decimal.NewFromInt(100)

// QuoteSource resolves quotes for a set of symbols
type QuoteSource interface {
	ResolveMany(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

// Engine values positions and whole portfolios against live quotes.
type Engine struct {
	quotes  QuoteSource
	metrics *observability.Metrics
	now     func() time.Time
}

func NewEngine(quotes QuoteSource) *Engine {
	return &Engine{
		quotes:  quotes,
		metrics: observability.GetMetrics(),
		now:     time.Now,
	}
}

// WithMetrics records on m instead of the global metrics
func (e *Engine) WithMetrics(m *observability.Metrics) *Engine {
	e.metrics = m
	return e
}

// ValuePosition replays one symbol's chronological transactions using
// weighted-average cost and prices the result with quote. stock may be nil;
// it supplies the dividend rate and a fallback display name.
func ValuePosition(symbol string, txs iter.Seq[models.Transaction], quote models.Quote, stock *models.Stock) (models.Position, error) {
	var (
		qty      = decimal.Zero
		cost     = decimal.Zero
		realized = decimal.Zero
		invested = decimal.Zero
		count    int
	)

	for tx := range txs {
		if tx.Symbol != symbol {
			return models.Position{}, fmt.Errorf("%w: transaction %s belongs to %s, not %s",
				ErrLedgerIntegrity, tx.ID, tx.Symbol, symbol)
		}
		count++

		switch tx.Type {
		case models.TransactionTypeBuy:
			amount := tx.Quantity.Mul(tx.Price).Add(tx.Cost)
			qty = qty.Add(tx.Quantity)
			cost = cost.Add(amount)
			invested = invested.Add(amount)

		case models.TransactionTypeSell:
			if tx.Quantity.GreaterThan(qty) {
				return models.Position{}, fmt.Errorf("%w: %s sells %s but only %s held at %s",
					ErrLedgerIntegrity, symbol, tx.Quantity, qty, tx.ExecutedAt.Format(time.RFC3339))
			}
			avg := safeDiv(cost, qty)
			basis := tx.Quantity.Mul(avg)
			realized = realized.Add(tx.Quantity.Mul(tx.Price).Sub(basis).Sub(tx.Cost))
			qty = qty.Sub(tx.Quantity)
			cost = cost.Sub(basis)
			if qty.IsZero() {
				cost = decimal.Zero
			}

		default:
			return models.Position{}, fmt.Errorf("%w: transaction %s has unknown type %q",
				ErrLedgerIntegrity, tx.ID, tx.Type)
		}
	}

	dividendRate := decimal.Zero
	name := quote.Name
	if stock != nil {
		dividendRate = stock.DividendRate
		if (name == "" || name == symbol) && stock.Name != "" {
			name = stock.Name
		}
	}
	if name == "" {
		name = symbol
	}

	value := qty.Mul(quote.Price)
	unrealized := value.Sub(cost)
	annual := qty.Mul(dividendRate)
	totalIncome := annual
	totalReturn := unrealized.Add(realized).Add(totalIncome)

	return models.Position{
		Symbol:                  symbol,
		Name:                    name,
		Quantity:                qty,
		TotalCost:               cost,
		CostPerShare:            safeDiv(cost, qty),
		InvestedCost:            invested,
		CurrentPrice:            quote.Price,
		CurrentValue:            value,
		UnrealizedResult:        unrealized,
		UnrealizedResultPercent: percent(unrealized, cost),
		RealizedResult:          realized,
		AnnualIncome:            annual,
		TotalIncome:             totalIncome,
		YieldOnCost:             percent(annual, cost),
		TotalReturn:             totalReturn,
		TotalReturnPercent:      percent(totalReturn, invested),
		TransactionCount:        count,
	}, nil
}

// ValuePortfolio values every symbol in the ledger and aggregates the
// results. Percentages are recomputed from the summed amounts. Closed
// positions are included.
func (e *Engine) ValuePortfolio(ctx context.Context, ledger *Ledger, stocks map[string]models.Stock) (models.Portfolio, error) {
	timer := e.metrics.NewTimer()
	defer timer.ObserveValuation("portfolio")

	symbols := ledger.Symbols()
	quotes, err := e.quotes.ResolveMany(ctx, symbols)
	if err != nil {
		e.metrics.RecordValuationError("quotes")
		return models.Portfolio{}, fmt.Errorf("failed to resolve quotes: %w", err)
	}

	p := models.Portfolio{
		OwnerID:   ledger.OwnerID(),
		Positions: make([]models.Position, 0, len(symbols)),
		ValuedAt:  e.now(),
	}

	for _, sym := range symbols {
		pos, err := valueWithStock(sym, ledger, quoteOrDefault(quotes, sym), stocks)
		if err != nil {
			e.recordError(err)
			return models.Portfolio{}, err
		}
		p.Positions = append(p.Positions, pos)
		accumulate(&p, pos)
	}

	p.UnrealizedResultPercent = percent(p.UnrealizedResult, p.TotalCost)
	p.YieldOnCost = percent(p.AnnualIncome, p.TotalCost)
	p.TotalReturnPercent = percent(p.TotalReturn, p.InvestedCost)
	return p, nil
}

// ValueSymbol values a single position from the ledger.
func (e *Engine) ValueSymbol(ctx context.Context, ledger *Ledger, symbol string, stock *models.Stock) (models.Position, error) {
	timer := e.metrics.NewTimer()
	defer timer.ObserveValuation("position")

	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.Position{}, err
	}
	quotes, err := e.quotes.ResolveMany(ctx, []string{sym})
	if err != nil {
		e.metrics.RecordValuationError("quotes")
		return models.Position{}, fmt.Errorf("failed to resolve quote: %w", err)
	}

	pos, err := ValuePosition(sym, ledger.TransactionsFor(sym), quoteOrDefault(quotes, sym), stock)
	if err != nil {
		e.recordError(err)
		return models.Position{}, err
	}
	return pos, nil
}

func valueWithStock(sym string, ledger *Ledger, quote models.Quote, stocks map[string]models.Stock) (models.Position, error) {
	var stock *models.Stock
	if s, ok := stocks[sym]; ok {
		stock = &s
	}
	return ValuePosition(sym, ledger.TransactionsFor(sym), quote, stock)
}

func quoteOrDefault(quotes map[string]models.Quote, sym string) models.Quote {
	if q, ok := quotes[sym]; ok {
		return q
	}
	return models.NewDefaultQuote(sym)
}

func accumulate(p *models.Portfolio, pos models.Position) {
	p.TotalCost = p.TotalCost.Add(pos.TotalCost)
	p.InvestedCost = p.InvestedCost.Add(pos.InvestedCost)
	p.CurrentValue = p.CurrentValue.Add(pos.CurrentValue)
	p.UnrealizedResult = p.UnrealizedResult.Add(pos.UnrealizedResult)
	p.RealizedResult = p.RealizedResult.Add(pos.RealizedResult)
	p.AnnualIncome = p.AnnualIncome.Add(pos.AnnualIncome)
	p.TotalIncome = p.TotalIncome.Add(pos.TotalIncome)
	p.TotalReturn = p.TotalReturn.Add(pos.TotalReturn)
}

func (e *Engine) recordError(err error) {
	if errors.Is(err, ErrLedgerIntegrity) {
		e.metrics.RecordValuationError("ledger_integrity")
		observability.WithError(err).Error("ledger replay failed")
		return
	}
	e.metrics.RecordValuationError("other")
}

// percent returns part/whole*100 rounded, zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(percentPlaces)
}

func safeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}
