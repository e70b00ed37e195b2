package portfolio

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"portfolio-manager/models"
	"portfolio-manager/observability"
)

func newTestEngine(quotes QuoteSource) (*Engine, *observability.Metrics) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	e := NewEngine(quotes).WithMetrics(m)
	e.now = func() time.Time { return day(30) }
	return e, m
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}

func TestValuePosition_WeightedAverage(t *testing.T) {
	txs := stored(
		buy("AAPL", "10", "100", day(0)),
		buy("AAPL", "10", "120", day(1)),
		sell("AAPL", "5", "150", day(2)),
	)
	stock := &models.Stock{Symbol: "AAPL", Name: "Apple", DividendRate: dec("2")}

	pos, err := ValuePosition("AAPL", slices.Values(txs), priced("AAPL", "130"), stock)
	if err != nil {
		t.Fatalf("ValuePosition() unexpected error: %v", err)
	}

	assertDecimal(t, "Quantity", pos.Quantity, "15")
	assertDecimal(t, "TotalCost", pos.TotalCost, "1650")
	assertDecimal(t, "CostPerShare", pos.CostPerShare, "110")
	assertDecimal(t, "InvestedCost", pos.InvestedCost, "2200")
	assertDecimal(t, "RealizedResult", pos.RealizedResult, "200")
	assertDecimal(t, "CurrentValue", pos.CurrentValue, "1950")
	assertDecimal(t, "UnrealizedResult", pos.UnrealizedResult, "300")
	assertDecimal(t, "UnrealizedResultPercent", pos.UnrealizedResultPercent, "18.1818")
	assertDecimal(t, "AnnualIncome", pos.AnnualIncome, "30")
	assertDecimal(t, "YieldOnCost", pos.YieldOnCost, "1.8182")
	assertDecimal(t, "TotalReturn", pos.TotalReturn, "530")
	assertDecimal(t, "TotalReturnPercent", pos.TotalReturnPercent, "24.0909")

	if pos.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", pos.TransactionCount)
	}
	if pos.Name != "Apple" {
		t.Errorf("Name = %q, want Apple", pos.Name)
	}
	if !pos.IsOpen() {
		t.Error("position should be open")
	}
}

func TestValuePosition_Fees(t *testing.T) {
	txs := stored(
		withFee(buy("AAPL", "10", "100", day(0)), "10"),
		withFee(sell("AAPL", "10", "110", day(1)), "5"),
	)

	pos, err := ValuePosition("AAPL", slices.Values(txs), priced("AAPL", "200"), nil)
	if err != nil {
		t.Fatalf("ValuePosition() unexpected error: %v", err)
	}

	assertDecimal(t, "RealizedResult", pos.RealizedResult, "85")
	assertDecimal(t, "InvestedCost", pos.InvestedCost, "1010")
	assertDecimal(t, "Quantity", pos.Quantity, "0")
	assertDecimal(t, "TotalCost", pos.TotalCost, "0")
	assertDecimal(t, "CostPerShare", pos.CostPerShare, "0")
	assertDecimal(t, "UnrealizedResultPercent", pos.UnrealizedResultPercent, "0")
	assertDecimal(t, "YieldOnCost", pos.YieldOnCost, "0")
	if pos.IsOpen() {
		t.Error("fully sold position should be closed")
	}
}

func TestValuePosition_ZeroGuards(t *testing.T) {
	pos, err := ValuePosition("AAPL", slices.Values([]models.Transaction{}), models.NewDefaultQuote("AAPL"), nil)
	if err != nil {
		t.Fatalf("ValuePosition() unexpected error: %v", err)
	}

	for name, got := range map[string]decimal.Decimal{
		"Quantity":                pos.Quantity,
		"CostPerShare":            pos.CostPerShare,
		"UnrealizedResultPercent": pos.UnrealizedResultPercent,
		"YieldOnCost":             pos.YieldOnCost,
		"TotalReturnPercent":      pos.TotalReturnPercent,
	} {
		if !got.IsZero() {
			t.Errorf("%s = %s, want 0", name, got)
		}
	}
	if pos.Name != "AAPL" {
		t.Errorf("Name = %q, want AAPL", pos.Name)
	}
}

func TestValuePosition_DefaultQuote(t *testing.T) {
	txs := stored(buy("AAPL", "10", "100", day(0)))

	pos, err := ValuePosition("AAPL", slices.Values(txs), models.NewDefaultQuote("AAPL"), nil)
	if err != nil {
		t.Fatalf("ValuePosition() unexpected error: %v", err)
	}

	// Without a price the holding is worth nothing, but cost is intact.
	assertDecimal(t, "CurrentValue", pos.CurrentValue, "0")
	assertDecimal(t, "TotalCost", pos.TotalCost, "1000")
	assertDecimal(t, "UnrealizedResult", pos.UnrealizedResult, "-1000")
	assertDecimal(t, "UnrealizedResultPercent", pos.UnrealizedResultPercent, "-100")
}

func TestValuePosition_IntegrityErrors(t *testing.T) {
	tests := []struct {
		name string
		txs  []models.Transaction
	}{
		{
			name: "oversell",
			txs: stored(
				buy("AAPL", "5", "100", day(0)),
				sell("AAPL", "6", "100", day(1)),
			),
		},
		{
			name: "foreign symbol",
			txs:  stored(buy("MSFT", "5", "100", day(0))),
		},
		{
			name: "unknown type",
			txs: func() []models.Transaction {
				rows := stored(buy("AAPL", "5", "100", day(0)))
				rows[0].Type = "SPLIT"
				return rows
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValuePosition("AAPL", slices.Values(tt.txs), priced("AAPL", "100"), nil)
			if !errors.Is(err, ErrLedgerIntegrity) {
				t.Errorf("ValuePosition() error = %v, want ErrLedgerIntegrity", err)
			}
		})
	}
}

func TestValuePosition_NameFallback(t *testing.T) {
	tests := []struct {
		name  string
		quote models.Quote
		stock *models.Stock
		want  string
	}{
		{"quote name wins", models.Quote{Symbol: "AAPL", Name: "Apple Inc."}, &models.Stock{Name: "Apple"}, "Apple Inc."},
		{"stock name over symbol", models.NewDefaultQuote("AAPL"), &models.Stock{Name: "Apple"}, "Apple"},
		{"symbol when nothing else", models.Quote{Symbol: "AAPL"}, nil, "AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := ValuePosition("AAPL", slices.Values([]models.Transaction{}), tt.quote, tt.stock)
			if err != nil {
				t.Fatalf("ValuePosition() unexpected error: %v", err)
			}
			if pos.Name != tt.want {
				t.Errorf("Name = %q, want %q", pos.Name, tt.want)
			}
		})
	}
}

func TestEngine_ValuePortfolio_CostWeighted(t *testing.T) {
	ledger := NewLedger(7, stored(
		buy("AAA", "1", "100", day(0)),
		buy("BBB", "9", "100", day(0)),
	)...)
	quotes := &mockQuoteSource{quotes: map[string]models.Quote{
		"AAA": priced("AAA", "110"),
		"BBB": priced("BBB", "100"),
	}}
	engine, _ := newTestEngine(quotes)

	p, err := engine.ValuePortfolio(context.Background(), ledger, nil)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}

	if p.OwnerID != 7 {
		t.Errorf("OwnerID = %d, want 7", p.OwnerID)
	}
	if !p.ValuedAt.Equal(day(30)) {
		t.Errorf("ValuedAt = %v, want %v", p.ValuedAt, day(30))
	}
	if len(p.Positions) != 2 {
		t.Fatalf("len(Positions) = %d, want 2", len(p.Positions))
	}
	assertDecimal(t, "TotalCost", p.TotalCost, "1000")
	assertDecimal(t, "CurrentValue", p.CurrentValue, "1010")
	assertDecimal(t, "UnrealizedResult", p.UnrealizedResult, "10")
	assertDecimal(t, "UnrealizedResultPercent", p.UnrealizedResultPercent, "1")

	a, ok := p.Position("AAA")
	if !ok {
		t.Fatal("AAA position missing")
	}
	assertDecimal(t, "AAA UnrealizedResultPercent", a.UnrealizedResultPercent, "10")
}

func TestEngine_ValuePortfolio_IncludesClosedPositions(t *testing.T) {
	ledger := NewLedger(1, stored(
		buy("AAPL", "10", "100", day(0)),
		sell("AAPL", "10", "150", day(1)),
		buy("MSFT", "2", "50", day(2)),
	)...)
	stocks := map[string]models.Stock{
		"MSFT": {Symbol: "MSFT", Name: "Microsoft", DividendRate: dec("3")},
	}
	engine, _ := newTestEngine(&mockQuoteSource{quotes: map[string]models.Quote{
		"MSFT": priced("MSFT", "60"),
	}})

	p, err := engine.ValuePortfolio(context.Background(), ledger, stocks)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}

	if len(p.Positions) != 2 {
		t.Fatalf("len(Positions) = %d, want 2", len(p.Positions))
	}
	if got := len(p.OpenPositions()); got != 1 {
		t.Errorf("len(OpenPositions()) = %d, want 1", got)
	}
	assertDecimal(t, "RealizedResult", p.RealizedResult, "500")
	assertDecimal(t, "AnnualIncome", p.AnnualIncome, "6")
	assertDecimal(t, "InvestedCost", p.InvestedCost, "1100")
	// 20 unrealized + 500 realized + 6 income
	assertDecimal(t, "TotalReturn", p.TotalReturn, "526")

	msft, _ := p.Position("MSFT")
	if msft.Name != "Microsoft" {
		t.Errorf("MSFT Name = %q, want Microsoft", msft.Name)
	}
}

func TestEngine_ValuePortfolio_Idempotent(t *testing.T) {
	ledger := NewLedger(1, stored(
		buy("AAPL", "10", "100", day(0)),
		buy("AAPL", "10", "120", day(1)),
		sell("AAPL", "5", "150", day(2)),
	)...)
	engine, _ := newTestEngine(&mockQuoteSource{quotes: map[string]models.Quote{
		"AAPL": priced("AAPL", "130"),
	}})

	first, err := engine.ValuePortfolio(context.Background(), ledger, nil)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}
	second, err := engine.ValuePortfolio(context.Background(), ledger, nil)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}

	if !first.TotalReturn.Equal(second.TotalReturn) || !first.TotalCost.Equal(second.TotalCost) {
		t.Errorf("repeated valuation differs: %s/%s vs %s/%s",
			first.TotalReturn, first.TotalCost, second.TotalReturn, second.TotalCost)
	}
	if ledger.Len() != 3 {
		t.Errorf("valuation should not change the ledger, Len() = %d", ledger.Len())
	}
}

func TestEngine_ValuePortfolio_Empty(t *testing.T) {
	engine, _ := newTestEngine(&mockQuoteSource{})

	p, err := engine.ValuePortfolio(context.Background(), NewLedger(1), nil)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}
	if len(p.Positions) != 0 {
		t.Errorf("len(Positions) = %d, want 0", len(p.Positions))
	}
	if !p.TotalCost.IsZero() || !p.TotalReturnPercent.IsZero() {
		t.Errorf("empty portfolio should be all zero, got cost %s return %% %s", p.TotalCost, p.TotalReturnPercent)
	}
}

func TestEngine_ValuePortfolio_MissingQuoteUsesDefault(t *testing.T) {
	ledger := NewLedger(1, stored(buy("AAPL", "10", "100", day(0)))...)
	engine, _ := newTestEngine(&mockQuoteSource{quotes: map[string]models.Quote{}})

	p, err := engine.ValuePortfolio(context.Background(), ledger, nil)
	if err != nil {
		t.Fatalf("ValuePortfolio() unexpected error: %v", err)
	}
	assertDecimal(t, "CurrentValue", p.CurrentValue, "0")
}

func TestEngine_ValuePortfolio_Errors(t *testing.T) {
	t.Run("quote source failure", func(t *testing.T) {
		ledger := NewLedger(1, stored(buy("AAPL", "1", "1", day(0)))...)
		upstream := errors.New("resolver down")
		engine, m := newTestEngine(&mockQuoteSource{err: upstream})

		_, err := engine.ValuePortfolio(context.Background(), ledger, nil)
		if !errors.Is(err, upstream) {
			t.Errorf("ValuePortfolio() error = %v, want %v", err, upstream)
		}
		if got := testutil.ToFloat64(m.ValuationErrorsTotal.WithLabelValues("quotes")); got != 1 {
			t.Errorf("quote errors = %f, want 1", got)
		}
	})

	t.Run("corrupt ledger", func(t *testing.T) {
		ledger := NewLedger(1, stored(
			buy("AAPL", "1", "1", day(0)),
			sell("AAPL", "2", "1", day(1)),
		)...)
		engine, m := newTestEngine(&mockQuoteSource{})

		_, err := engine.ValuePortfolio(context.Background(), ledger, nil)
		if !errors.Is(err, ErrLedgerIntegrity) {
			t.Errorf("ValuePortfolio() error = %v, want ErrLedgerIntegrity", err)
		}
		if got := testutil.ToFloat64(m.ValuationErrorsTotal.WithLabelValues("ledger_integrity")); got != 1 {
			t.Errorf("integrity errors = %f, want 1", got)
		}
	})
}

func TestEngine_ValueSymbol(t *testing.T) {
	ledger := NewLedger(1, stored(
		buy("AAPL", "10", "100", day(0)),
		buy("MSFT", "1", "300", day(0)),
	)...)
	quotes := &mockQuoteSource{quotes: map[string]models.Quote{"AAPL": priced("AAPL", "110")}}
	engine, _ := newTestEngine(quotes)

	pos, err := engine.ValueSymbol(context.Background(), ledger, " aapl", nil)
	if err != nil {
		t.Fatalf("ValueSymbol() unexpected error: %v", err)
	}
	if pos.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", pos.Symbol)
	}
	assertDecimal(t, "UnrealizedResult", pos.UnrealizedResult, "100")
	if quotes.calls != 1 {
		t.Errorf("ResolveMany calls = %d, want 1", quotes.calls)
	}

	if _, err := engine.ValueSymbol(context.Background(), ledger, "  ", nil); !errors.Is(err, models.ErrInvalidSymbol) {
		t.Errorf("ValueSymbol(blank) error = %v, want ErrInvalidSymbol", err)
	}
}
