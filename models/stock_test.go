package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStock_Validate(t *testing.T) {
	s := Stock{Symbol: "ko"}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if s.Symbol != "KO" {
		t.Errorf("Symbol = %v, want KO", s.Symbol)
	}
	if s.Name != "KO" {
		t.Errorf("Name = %v, want KO", s.Name)
	}
	if s.Level != StockLevelWatch {
		t.Errorf("Level = %v, want WATCH", s.Level)
	}

	tests := []struct {
		name  string
		stock Stock
		want  error
	}{
		{"empty symbol", Stock{}, ErrInvalidSymbol},
		{"bad level", Stock{Symbol: "KO", Level: "SOMEDAY"}, ErrInvalidStock},
		{"bad rating", Stock{Symbol: "KO", CreditRating: "ZZZ"}, ErrInvalidStock},
		{"negative dividend", Stock{Symbol: "KO", DividendRate: decimal.NewFromInt(-1)}, ErrInvalidStock},
		{"negative years", Stock{Symbol: "KO", YearsDividendGrowth: -2}, ErrInvalidStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.stock.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStock_ValidateNormalizesEnums(t *testing.T) {
	s := Stock{Symbol: "KO", Level: "owned", CreditRating: "aa"}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if s.Level != StockLevelOwned {
		t.Errorf("Level = %v, want OWNED", s.Level)
	}
	if s.CreditRating != CreditRatingAA {
		t.Errorf("CreditRating = %v, want AA", s.CreditRating)
	}
}

func TestStock_ApplyQuote(t *testing.T) {
	s := Stock{Symbol: "KO", Name: "KO"}
	s.ApplyQuote(Quote{
		Symbol:        "KO",
		Name:          "Coca-Cola Co",
		Price:         decimal.NewFromInt(66),
		PreviousClose: decimal.NewFromInt(60),
	})

	if s.Name != "Coca-Cola Co" {
		t.Errorf("Name = %v, want Coca-Cola Co", s.Name)
	}
	if !s.Price.Equal(decimal.NewFromInt(66)) {
		t.Errorf("Price = %v, want 66", s.Price)
	}
	if !s.ChangePercent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("ChangePercent = %v, want 10", s.ChangePercent)
	}

	named := Stock{Symbol: "KO", Name: "My Coke"}
	named.ApplyQuote(Quote{Name: "Coca-Cola Co"})
	if named.Name != "My Coke" {
		t.Errorf("custom name should be kept, got %v", named.Name)
	}
}
