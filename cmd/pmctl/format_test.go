package main

import (
	"bytes"
	"strings"
	"testing"

	"portfolio-manager/models"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"0", "USD", "$0.00"},
		{"-12.345", "USD", "-$12.35"},
	}

	for _, tt := range tests {
		got := formatMoney(decimal.RequireFromString(tt.amount), tt.currency)
		if got != tt.want {
			t.Errorf("formatMoney(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestWriteQuotes(t *testing.T) {
	var buf bytes.Buffer
	q := models.NewDefaultQuote("AAPL")
	q.Price = decimal.RequireFromString("190.5")
	q.PreviousClose = decimal.RequireFromString("180")

	writeQuotes(&buf, []models.Quote{q}, "USD")

	out := buf.String()
	if !strings.Contains(out, "$190.50") {
		t.Errorf("expected formatted price in output, got:\n%s", out)
	}
	if !strings.Contains(out, "5.83%") {
		t.Errorf("expected change percent in output, got:\n%s", out)
	}
}

func TestJoinArgs(t *testing.T) {
	if got := joinArgs([]string{"aapl", "msft"}); got != "aapl,msft" {
		t.Errorf("joinArgs() = %q, want %q", got, "aapl,msft")
	}
}
