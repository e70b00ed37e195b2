package portfolio

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"

	"portfolio-manager/models"
)

func TestLedger_AppendAssignsIdentity(t *testing.T) {
	l := NewLedger(42)

	tx := buy(" aapl ", "10", "100", day(0))
	if err := l.Append(tx); err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}

	if tx.ID == uuid.Nil {
		t.Error("ID should be assigned")
	}
	if tx.OwnerID != 42 {
		t.Errorf("OwnerID = %d, want 42", tx.OwnerID)
	}
	if tx.Seq != 1 {
		t.Errorf("Seq = %d, want 1", tx.Seq)
	}
	if tx.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", tx.Symbol)
	}

	next := buy("AAPL", "1", "100", day(1))
	_ = l.Append(next)
	if next.Seq != 2 {
		t.Errorf("Seq = %d, want 2", next.Seq)
	}
}

func TestLedger_AppendValidates(t *testing.T) {
	l := NewLedger(1)

	err := l.Append(buy("AAPL", "0", "100", day(0)))
	if !errors.Is(err, models.ErrInvalidTransaction) {
		t.Errorf("Append() error = %v, want ErrInvalidTransaction", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after rejected append", l.Len())
	}
}

func TestLedger_AppendInsufficientHoldings(t *testing.T) {
	tests := []struct {
		name    string
		history []*models.Transaction
		next    *models.Transaction
		wantErr bool
	}{
		{
			name:    "sell with nothing held",
			next:    sell("AAPL", "1", "100", day(0)),
			wantErr: true,
		},
		{
			name:    "sell more than held",
			history: []*models.Transaction{buy("AAPL", "10", "100", day(0))},
			next:    sell("AAPL", "11", "100", day(1)),
			wantErr: true,
		},
		{
			name:    "sell exactly held",
			history: []*models.Transaction{buy("AAPL", "10", "100", day(0))},
			next:    sell("AAPL", "10", "100", day(1)),
		},
		{
			name:    "sell dated before the buy",
			history: []*models.Transaction{buy("AAPL", "10", "100", day(5))},
			next:    sell("AAPL", "5", "100", day(1)),
			wantErr: true,
		},
		{
			name: "back-dated sell that breaks a later sell",
			history: []*models.Transaction{
				buy("AAPL", "10", "100", day(0)),
				sell("AAPL", "10", "100", day(5)),
			},
			next:    sell("AAPL", "1", "100", day(3)),
			wantErr: true,
		},
		{
			name:    "holdings are per symbol",
			history: []*models.Transaction{buy("MSFT", "10", "100", day(0))},
			next:    sell("AAPL", "1", "100", day(1)),
			wantErr: true,
		},
		{
			name:    "fractional shares",
			history: []*models.Transaction{buy("AAPL", "0.5", "100", day(0))},
			next:    sell("AAPL", "0.25", "100", day(1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(1)
			for _, tx := range tt.history {
				if err := l.Append(tx); err != nil {
					t.Fatalf("history Append() unexpected error: %v", err)
				}
			}
			before := l.Len()

			err := l.Append(tt.next)
			if tt.wantErr {
				if !errors.Is(err, ErrInsufficientHoldings) {
					t.Errorf("Append() error = %v, want ErrInsufficientHoldings", err)
				}
				if l.Len() != before {
					t.Errorf("rejected transaction should not be recorded")
				}
				return
			}
			if err != nil {
				t.Errorf("Append() unexpected error: %v", err)
			}
		})
	}
}

func TestLedger_TransactionsForChronological(t *testing.T) {
	l := NewLedger(1)
	_ = l.Append(buy("AAPL", "1", "100", day(3)))
	_ = l.Append(buy("MSFT", "1", "100", day(0)))
	_ = l.Append(buy("AAPL", "2", "100", day(1)))
	_ = l.Append(buy("AAPL", "3", "100", day(1)))

	var qtys []string
	for tx := range l.TransactionsFor("aapl") {
		qtys = append(qtys, tx.Quantity.String())
	}
	want := []string{"2", "3", "1"}
	if !slices.Equal(qtys, want) {
		t.Errorf("TransactionsFor order = %v, want %v", qtys, want)
	}

	// The sequence can be consumed again with the same result.
	n := 0
	for range l.TransactionsFor("AAPL") {
		n++
	}
	if n != 3 {
		t.Errorf("second iteration yielded %d, want 3", n)
	}

	var all []string
	for tx := range l.Transactions() {
		all = append(all, tx.Symbol)
	}
	if !slices.Equal(all, []string{"MSFT", "AAPL", "AAPL", "AAPL"}) {
		t.Errorf("Transactions() order = %v", all)
	}
}

func TestLedger_Symbols(t *testing.T) {
	l := NewLedger(1, stored(
		buy("TCS", "1", "1", day(0)),
		buy("AAPL", "1", "1", day(1)),
		buy("TCS", "1", "1", day(2)),
	)...)

	if got := l.Symbols(); !slices.Equal(got, []string{"AAPL", "TCS"}) {
		t.Errorf("Symbols() = %v, want [AAPL TCS]", got)
	}
	if got := NewLedger(1).Symbols(); len(got) != 0 {
		t.Errorf("empty ledger Symbols() = %v", got)
	}
}

func TestLedger_LoadDoesNotValidate(t *testing.T) {
	rows := stored(
		buy("AAPL", "5", "100", day(0)),
		sell("AAPL", "8", "100", day(1)),
	)
	l := NewLedger(1, rows...)

	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}

	// New appends continue after the highest stored sequence.
	rows2 := stored(buy("MSFT", "1", "1", day(0)))
	rows2[0].Seq = 40
	l.Load(rows2)
	tx := buy("MSFT", "1", "1", day(1))
	if err := l.Append(tx); err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	if tx.Seq != 41 {
		t.Errorf("Seq = %d, want 41", tx.Seq)
	}
}

func TestLedger_GetAndRemoveByID(t *testing.T) {
	l := NewLedger(1)
	first := buy("AAPL", "10", "100", day(0))
	second := sell("AAPL", "10", "120", day(1))
	_ = l.Append(first)
	_ = l.Append(second)

	if got, ok := l.Get(second.ID); !ok || got.Type != models.TransactionTypeSell {
		t.Errorf("Get() = %+v, %v", got, ok)
	}

	// Removing the buy leaves an inconsistent history on purpose.
	if !l.RemoveByID(first.ID) {
		t.Fatal("RemoveByID() = false, want true")
	}
	if l.RemoveByID(first.ID) {
		t.Error("second RemoveByID() should report false")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	if _, ok := l.Get(first.ID); ok {
		t.Error("removed transaction should not be found")
	}
}

func TestLedger_ConcurrentAppend(t *testing.T) {
	l := NewLedger(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = l.Append(buy("AAPL", "1", "100", day(i)))
		}(i)
	}
	wg.Wait()

	if l.Len() != 20 {
		t.Errorf("Len() = %d, want 20", l.Len())
	}
	seqs := make(map[int64]bool)
	for tx := range l.Transactions() {
		if seqs[tx.Seq] {
			t.Errorf("duplicate Seq %d", tx.Seq)
		}
		seqs[tx.Seq] = true
	}
}

func TestLedger_Verify(t *testing.T) {
	first := buy("AAPL", "10", "100", day(0))
	l := NewLedger(1)
	_ = l.Append(first)
	_ = l.Append(sell("AAPL", "4", "100", day(1)))
	_ = l.Append(buy("MSFT", "1", "100", day(0)))

	if err := l.Verify(); err != nil {
		t.Errorf("Verify() unexpected error: %v", err)
	}

	l.RemoveByID(first.ID)
	if err := l.Verify(); !errors.Is(err, ErrInsufficientHoldings) {
		t.Errorf("Verify() error = %v, want ErrInsufficientHoldings", err)
	}
}
