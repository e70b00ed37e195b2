package marketdata

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-manager/models"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(clock *fakeClock) *QuoteCache {
	c := NewQuoteCache(DefaultCacheTTL)
	c.now = clock.Now
	return c
}

func testQuote(symbol string, price int64) models.Quote {
	q := models.NewDefaultQuote(symbol)
	q.Price = decimal.NewFromInt(price)
	return q
}

func TestNewQuoteCache_DefaultTTL(t *testing.T) {
	if got := NewQuoteCache(0).TTL(); got != DefaultCacheTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultCacheTTL)
	}
	if got := NewQuoteCache(time.Minute).TTL(); got != time.Minute {
		t.Errorf("TTL() = %v, want 1m", got)
	}
}

func TestQuoteCache_GetPut(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	if _, ok := c.Get("AAPL"); ok {
		t.Error("empty cache should miss")
	}

	c.Put("AAPL", testQuote("AAPL", 190))
	q, ok := c.Get("AAPL")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !q.Price.Equal(decimal.NewFromInt(190)) {
		t.Errorf("Price = %v, want 190", q.Price)
	}

	c.Put("AAPL", testQuote("AAPL", 191))
	q, _ = c.Get("AAPL")
	if !q.Price.Equal(decimal.NewFromInt(191)) {
		t.Errorf("last write should win, Price = %v", q.Price)
	}
}

func TestQuoteCache_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		fresh   bool
	}{
		{"just stored", 0, true},
		{"fourteen minutes", 14 * time.Minute, true},
		{"just under ttl", DefaultCacheTTL - time.Nanosecond, true},
		{"exactly ttl", DefaultCacheTTL, false},
		{"sixteen minutes", 16 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := newTestCache(clock)
			c.Put("INFY", testQuote("INFY", 1500))

			clock.Advance(tt.advance)
			if _, ok := c.Get("INFY"); ok != tt.fresh {
				t.Errorf("Get() after %v = %v, want %v", tt.advance, ok, tt.fresh)
			}
		})
	}
}

func TestQuoteCache_PutRefreshesCapture(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Put("TCS", testQuote("TCS", 1))
	clock.Advance(10 * time.Minute)
	c.Put("TCS", testQuote("TCS", 2))
	clock.Advance(10 * time.Minute)

	if _, ok := c.Get("TCS"); !ok {
		t.Error("re-put entry should be fresh")
	}
}

func TestQuoteCache_ClearAndLen(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	c.Put("A", testQuote("A", 1))
	c.Put("B", testQuote("B", 2))
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	clock.Advance(DefaultCacheTTL)
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after expiry = %d, want 0", got)
	}

	c.Put("C", testQuote("C", 3))
	c.Clear()
	if _, ok := c.Get("C"); ok {
		t.Error("Clear() should drop every entry")
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}

func TestQuoteCache_Concurrent(t *testing.T) {
	c := NewQuoteCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			symbol := fmt.Sprintf("S%d", i%5)
			c.Put(symbol, testQuote(symbol, int64(i)))
			c.Get(symbol)
		}(i)
	}
	wg.Wait()

	if got := c.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
}
