// Package mocks provides HTTP mock servers for the quote providers used in
// E2E tests.
package mocks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer serves both StockAPI and Marketstack endpoints from one
// httptest server, with configurable quotes and error injection.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	stockAPIQuotes    map[string]StockAPIQuote
	marketstackQuotes map[string]MarketstackEOD
	marketstackNames  map[string]string

	// Error injection as HTTP status codes, zero means healthy
	stockAPIStatus    int
	marketstackStatus int

	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// NewMockServer creates a new mock server with default quotes.
func NewMockServer() *MockServer {
	m := &MockServer{
		stockAPIQuotes:    make(map[string]StockAPIQuote),
		marketstackQuotes: make(map[string]MarketstackEOD),
		marketstackNames:  make(map[string]string),
		requestLog:        make([]RequestLog, 0),
	}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP implements http.Handler to route requests to the provider handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := ""
	if r.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(r.Body, 1024))
		body = string(b)
	}
	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
	})
	m.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/nse/get_quote_info":
		m.handleStockAPI(w, r)
	case path == "/eod/latest":
		m.handleMarketstackEOD(w, r)
	case strings.HasPrefix(path, "/tickers/"):
		m.handleMarketstackTicker(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// CountRequests returns how many logged requests hit path.
func (m *MockServer) CountRequests(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requestLog {
		if r.Path == path {
			n++
		}
	}
	return n
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetStockAPIQuote configures the primary provider's quote for symbol.
func (m *MockServer) SetStockAPIQuote(symbol string, q StockAPIQuote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockAPIQuotes[symbol] = q
}

// RemoveStockAPIQuote makes the primary provider report an unknown symbol.
func (m *MockServer) RemoveStockAPIQuote(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stockAPIQuotes, symbol)
}

// SetStockAPIStatus makes every StockAPI request fail with status.
// Zero restores normal responses.
func (m *MockServer) SetStockAPIStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockAPIStatus = status
}

// SetMarketstackQuote configures the secondary provider's bar and name.
func (m *MockServer) SetMarketstackQuote(eod MarketstackEOD, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marketstackQuotes[eod.Symbol] = eod
	if name != "" {
		m.marketstackNames[eod.Symbol] = name
	}
}

// SetMarketstackStatus makes every Marketstack request fail with status.
func (m *MockServer) SetMarketstackStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marketstackStatus = status
}

func (m *MockServer) setDefaults() {
	m.stockAPIQuotes["AAPL"] = StockAPIQuote{
		CompanyName:       "Apple Inc",
		LastPrice:         "130.00",
		OpenPrice:         "128.50",
		DayHigh:           "131.20",
		DayLow:            "127.90",
		YearHigh:          "199.62",
		YearLow:           "124.17",
		PreviousClose:     "129.00",
		TotalTradedVolume: "1,204,500",
	}
	m.stockAPIQuotes["KO"] = StockAPIQuote{
		CompanyName:   "Coca-Cola Co",
		LastPrice:     "60.00",
		PreviousClose: "59.40",
	}

	m.marketstackQuotes["MSFT"] = MarketstackEOD{
		Symbol: "MSFT", Open: 402.1, High: 410.5, Low: 399.8, Close: 408.25, Volume: 21500000,
	}
	m.marketstackNames["MSFT"] = "Microsoft Corp"
}

func (m *MockServer) handleStockAPI(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("companyName"))

	m.mu.RLock()
	status := m.stockAPIStatus
	q, ok := m.stockAPIQuotes[symbol]
	m.mu.RUnlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		writeJSON(w, errorResponse{Error: "unknown company " + symbol})
		return
	}
	writeJSON(w, q)
}

func (m *MockServer) handleMarketstackEOD(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbols"))

	m.mu.RLock()
	status := m.marketstackStatus
	eod, ok := m.marketstackQuotes[symbol]
	m.mu.RUnlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	resp := marketstackEODResponse{Data: []MarketstackEOD{}}
	if ok {
		resp.Data = append(resp.Data, eod)
	}
	writeJSON(w, resp)
}

func (m *MockServer) handleMarketstackTicker(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/tickers/"))

	m.mu.RLock()
	status := m.marketstackStatus
	name, ok := m.marketstackNames[symbol]
	m.mu.RUnlock()

	if status != 0 || !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, marketstackTickerResponse{Data: marketstackTicker{Name: name, Symbol: symbol}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
