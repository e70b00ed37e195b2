package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"portfolio-manager/config"
	"portfolio-manager/internal/app"
	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/portfolio"
	"portfolio-manager/repository"
	"portfolio-manager/screener"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// Handler handles HTTP API requests
type Handler struct {
	app     *app.App
	cfg     *config.Config
	metrics *observability.Metrics
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg, metrics: observability.GetMetrics()}
}

// WithMetrics records HTTP metrics on m instead of the global metrics
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// TransactionRequest is the body of POST /api/transactions
type TransactionRequest struct {
	Symbol     string          `json:"symbol"`
	Type       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// TextRequest carries a single string field for metadata updates
type TextRequest struct {
	Value string `json:"value"`
}

// StatusResponse represents a status response
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.app.Health(r.Context())
	status := http.StatusOK
	if report.Database != "connected" {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponseStatus(w, report, status)
}

// HandleGetQuote resolves one symbol
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.app.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, q)
}

// HandleSearchQuotes resolves ?symbols=A,B,C
func (h *Handler) HandleSearchQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.app.SearchQuotes(r.Context(), r.URL.Query().Get("symbols"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, quotes)
}

// HandleClearQuoteCache drops every cached quote
func (h *Handler) HandleClearQuoteCache(w http.ResponseWriter, r *http.Request) {
	n := h.app.ClearQuoteCache()
	h.jsonResponse(w, StatusResponse{Status: "cleared", Message: strconv.Itoa(n) + " quotes evicted"})
}

// HandleGetPortfolio returns the valued portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Portfolio(r.Context(), owner(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, p)
}

// HandleGetPortfolioMetadata returns name and description
func (h *Handler) HandleGetPortfolioMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.app.PortfolioMeta(r.Context(), owner(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, meta)
}

// HandleUpdatePortfolioName renames the portfolio
func (h *Handler) HandleUpdatePortfolioName(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	meta, err := h.app.RenamePortfolio(r.Context(), owner(r), req.Value)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, meta)
}

// HandleUpdatePortfolioDescription replaces the description
func (h *Handler) HandleUpdatePortfolioDescription(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	meta, err := h.app.DescribePortfolio(r.Context(), owner(r), req.Value)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, meta)
}

// HandleGetPositions returns positions, only open ones with ?open=true
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))

	positions, err := h.app.Positions(r.Context(), owner(r), openOnly)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, positions)
}

// HandleGetPosition returns a single valued position
func (h *Handler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.app.Position(r.Context(), owner(r), chi.URLParam(r, "symbol"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, pos)
}

// HandleListTransactions returns the ledger, optionally for ?symbol=X
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.ListTransactions(r.Context(), owner(r), r.URL.Query().Get("symbol"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, txs)
}

// HandleCreateTransaction records a buy or sell
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	txType, err := models.ParseTransactionType(req.Type)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	tx := &models.Transaction{
		Symbol:     req.Symbol,
		Type:       txType,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Cost:       req.Cost,
		ExecutedAt: req.ExecutedAt,
	}

	created, err := h.app.RecordTransaction(r.Context(), owner(r), tx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponseStatus(w, created, http.StatusCreated)
}

// HandleGetTransaction returns one transaction by id
func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.app.GetTransaction(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, tx)
}

// HandleDeleteTransaction removes one transaction by id
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteTransaction(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, StatusResponse{Status: "deleted"})
}

// HandleListStocks returns the watch list
func (h *Handler) HandleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.app.ListStocks(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, stocks)
}

// HandleGetStock returns one stored stock
func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.app.GetStock(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, stock)
}

// HandleSearchStock looks up ?symbol=X without storing it
func (h *Handler) HandleSearchStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.app.SearchStock(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, stock)
}

// HandleScreenStocks ranks the watch list. Query parameters: top,
// min_yield (percent) and min_rating.
func (h *Handler) HandleScreenStocks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var criteria screener.Criteria

	if v := query.Get("top"); v != "" {
		top, err := strconv.Atoi(v)
		if err != nil || top < 0 {
			h.jsonError(w, "top must be a non-negative integer", http.StatusBadRequest)
			return
		}
		criteria.TopN = top
	}
	if v := query.Get("min_yield"); v != "" {
		minYield, err := decimal.NewFromString(v)
		if err != nil {
			h.jsonError(w, "min_yield must be a number", http.StatusBadRequest)
			return
		}
		criteria.MinYield = minYield
	}
	rating, err := screener.ParseCreditRating(query.Get("min_rating"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	criteria.MinCreditRating = rating

	candidates, err := h.app.ScreenStocks(r.Context(), criteria)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, candidates)
}

// HandleCreateStock adds a stock to the watch list
func (h *Handler) HandleCreateStock(w http.ResponseWriter, r *http.Request) {
	var stock models.Stock
	if !h.decode(w, r, &stock) {
		return
	}
	created, err := h.app.CreateStock(r.Context(), &stock)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponseStatus(w, created, http.StatusCreated)
}

// HandleUpdateStock replaces a stock's metadata
func (h *Handler) HandleUpdateStock(w http.ResponseWriter, r *http.Request) {
	var stock models.Stock
	if !h.decode(w, r, &stock) {
		return
	}
	updated, err := h.app.UpdateStock(r.Context(), chi.URLParam(r, "symbol"), &stock)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, updated)
}

// HandleDeleteStock removes a stock from the watch list
func (h *Handler) HandleDeleteStock(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteStock(r.Context(), chi.URLParam(r, "symbol")); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.jsonResponse(w, StatusResponse{Status: "deleted"})
}

// owner is only called behind OwnerMiddleware
func owner(r *http.Request) int64 {
	id, _ := OwnerFromContext(r.Context())
	return id
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.jsonError(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidSymbol),
		errors.Is(err, models.ErrInvalidTransaction),
		errors.Is(err, models.ErrInvalidStock),
		errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, portfolio.ErrInsufficientHoldings):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observability.WithContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.jsonError(w, err.Error(), status)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	h.jsonResponseStatus(w, data, http.StatusOK)
}

func (h *Handler) jsonResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	writeJSONError(w, message, status)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
