package api

import (
	"net/http"

	"portfolio-manager/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware(h.metrics))

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Group(func(r chi.Router) {
			r.Use(OwnerMiddleware)

			// Quotes
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", h.HandleSearchQuotes)
				r.Delete("/cache", h.HandleClearQuoteCache)
				r.Get("/{symbol}", h.HandleGetQuote)
			})

			// Portfolio
			r.Route("/portfolio", func(r chi.Router) {
				r.Get("/", h.HandleGetPortfolio)
				r.Get("/metadata", h.HandleGetPortfolioMetadata)
				r.Put("/metadata/name", h.HandleUpdatePortfolioName)
				r.Put("/metadata/description", h.HandleUpdatePortfolioDescription)
				r.Get("/positions", h.HandleGetPositions)
				r.Get("/positions/{symbol}", h.HandleGetPosition)
			})

			// Transactions
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.HandleListTransactions)
				r.Post("/", h.HandleCreateTransaction)
				r.Get("/{id}", h.HandleGetTransaction)
				r.Delete("/{id}", h.HandleDeleteTransaction)
			})

			// Stocks
			r.Route("/stocks", func(r chi.Router) {
				r.Get("/", h.HandleListStocks)
				r.Post("/", h.HandleCreateStock)
				r.Get("/search", h.HandleSearchStock)
				r.Get("/screen", h.HandleScreenStocks)
				r.Get("/{symbol}", h.HandleGetStock)
				r.Put("/{symbol}", h.HandleUpdateStock)
				r.Delete("/{symbol}", h.HandleDeleteStock)
			})
		})
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+OwnerHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
