package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger is the global logger instance
var Logger *slog.Logger

// InitLogger initializes the global logger with the appropriate handler
// For production, use JSON format; for development, use text format
func InitLogger(production bool) {
	InitLoggerWithLevel(production, slog.LevelInfo)
}

// InitLoggerWithLevel initializes the logger with a specific log level
func InitLoggerWithLevel(production bool, level slog.Level) {
	initLogger(os.Stdout, production, level)
}

func initLogger(w io.Writer, production bool, level slog.Level) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// ParseLevel maps a config string to a slog level. Unknown values fall back
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ensureLogger() *slog.Logger {
	if Logger == nil {
		InitLogger(false)
	}
	return Logger
}

// WithContext returns a logger tagged with the request ID, if the context
// carries one
func WithContext(ctx context.Context) *slog.Logger {
	l := ensureLogger()
	if ctx == nil {
		return l
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// Info logs an info message
func Info(msg string, args ...any) {
	ensureLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	ensureLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	ensureLogger().Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	ensureLogger().Debug(msg, args...)
}

// Fatal logs an error message and exits
func Fatal(msg string, args ...any) {
	ensureLogger().Error(msg, args...)
	os.Exit(1)
}

// WithSymbol returns a logger with symbol field
func WithSymbol(symbol string) *slog.Logger {
	return ensureLogger().With("symbol", symbol)
}

// WithProvider returns a logger with the quote provider name
func WithProvider(provider string) *slog.Logger {
	return ensureLogger().With("provider", provider)
}

// WithOwner returns a logger with the portfolio owner
func WithOwner(ownerID int64) *slog.Logger {
	return ensureLogger().With("owner_id", ownerID)
}

// WithError returns a logger with error field
func WithError(err error) *slog.Logger {
	return ensureLogger().With("error", err)
}
