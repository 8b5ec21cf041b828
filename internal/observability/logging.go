package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// LogConfig holds configuration for the structured logger.
type LogConfig struct {
	Level       string // "debug", "info", "warn", "error"
	Format      string // "json" or "text"
	ServiceName string
	Environment string
	Output      io.Writer // defaults to os.Stdout
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// InitLogger creates a new structured logger.
// The returned logger is also set as the default via slog.SetDefault.
func InitLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	// Add service context to all log entries
	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	slog.SetDefault(logger)
	return logger
}

// SimTimeKey is the attribute key carrying the simulated time of a record.
const SimTimeKey = "sim_time"

// WithSimTime returns a logger that stamps every record with now(). now must
// not take locks its callers may hold while logging.
func WithSimTime(logger *slog.Logger, now func() simtime.Time) *slog.Logger {
	return slog.New(&simTimeHandler{inner: logger.Handler(), now: now})
}

type simTimeHandler struct {
	inner slog.Handler
	now   func() simtime.Time
}

func (h *simTimeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *simTimeHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(slog.String(SimTimeKey, h.now().String()))
	return h.inner.Handle(ctx, r)
}

func (h *simTimeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &simTimeHandler{inner: h.inner.WithAttrs(attrs), now: h.now}
}

func (h *simTimeHandler) WithGroup(name string) slog.Handler {
	return &simTimeHandler{inner: h.inner.WithGroup(name), now: h.now}
}

// LoggerFromContext extracts a logger from context, or returns the default logger.
// If a trace ID is present in the context, it's added to the logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return WithTraceID(ctx, slog.Default())
}

// WithTraceID returns a new logger with the trace ID from context.
func WithTraceID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return logger.With(slog.String("trace_id", traceID))
	}
	return logger
}
