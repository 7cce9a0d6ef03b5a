// Package logging configures the process-wide slog logger and the helpers
// the converter uses to report transforms, limits and table loads.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type contextKey struct{}

var logger atomic.Pointer[slog.Logger]

func init() {
	// Converted HTML goes to stdout, so diagnostics default to stderr.
	InitLogger(LevelWarn, FormatText)
}

// Level is a log level name accepted on the command line.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Format selects the handler.
type Format int

// Output formats.
const (
	FormatJSON Format = iota
	FormatText
)

// ParseLevel maps "debug", "info", "warn" or "error" to a Level. Anything
// else is LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(name string) Format {
	if strings.EqualFold(name, "json") {
		return FormatJSON
	}
	return FormatText
}

// InitLogger sets the global logger, writing to stderr.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo sets the global logger, writing to w. Timestamps are RFC 3339.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	l, ok := slogLevels[level]
	if !ok {
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: l,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	sl := slog.New(h)
	logger.Store(sl)
	slog.SetDefault(sl)
}

// GetLogger returns the global logger.
func GetLogger() *slog.Logger {
	return logger.Load()
}

// WithRequestID tags ctx with a request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// RequestID returns the request ID carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// LoggerFromContext returns the global logger with the request ID of ctx
// attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	if id := RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l
}

// DebugContext logs at debug level with the request ID of ctx.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs at info level with the request ID of ctx.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs at warn level with the request ID of ctx.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// Transform logs the summary of one variant conversion pass.
func Transform(ctx context.Context, variant string, redLinks, resolved int, duration time.Duration, args ...any) {
	LoggerFromContext(ctx).Info("transform", append([]any{
		"variant", variant,
		"red_links", redLinks,
		"resolved", resolved,
		"duration_ms", duration.Milliseconds(),
	}, args...)...)
}

// LimitExceeded logs a parser limit that degraded output to a warning.
func LimitExceeded(limit string, current, max int, args ...any) {
	GetLogger().Warn("limit_exceeded", append([]any{
		"limit", limit,
		"current", current,
		"max", max,
	}, args...)...)
}

// TableLoaded logs a conversion table read from disk.
func TableLoaded(code, source, fingerprint string, variants int, args ...any) {
	GetLogger().Debug("table_loaded", append([]any{
		"code", code,
		"source", source,
		"fingerprint", fingerprint,
		"variants", variants,
	}, args...)...)
}
