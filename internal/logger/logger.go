// Package logger configures the application's slog logger and provides the
// per-request logging middleware.
//
// Request handlers get a logger carrying the request id with ContextRequestLogger
// and can add attributes to the final request log line with ContextWithLogAttrs.
package logger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// LevelNone disables logging when used as the handler level
const LevelNone = slog.Level(math.MaxInt32)

// ParseLogLevel maps a LOG_LEVEL value to a slog level. Unknown values map to debug.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "off":
		return LevelNone
	default:
		return slog.LevelDebug
	}
}

// InitLogger creates the application logger and installs it as the slog default.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	return initLogger(os.Stderr, level, environment)
}

func initLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok && environment != "test" {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))

	slog.SetDefault(logger)
	return logger
}

type contextKey int

const (
	loggerKey contextKey = iota
	logAttrsKey
)

// logAttrs collects attributes added during a request for the final log line
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (l *logAttrs) add(attrs ...slog.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attrs = append(l.attrs, attrs...)
}

func (l *logAttrs) get() []slog.Attr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]slog.Attr(nil), l.attrs...)
}

// ContextWithRequestLogger returns a copy of ctx carrying the request logger
func ContextWithRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// ContextRequestLogger returns the request logger stored in ctx,
// or the default logger if there is none.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithLogAttrs adds attributes to the request log line written by RequestLogging.
// It is a no-op outside a request handled by RequestLogging.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if l, ok := ctx.Value(logAttrsKey).(*logAttrs); ok {
		l.add(attrs...)
	}
}
