package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// ansi colours used for the status code, matching the usual dev request log
const (
	colorRed    = 1
	colorGreen  = 2
	colorYellow = 3
	colorCyan   = 6
)

// RequestLogging writes one log line per request once the response is complete:
// method, path, status, duration and bytes written.
//
// It also stores a request logger (tagged with the chi request id, when present)
// in the request context for use by downstream handlers.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger
			if requestID := middleware.GetReqID(r.Context()); requestID != "" {
				reqLogger = logger.With(slog.String("request_id", requestID))
			}

			attrs := &logAttrs{}
			ctx := ContextWithRequestLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, logAttrsKey, attrs)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					// nothing written, net/http sends 200
					status = http.StatusOK
				}

				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}

				line := []slog.Attr{
					slog.String("method", r.Method),
					slog.String("path", r.URL.RequestURI()),
					tint.Attr(statusColor(status), slog.Int("status", status)),
					slog.Duration("duration", time.Since(start)),
					slog.Int("bytes", ww.BytesWritten()),
				}
				line = append(line, attrs.get()...)

				reqLogger.LogAttrs(r.Context(), level, "request", line...)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

func statusColor(status int) uint8 {
	switch {
	case status >= 500:
		return colorRed
	case status >= 400:
		return colorYellow
	case status >= 300:
		return colorCyan
	default:
		return colorGreen
	}
}
