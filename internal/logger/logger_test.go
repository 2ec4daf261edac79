package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"none", LevelNone},
		{"", slog.LevelDebug},
		{"verbose", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitLoggerLevelNoneIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&buf, LevelNone, "test")

	logger.Error("should not appear")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRequestLogging(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		handler    http.HandlerFunc
		wantStatus string
		wantLevel  string
	}{
		{
			name:   "implicit 200",
			method: http.MethodGet,
			target: "/logout/index.html",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("hello"))
			},
			wantStatus: "status=200",
			wantLevel:  "INF",
		},
		{
			name:   "client error",
			method: http.MethodPost,
			target: "/services/logout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: "status=404",
			wantLevel:  "INF",
		},
		{
			name:   "server error",
			method: http.MethodGet,
			target: "/broken",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: "status=502",
			wantLevel:  "ERR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := initLogger(&buf, slog.LevelDebug, "test")

			router := chi.NewRouter()
			router.Use(middleware.RequestID)
			router.Use(RequestLogging(logger))
			router.HandleFunc("/*", tt.handler)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			out := buf.String()
			if strings.Count(out, "\n") != 1 {
				t.Fatalf("expected exactly one log line, got %q", out)
			}
			for _, want := range []string{
				tt.wantLevel,
				"method=" + tt.method,
				"path=" + tt.target,
				tt.wantStatus,
				"duration=",
				"request_id=",
			} {
				if !strings.Contains(out, want) {
					t.Errorf("log line %q does not contain %q", out, want)
				}
			}
		})
	}
}

func TestContextWithLogAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&buf, slog.LevelDebug, "test")

	handler := RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ContextRequestLogger(r.Context()).Debug("inside handler")
		ContextWithLogAttrs(r.Context(), slog.String("upstream", "backend"))
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "inside handler") {
		t.Errorf("expected handler line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "upstream=backend") {
		t.Errorf("expected request line to carry upstream attr, got %q", lines[1])
	}
}

func TestContextRequestLoggerFallsBackToDefault(t *testing.T) {
	if got := ContextRequestLogger(context.Background()); got != slog.Default() {
		t.Error("expected default logger outside a request")
	}

	// no request attrs bag - must not panic
	ContextWithLogAttrs(context.Background(), slog.String("k", "v"))
}
