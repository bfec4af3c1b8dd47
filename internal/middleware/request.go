// AngelaMos | 2026
// request.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/salexim/directory-backend/internal/core"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or mints a new one and
// echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&requestLogger{logger: logger})
}

type requestLogger struct {
	logger *slog.Logger
}

func (l *requestLogger) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &requestLogEntry{logger: l.logger, request: r}
}

type requestLogEntry struct {
	logger  *slog.Logger
	request *http.Request
}

func (e *requestLogEntry) Write(
	status, bytes int,
	_ http.Header,
	elapsed time.Duration,
	_ any,
) {
	ctx := e.request.Context()

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	e.logger.LogAttrs(ctx, level, "http request",
		slog.String("request_id", GetRequestID(ctx)),
		slog.String("method", e.request.Method),
		slog.String("path", e.request.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("elapsed", elapsed),
		slog.String("remote_addr", e.request.RemoteAddr),
		slog.String("trace_id", core.TraceIDFromContext(ctx)),
	)
}

func (e *requestLogEntry) Panic(v any, stack []byte) {
	e.logger.Error("http request panic",
		"request_id", GetRequestID(e.request.Context()),
		"panic", v,
		"stack", string(stack),
		"method", e.request.Method,
		"path", e.request.URL.Path,
	)
}

// Recoverer turns a panic into a 500 response and reports it to Sentry.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			if entry, ok := chimw.GetLogEntry(r).(*requestLogEntry); ok {
				entry.Panic(rec, debug.Stack())
			} else {
				slog.Error("http request panic", "panic", rec, "path", r.URL.Path)
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetTag("request_id", GetRequestID(r.Context()))
			hub.Scope().SetRequest(r)
			hub.RecoverWithContext(r.Context(), rec)

			core.JSON(w, http.StatusInternalServerError, core.ErrorBody{
				Error: "internal server error",
				Code:  "INTERNAL_ERROR",
			})
		}()

		next.ServeHTTP(w, r)
	})
}
