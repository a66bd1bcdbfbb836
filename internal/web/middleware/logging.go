// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
)

// Logger writes one access log line per request, after the handler returns.
// The line carries the request ID through logging.FromContext.
//
// Fields: method, path, status, duration_ms, ip (RemoteAddr after
// TrustedRealIP), user_agent, and user once Authenticate accepted a session.
// 5xx responses log at error level and 4xx at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		logger := logging.FromContext(r.Context())

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", duration.Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if ww.user != "" {
			attrs = append(attrs, "user", ww.user)
		}

		switch {
		case ww.status >= 500:
			logger.Error("request", attrs...)
		case ww.status >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// Authenticate records the username on it so the access log can show who
// made the request; the user lives in a context the logger never sees.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	user        string
}

// noteUser records the signed-in user on the logging writer, if w is one.
func noteUser(w http.ResponseWriter, username string) {
	for {
		switch rw := w.(type) {
		case *responseWriter:
			rw.user = username
			return
		case interface{ Unwrap() http.ResponseWriter }:
			w = rw.Unwrap()
		default:
			return
		}
	}
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap provides access to the underlying ResponseWriter for middleware
// that need to inspect it (e.g., http.Flusher for streamed exports).
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
