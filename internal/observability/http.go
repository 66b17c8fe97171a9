package observability

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const traceHeader = "X-Trace-ID"

// TraceMiddleware tags every request with a trace ID, either the one the
// caller sent or a freshly generated one, and echoes it on the response.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = strings.ToLower(rand.Text())
		}
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ContextWithTraceID(r.Context(), traceID)))
	})
}

// LoggingMiddleware emits one structured line per request, carrying the
// trace ID so log lines join up with error payloads.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meta := &responseMeta{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(meta, r)
			logger.InfoContext(r.Context(), "http_request",
				slog.String("trace_id", TraceIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", meta.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", meta.bytes),
			)
		})
	}
}

// MetricsMiddleware feeds the request counter and latency histogram.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		meta := &responseMeta{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(meta, r)

		status := strconv.Itoa(meta.status)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

// responseMeta records what the handler wrote without altering it.
type responseMeta struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeta) WriteHeader(status int) {
	m.status = status
	m.ResponseWriter.WriteHeader(status)
}

func (m *responseMeta) Write(body []byte) (int, error) {
	n, err := m.ResponseWriter.Write(body)
	m.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (m *responseMeta) Unwrap() http.ResponseWriter {
	return m.ResponseWriter
}
