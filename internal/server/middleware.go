package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// observe logs every HTTP request with method, path, status, duration and
// remote address, and records it in the request metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		// The mux records the matched pattern on the request. Unmatched
		// paths share one label to keep cardinality bounded.
		route := r.Pattern
		switch {
		case route != "":
		case r.Method == http.MethodOptions:
			route = "preflight"
		default:
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, r.Method, rw.statusCode, elapsed)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}
