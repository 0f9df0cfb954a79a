package rpc

import (
	"net/http"
	"strings"
	"time"

	"acdmchain/observability"
	"acdmchain/observability/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routeModule(path string) string {
	trimmed := strings.TrimPrefix(path, "/v1/")
	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// observe logs each request and records module metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		module := routeModule(r.URL.Path)
		observability.ModuleMetrics().Observe(module, r.Method, recorder.status, time.Since(start))
		s.logger.Info("rpc request",
			"module", module,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			logging.MaskField("authorization", r.Header.Get("Authorization")),
		)
	})
}

// serialize admits one engine request at a time. The engines read, decide,
// and write through the state interface with no locking of their own, so
// interleaved requests could observe and overwrite each other's balances.
func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// throttle rejects requests beyond the configured admission rate.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			observability.ModuleMetrics().RecordThrottle(routeModule(r.URL.Path), "rate_limit")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
