package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/joulebench/logger"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Handler returns the full route table wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api", s.HandleAction)
	mux.HandleFunc("/api/import", s.HandleImport)
	mux.HandleFunc("/api/import/upload", s.HandleUpload)
	mux.HandleFunc("/api/summary", s.HandleSummary)
	mux.HandleFunc("/api/compare", s.HandleCompare)
	mux.HandleFunc("/api/files", s.HandleFiles)
	mux.HandleFunc("/api/algorithms/{name}", s.HandleAlgorithm)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.Handle("/metrics", s.metrics.Handler())

	var h http.Handler = mux
	h = s.drainMiddleware(h)
	h = s.timeoutMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.instrumentMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// corsMiddleware adds CORS headers for allowed origins and answers preflights
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin matches origin against the allowed prefixes, so any port is accepted
func (s *Server) checkOrigin(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// requestIDMiddleware tags every request with an id, reusing the caller's if sent
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	if s.requestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// drainMiddleware refuses API work once shutdown has begun; health stays up
func (s *Server) drainMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.getState() != ServerStateRunning && strings.HasPrefix(r.URL.Path, "/api") {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "server is shutting down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := routeLabel(r.URL.Path)
		s.metrics.RecordHTTPRequest(r.Method, route, rec.status, duration)
		logger.FromContext(r.Context(), s.logger).Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			"status", rec.status,
			logger.FieldDurationMS, duration.Milliseconds())
	})
}

// routeLabel collapses paths to their route so metric labels stay bounded
func routeLabel(path string) string {
	switch path {
	case "/api", "/api/import", "/api/import/upload", "/api/summary",
		"/api/compare", "/api/files", "/health", "/metrics":
		return path
	}
	if strings.HasPrefix(path, "/api/algorithms/") {
		return "/api/algorithms/{name}"
	}
	return "other"
}
