// Package server exposes the joulebench operations over HTTP: the legacy
// ?action= dispatcher, one REST route per operation, a health check and
// the Prometheus metrics endpoint.
package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/internal/metrics"
	"github.com/teranos/joulebench/logger"
)

// DefaultMaxUploadBytes caps the body of /api/import/upload
const DefaultMaxUploadBytes = 16 << 20

// Options configure a Server. Zero values disable the feature they govern.
type Options struct {
	// AllowedOrigins are origin prefixes answered with CORS headers
	AllowedOrigins []string
	// RequestTimeout bounds each request's context; 0 means none
	RequestTimeout time.Duration
	// ImportRatePerMinute throttles the import endpoints; 0 means unlimited
	ImportRatePerMinute int
	// MaxUploadBytes caps upload bodies; 0 means DefaultMaxUploadBytes
	MaxUploadBytes int64
	// Ping reports storage health for /health
	Ping    func(ctx context.Context) error
	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// Server is the HTTP front of an actions.Service
type Server struct {
	service        *actions.Service
	metrics        *metrics.Metrics
	importLimiter  *rate.Limiter
	allowedOrigins []string
	requestTimeout time.Duration
	maxUploadBytes int64
	ping           func(ctx context.Context) error
	logger         *zap.SugaredLogger

	state atomic.Int32
}

// New creates a Server over service
func New(service *actions.Service, opts Options) *Server {
	s := &Server{
		service:        service,
		metrics:        opts.Metrics,
		allowedOrigins: opts.AllowedOrigins,
		requestTimeout: opts.RequestTimeout,
		maxUploadBytes: opts.MaxUploadBytes,
		ping:           opts.Ping,
		logger:         opts.Logger,
	}
	if s.logger == nil {
		s.logger = logger.ComponentLogger("server")
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.ImportRatePerMinute > 0 {
		perMinute := opts.ImportRatePerMinute
		s.importLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return s
}

// State returns the lifecycle state name: running, draining or stopped
func (s *Server) State() string {
	return stateString(s.getState())
}

// allowImport takes one token from the import limiter
func (s *Server) allowImport() bool {
	return s.importLimiter == nil || s.importLimiter.Allow()
}
