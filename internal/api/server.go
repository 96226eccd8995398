package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"oitracker/internal/api/handlers"
	"oitracker/internal/api/health"
	"oitracker/internal/api/middleware"
	"oitracker/internal/metrics"
	"oitracker/pkg/errors"
	"oitracker/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	TriggerRPS     float64
	TriggerBurst   int
}

// Handlers groups the route handlers. Stream may be nil.
type Handlers struct {
	Health     *health.Handler
	Stocks     *handlers.Stocks
	Upload     *handlers.Upload
	Process    *handlers.Process
	Background *handlers.Background
	Stream     http.Handler
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, h Handlers) *Server {
	log := logger.Get().With("component", "http_server")
	mux := NewRouter(cfg, h)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.Chain(mux, middleware.Recover(log), middleware.Logging(log), middleware.CORS(cfg.AllowedOrigins)),
		ReadHeaderTimeout: 10 * time.Second,
		// uploads and synchronous batches outlast the usual 10s
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// NewRouter registers every route on a fresh mux
func NewRouter(cfg ServerConfig, h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	if cfg.TriggerRPS <= 0 {
		cfg.TriggerRPS = 0.5
	}
	if cfg.TriggerBurst < 1 {
		cfg.TriggerBurst = 1
	}
	triggers := rate.NewLimiter(rate.Limit(cfg.TriggerRPS), cfg.TriggerBurst)

	route := func(pattern string, fn http.HandlerFunc, mws ...middleware.Middleware) {
		mws = append([]middleware.Middleware{middleware.Metrics(pattern)}, mws...)
		mux.Handle(pattern, middleware.Chain(fn, mws...))
	}
	limited := middleware.RateLimit(triggers)

	route("GET /health", h.Health.HandleHealth)
	route("GET /ready", h.Health.HandleReadiness)
	mux.Handle("GET /metrics", metrics.Handler())

	route("GET /api/v1/stocks", h.Stocks.List)
	route("GET /api/v1/stocks/{$}", h.Stocks.List)
	route("GET /api/v1/stocks/favorites/list", h.Stocks.Favorites)
	route("GET /api/v1/stocks/{stock}", h.Stocks.Summary)
	route("GET /api/v1/stocks/{stock}/export", h.Stocks.Export)
	route("GET /api/v1/stocks/{stock}/history", h.Stocks.History)

	route("POST /api/v1/upload/excel-files", h.Upload.ExcelFiles, limited)
	route("POST /api/v1/upload/process", h.Upload.Process, limited)
	route("GET /api/v1/upload/status", h.Upload.Status)
	route("DELETE /api/v1/upload/data", h.Upload.ClearData)

	route("POST /api/v1/process/refresh", h.Process.Refresh, limited)
	route("GET /api/v1/process/status", h.Process.Status)

	route("GET /api/v1/background/status", h.Background.Status)
	route("POST /api/v1/background/start", h.Background.Start)
	route("POST /api/v1/background/stop", h.Background.Stop)
	route("PUT /api/v1/background/interval/{seconds}", h.Background.Interval)

	if h.Stream != nil {
		route("GET /api/v1/stream", h.Stream.ServeHTTP)
	}

	return mux
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
