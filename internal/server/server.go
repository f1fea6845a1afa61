// Package server is the HTTP front of tickboard: REST endpoints, the
// browser websocket and, in demo mode, the synthetic stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/tickboard/internal/domain"
	"github.com/alanyoungcy/tickboard/internal/server/handler"
	"github.com/alanyoungcy/tickboard/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr        string
	CORSOrigins []string
	// APIKey enables auth when set.
	APIKey string

	// RateLimit requests per RateWindow per client IP, enforced only when a
	// limiter is supplied.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers are the endpoint groups. Nil groups are not mounted.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Series    *handler.SeriesHandler
	Tiles     *handler.TileHandler
	View      *handler.ViewHandler
	Chart     *handler.ChartHandler
	Snapshots *handler.SnapshotHandler

	// WS serves GET /ws; Stream serves GET /stream in demo mode.
	WS     http.HandlerFunc
	Stream http.Handler
}

// Server wraps http.Server with the route table and middleware chain.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New registers routes and builds the middleware chain. limiter may be nil.
func New(cfg Config, h Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	if h.Health != nil {
		mux.HandleFunc("GET /api/health", h.Health.HealthCheck)
	}
	if h.Status != nil {
		mux.HandleFunc("GET /api/status", h.Status.GetStatus)
	}
	if h.Series != nil {
		mux.HandleFunc("GET /api/series", h.Series.GetSeries)
	}
	if h.Tiles != nil {
		mux.HandleFunc("GET /api/tiles", h.Tiles.ListTiles)
		mux.HandleFunc("POST /api/tiles", h.Tiles.PlaceTile)
		mux.HandleFunc("DELETE /api/tiles/{id}", h.Tiles.RemoveTile)
	}
	if h.View != nil {
		mux.HandleFunc("POST /api/view/reset", h.View.ResetView)
	}
	if h.Chart != nil {
		mux.HandleFunc("GET /api/chart.png", h.Chart.GetChart)
	}
	if h.Snapshots != nil {
		mux.HandleFunc("GET /api/snapshots", h.Snapshots.ListSnapshots)
		mux.HandleFunc("POST /api/snapshots", h.Snapshots.CreateSnapshot)
		mux.HandleFunc("GET /api/snapshots/{name}", h.Snapshots.GetSnapshot)
	}
	if h.WS != nil {
		mux.HandleFunc("GET /ws", h.WS)
	}
	if h.Stream != nil {
		mux.Handle("GET /stream", h.Stream)
	}

	var chain http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		chain = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(chain)
	}
	// The synthetic stream stands in for an unauthenticated upstream feed.
	chain = middleware.Auth(cfg.APIKey, "/api/health", "/stream")(chain)
	chain = middleware.Logging(logger)(chain)
	chain = middleware.CORS(cfg.CORSOrigins)(chain)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           chain,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			// No WriteTimeout: websocket connections are long-lived.
		},
		logger: logger,
	}
}

// Handler exposes the full chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Listen binds the address so callers learn the real port before Serve.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", s.httpServer.Addr, err)
	}
	return ln, nil
}

// Serve handles requests on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
