// Package server exposes the scoring engine over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/huangsam/fragmeter/internal/contract"
)

// shutdownTimeout bounds how long in-flight requests may take once the server stops.
const shutdownTimeout = 10 * time.Second

// Server wires the HTTP routes to the scoring engine.
type Server struct {
	cfg      *contract.Config
	mgr      contract.CacheManager
	logger   *slog.Logger
	metrics  *Metrics
	limiters *clientLimiters
	engine   *gin.Engine
}

// New builds a server for cfg. A nil logger discards request logs.
func New(cfg *contract.Config, mgr contract.CacheManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:      cfg,
		mgr:      mgr,
		logger:   logger,
		metrics:  NewMetrics(),
		limiters: newClientLimiters(cfg.APIRateLimit, cfg.APIBurst),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))
	r.Use(s.requestLogger())
	r.Use(s.metrics.Middleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/v1")
	api.Use(s.rateLimit())
	api.POST("/score", s.handleScore)
	api.POST("/anomaly", s.handleAnomaly)
	api.GET("/users", s.handleUsers)
	api.GET("/users/:user/trend", s.handleTrend)
	return r
}

// corsConfig allows every origin unless specific origins are configured.
func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return config
}

// Run serves on cfg.ServeAddr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ServeAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting fragmeter API", "addr", s.cfg.ServeAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down fragmeter API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
