// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimson-sun/riskscan/internal/health"
	"github.com/crimson-sun/riskscan/internal/ingest"
	"github.com/crimson-sun/riskscan/internal/metrics"
	"github.com/crimson-sun/riskscan/internal/model"
	"github.com/crimson-sun/riskscan/internal/output"
)

// Scorer turns a decoded batch into a risk report.
type Scorer interface {
	Process(ctx context.Context, raws []model.RawRecord) (model.RiskReport, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger attached to every request. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSink forwards every successful report to out. The sink should not
// block; wrap slow outputs in async.New.
func WithSink(out output.Output) Option {
	return func(s *Server) { s.sink = out }
}

// WithHealth sets the registry consulted by /readyz.
func WithHealth(r *health.Registry) Option {
	return func(s *Server) { s.health = r }
}

// WithMaxUploadBytes bounds the uploaded file size. Default: ingest.DefaultMaxBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// WithShutdownTimeout bounds graceful shutdown in Run. Default: 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// Server is the riskscan HTTP API.
type Server struct {
	router          *gin.Engine
	scorer          Scorer
	sink            output.Output
	health          *health.Registry
	logger          *slog.Logger
	maxUpload       int64
	shutdownTimeout time.Duration
	ready           atomic.Bool
}

// New builds the router. Call gin.SetMode before New to pick release mode.
func New(scorer Scorer, opts ...Option) *Server {
	s := &Server{
		scorer:          scorer,
		logger:          slog.Default(),
		maxUpload:       ingest.DefaultMaxBytes,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.NewRegistry(5 * time.Second)
	}
	s.health.Register("server", func(context.Context) health.Status {
		if s.ready.Load() {
			return health.Status{Healthy: true}
		}
		return health.Status{Healthy: false, Detail: "shutting down"}
	})

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
	s.ready.Store(true)
	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging(c).Error("panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))
	s.router.Use(corsMiddleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(metrics.Middleware())
	s.router.Use(loggingMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.root)
	s.router.HEAD("/", s.root)
	s.router.OPTIONS("/", s.root)
	s.router.POST("/predict", s.predict)
	s.router.OPTIONS("/predict", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	s.router.GET("/healthz", s.liveness)
	s.router.GET("/readyz", s.readiness)
	s.router.GET("/metrics", metrics.Handler())
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
