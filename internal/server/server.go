// Package server exposes the grid over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/logging"
	"github.com/jmylchreest/colordots/internal/pipeline"
	"github.com/jmylchreest/colordots/internal/search"
)

// Options configures a Server.
type Options struct {
	Pipeline    *pipeline.Pipeline
	Backend     search.Backend
	Logger      hclog.Logger
	DefaultSort grid.SortMode
	Limit       int
	Debug       bool
}

// Server holds the most recent session and serves it to clients. Only one
// session exists at a time; a successful search replaces it.
type Server struct {
	opts   Options
	logger hclog.Logger
	engine *gin.Engine

	mu      sync.Mutex
	current *pipeline.Session
}

// New creates a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("server requires a pipeline")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("server requires a search backend")
	}
	if opts.DefaultSort == "" {
		opts.DefaultSort = grid.ModeInsertion
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
		gin.DefaultWriter = logging.Writer(logger.Named("gin"))
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))

	s := &Server{opts: opts, logger: logger, engine: engine}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/grid", s.handleGrid)
	api.POST("/search", s.handleSearch)
	api.POST("/sort", s.handleSort)
	api.POST("/shuffle", s.handleShuffle)
	api.POST("/resample", s.handleResample)

	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not found")
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func loggingMiddleware(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
