package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pbechard/citecheck/internal/job"
	"github.com/pbechard/citecheck/internal/model"
)

// Server exposes the document pipeline over HTTP: submission, progress
// polling, and result retrieval. Inline and background execution follow
// the same rules as the CLI; the server only adds transport.
type Server struct {
	cfg    model.ServerConfig
	engine *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// New builds the HTTP server around a coordinator. The coordinator must
// be started separately; the server never owns its lifecycle.
func New(cfg model.ServerConfig, coord *job.Coordinator, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	h := NewHandlers(coord, cfg.MaxBodyBytes, logger)
	registerRoutes(engine, h)

	return &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func registerRoutes(engine *gin.Engine, h *Handlers) {
	engine.GET("/health", h.HandleHealth)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/documents", h.HandleSubmit)
		v1.GET("/progress/:id", h.HandleProgress)
		v1.GET("/results/:id", h.HandleResult)
	}
}

// Run serves until ctx is canceled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// requestLogger records one line per request through the structured
// logger, replacing gin's default console logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
