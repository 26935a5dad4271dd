// Package server exposes the study loop over HTTP for a presentation layer.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/ingest"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// Config controls the HTTP listener.
type Config struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxDocumentBytes caps uploaded document text.
	MaxDocumentBytes int64 `yaml:"max_document_bytes"`
}

// DefaultConfig listens on localhost only.
func DefaultConfig() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		ShutdownTimeout:  10 * time.Second,
		MaxDocumentBytes: 8 << 20,
	}
}

// Validate checks the listener settings.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server: addr is required")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("server: shutdown_timeout must not be negative")
	}
	return nil
}

// Deps are the services behind the routes.
type Deps struct {
	Orchestrator *session.Orchestrator
	Store        *store.Store
	// Ingester is optional; without it document upload is disabled.
	Ingester *ingest.Ingester
	Logger   *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	engine *gin.Engine
	orc    *session.Orchestrator
	docs   *store.DocumentRepo
	qs     *store.QuestionRepo
	hist   *store.HistoryStore
	ing    *ingest.Ingester
	logger *slog.Logger
}

// New builds the router.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
		orc:    deps.Orchestrator,
		docs:   deps.Store.DocumentRepo(),
		qs:     deps.Store.QuestionRepo(),
		hist:   deps.Store.HistoryStore(),
		ing:    deps.Ingester,
		logger: deps.Logger,
	}
	s.engine.Use(gin.Recovery(), requestLogger(s.logger))
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := r.Group("/v1")
	docs := v1.Group("/documents")
	{
		docs.GET("", s.listDocuments)
		docs.POST("", s.createDocument)
		docs.GET("/:id", s.getDocument)
		docs.DELETE("/:id", s.deleteDocument)
	}
	users := v1.Group("/users/:user")
	{
		users.POST("/questions", s.nextQuestion)
		users.POST("/answers", s.submitAnswer)
		users.GET("/progress", s.progress)
		users.GET("/stats", s.stats)
		users.GET("/history", s.history)
		users.DELETE("/mastery", s.reset)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Err)
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("http request", attrs...)
		} else {
			logger.Debug("http request", attrs...)
		}
	}
}
