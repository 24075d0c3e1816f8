// Package server exposes the conversion pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/canopyforms/dd1750/internal/bom"
	"github.com/canopyforms/dd1750/internal/config"
	"github.com/canopyforms/dd1750/internal/generate"
	"github.com/canopyforms/dd1750/internal/pdf/security"
)

// shutdownTimeout bounds how long in-flight requests get during shutdown.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP server for the conversion API.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	http   *http.Server
}

// NewServer creates a server wired to the given configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	guard, err := security.NewTemplateGuard(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template guard: %w", err)
	}

	extractCfg := bom.DefaultConfig()
	extractCfg.QtyCeiling = cfg.QtyCeiling
	extractCfg.RequireIdentifier = cfg.RequireIdentifier

	svc := generate.NewService(cfg.MaxFileSize, extractCfg)
	handler := NewConvertHandler(cfg, svc, guard)

	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := setupRouter(handler, cfg.MaxFileSize)

	return &Server{
		cfg:    cfg,
		engine: engine,
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// setupRouter configures the Gin engine with all routes and middleware.
func setupRouter(handler *ConvertHandler, maxFileSize int64) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = maxFileSize

	r.GET("/healthz", handler.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/convert", handler.Convert)
	v1.POST("/preview", handler.Preview)
	v1.GET("/templates", handler.Templates)

	return r
}

// Run starts the server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		log.Printf("[server] listening on %s", s.cfg.Address())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh

	case err := <-errCh:
		return err
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
