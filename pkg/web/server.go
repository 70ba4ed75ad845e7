package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ninlil/pkg/config"
	"ninlil/pkg/logger"
)

// Server is the HTTP front of the archive flow with lifecycle management
type Server struct {
	router *gin.Engine
	server *http.Server
	config config.ServerConfig
	logger logger.Logger
}

// NewServer builds the gin engine with standard middleware and mounts handler
func NewServer(cfg config.ServerConfig, handler *Handler, log logger.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(SessionMiddleware(strings.HasPrefix(cfg.PublicURL, "https://")))
	handler.Register(router)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		config: cfg,
		logger: log,
	}
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	s.logger.InfoWithFields("Starting HTTP server", map[string]interface{}{
		"address":       s.server.Addr,
		"public_url":    s.config.PublicURL,
		"read_timeout":  s.server.ReadTimeout,
		"write_timeout": s.server.WriteTimeout,
	})

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones up to the configured timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoWithFields("Shutting down HTTP server", map[string]interface{}{
		"timeout": s.config.ShutdownTimeout,
	})

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
	}

	return s.Shutdown(context.WithoutCancel(ctx))
}
