// Package http provides the HTTP server adapter for the application layer.
// It is a thin layer translating requests into application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	tokens     *TokenIssuer
	logger     Logger
}

// NewServer creates a new HTTP server around the given handlers.
func NewServer(config ServerConfig, handlers *Handlers, tokens *TokenIssuer, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		tokens:   tokens,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api")

	api.POST("/auth/login", s.handlers.Login)

	authed := api.Group("", AuthMiddleware(s.tokens))
	{
		// The submit, log and history endpoints are open to any
		// authenticated user; review actions are PM and above.
		wf := authed.Group("/workflow")
		wf.POST("/submit", s.handlers.Submit)
		wf.POST("/log", s.handlers.LogAction)
		wf.GET("/history/:formId", s.handlers.History)
		wf.POST("/reject", RequireRole(entity.RolePM), s.handlers.Reject)
		wf.POST("/forward", RequireRole(entity.RolePM), s.handlers.Forward)
		wf.POST("/approve", RequireRole(entity.RolePM), s.handlers.Approve)

		forms := authed.Group("/forms")
		forms.POST("", s.handlers.CreateForm)
		forms.GET("", s.handlers.ListForms)
		forms.GET("/:id", s.handlers.GetForm)
		forms.PUT("/:id", s.handlers.SaveDraft)
		forms.DELETE("/:id", RequireRole(entity.RoleAdmin), s.handlers.DeleteForm)

		users := authed.Group("/users", RequireRole(entity.RoleSuperadmin))
		users.POST("", s.handlers.CreateUser)
		users.GET("", s.handlers.ListUsers)
		users.DELETE("/:id", s.handlers.DeleteUser)

		admin := authed.Group("/admin", RequireRole(entity.RoleAdmin))
		admin.GET("/export", s.handlers.ExportSubmissions)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
