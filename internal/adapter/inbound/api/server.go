package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"esmconvert/internal/adapter/inbound/api/middleware"
	"esmconvert/internal/config"
	"esmconvert/internal/port/inbound"
)

// Server represents the HTTP API server
type Server struct {
	config           *config.Config
	httpServer       *http.Server
	routeRegistry    *RouteRegistry
	transformService inbound.TransformService
	jobService       inbound.JobService
	healthService    inbound.HealthService
	errorHandler     ErrorHandler
	listener         net.Listener
	isRunning        bool
	mu               sync.RWMutex
	middlewareCount  int
}

// ServerBuilder provides a fluent interface for building Server instances
type ServerBuilder struct {
	config           *config.Config
	transformService inbound.TransformService
	jobService       inbound.JobService
	healthService    inbound.HealthService
	errorHandler     ErrorHandler
	middleware       []MiddlewareFunc
}

// MiddlewareFunc defines the middleware function signature
type MiddlewareFunc func(http.Handler) http.Handler

// NewServerBuilder creates a new ServerBuilder
func NewServerBuilder(config *config.Config) *ServerBuilder {
	return &ServerBuilder{
		config:     config,
		middleware: make([]MiddlewareFunc, 0),
	}
}

// WithTransformService sets the synchronous conversion service
func (b *ServerBuilder) WithTransformService(service inbound.TransformService) *ServerBuilder {
	b.transformService = service
	return b
}

// WithJobService sets the conversion job service
func (b *ServerBuilder) WithJobService(service inbound.JobService) *ServerBuilder {
	b.jobService = service
	return b
}

// WithHealthService sets the health service
func (b *ServerBuilder) WithHealthService(service inbound.HealthService) *ServerBuilder {
	b.healthService = service
	return b
}

// WithErrorHandler sets the error handler
func (b *ServerBuilder) WithErrorHandler(handler ErrorHandler) *ServerBuilder {
	b.errorHandler = handler
	return b
}

// WithMiddleware adds middleware to the chain
func (b *ServerBuilder) WithMiddleware(middleware MiddlewareFunc) *ServerBuilder {
	b.middleware = append(b.middleware, middleware)
	return b
}

// WithDefaultMiddleware adds the standard middleware chain. Security headers
// and request logging honor their toggles in the API config; a nil toggle
// means enabled.
func (b *ServerBuilder) WithDefaultMiddleware() *ServerBuilder {
	if b.config == nil || enabled(b.config.API.EnableSecurityHeaders) {
		b.WithMiddleware(NewSecurityMiddleware())
	}
	if b.config == nil || enabled(b.config.API.EnableLogging) {
		b.WithMiddleware(middleware.NewLoggingMiddleware(middleware.DefaultLoggingConfig()).Handler)
	}
	b.WithMiddleware(NewCORSMiddleware())
	b.WithMiddleware(NewRecoveryMiddleware())
	return b
}

// enabled treats a nil toggle as true.
func enabled(toggle *bool) bool {
	return toggle == nil || *toggle
}

// Build creates the Server instance
func (b *ServerBuilder) Build() (*Server, error) {
	// Validate required dependencies
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("server builder validation failed: %w", err)
	}

	// Validate configuration
	if err := validateServerConfig(b.config); err != nil {
		return nil, err
	}

	return b.buildServer(), nil
}

// validate ensures all required dependencies are set
func (b *ServerBuilder) validate() error {
	if b.config == nil {
		return fmt.Errorf("config is required")
	}
	if b.transformService == nil {
		return fmt.Errorf("transform service is required")
	}
	if b.jobService == nil {
		return fmt.Errorf("job service is required")
	}
	if b.healthService == nil {
		return fmt.Errorf("health service is required")
	}
	if b.errorHandler == nil {
		return fmt.Errorf("error handler is required")
	}
	return nil
}

// buildServer creates the Server with all configured components
func (b *ServerBuilder) buildServer() *Server {
	// Create route registry and register routes
	registry := NewRouteRegistry()

	// Create handlers
	healthHandler := NewHealthHandler(b.healthService, b.errorHandler)
	transformHandler := NewTransformHandler(b.transformService, b.errorHandler)
	jobHandler := NewJobHandler(b.jobService, b.errorHandler)

	// Register API routes
	registry.RegisterAPIRoutes(healthHandler, transformHandler, jobHandler)

	// Build ServeMux
	mux := registry.BuildServeMux()

	// Apply middleware chain (in reverse order for proper stacking)
	var handler http.Handler = mux
	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i](handler)
	}

	// Create HTTP server
	httpServer := b.createHTTPServer(handler)

	return &Server{
		config:           b.config,
		httpServer:       httpServer,
		routeRegistry:    registry,
		transformService: b.transformService,
		jobService:       b.jobService,
		healthService:    b.healthService,
		errorHandler:     b.errorHandler,
		middlewareCount:  len(b.middleware),
	}
}

// createHTTPServer creates the underlying HTTP server
func (b *ServerBuilder) createHTTPServer(handler http.Handler) *http.Server {
	host := b.config.API.Host
	if host == "" {
		host = "0.0.0.0"
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", host, b.config.API.Port),
		Handler:      handler,
		ReadTimeout:  b.config.API.ReadTimeout,
		WriteTimeout: b.config.API.WriteTimeout,
	}
}

// NewServer creates a new API server with the given configuration and
// services, wired with the default middleware chain.
func NewServer(
	config *config.Config,
	transformService inbound.TransformService,
	jobService inbound.JobService,
	healthService inbound.HealthService,
	errorHandler ErrorHandler,
) (*Server, error) {
	return NewServerBuilder(config).
		WithTransformService(transformService).
		WithJobService(jobService).
		WithHealthService(healthService).
		WithErrorHandler(errorHandler).
		WithDefaultMiddleware().
		Build()
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("server is already running")
	}

	// Create listener
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener

	// Update server address with actual port (important for port 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.httpServer.Addr = fmt.Sprintf("%s:%d", s.Host(), tcpAddr.Port)
	}

	s.isRunning = true

	// Start server in goroutine
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}
	}()

	// Check if context was canceled during startup
	select {
	case <-ctx.Done():
		s.isRunning = false
		_ = listener.Close()
		return ctx.Err()
	default:
		return nil
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil // Already shut down
	}

	s.isRunning = false

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the server's listening address
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Host returns the server's host
func (s *Server) Host() string {
	host := s.config.API.Host
	if host == "" {
		return "0.0.0.0"
	}
	return host
}

// Port returns the server's port
func (s *Server) Port() string {
	return s.config.API.Port
}

// ReadTimeout returns the server's read timeout
func (s *Server) ReadTimeout() time.Duration {
	return s.config.API.ReadTimeout
}

// WriteTimeout returns the server's write timeout
func (s *Server) WriteTimeout() time.Duration {
	return s.config.API.WriteTimeout
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// HTTPServer returns the underlying HTTP server
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MiddlewareCount returns the number of registered middleware
func (s *Server) MiddlewareCount() int {
	return s.middlewareCount
}

// HasRoute checks if a specific route is registered
func (s *Server) HasRoute(pattern string) bool {
	return s.routeRegistry.HasRoute(pattern)
}

// RouteCount returns the number of registered routes
func (s *Server) RouteCount() int {
	return s.routeRegistry.RouteCount()
}

// validateServerConfig validates the server configuration
func validateServerConfig(config *config.Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate port
	if config.API.Port != "" && config.API.Port != "0" {
		if port, err := strconv.Atoi(config.API.Port); err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid port")
		}
	}

	// Validate timeouts
	if config.API.ReadTimeout < 0 {
		return fmt.Errorf("invalid timeout")
	}
	if config.API.WriteTimeout < 0 {
		return fmt.Errorf("invalid timeout")
	}

	return nil
}
