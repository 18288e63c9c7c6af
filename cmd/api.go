/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"esmconvert/internal/adapter/inbound/api"
	"esmconvert/internal/adapter/inbound/service"
	"esmconvert/internal/adapter/outbound/cache"
	"esmconvert/internal/adapter/outbound/esmodule"
	"esmconvert/internal/adapter/outbound/messaging"
	"esmconvert/internal/adapter/outbound/repository"
	appservice "esmconvert/internal/application/service"
	"esmconvert/internal/config"
	"esmconvert/internal/port/inbound"
	"esmconvert/internal/port/outbound"
	"esmconvert/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const serverStartTimeout = 10 * time.Second

// ServiceFactory creates and wires service instances. The database pool,
// message publisher, and metrics are created once and shared by every
// service built from the same factory.
type ServiceFactory struct {
	config *config.Config

	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	publisherOnce sync.Once
	publisher     *messaging.NATSMessagePublisher
	publisherErr  error

	metricsOnce sync.Once
	metrics     *appservice.ConversionMetrics
}

// NewServiceFactory creates a new ServiceFactory
func NewServiceFactory(cfg *config.Config) *ServiceFactory {
	return &ServiceFactory{
		config: cfg,
	}
}

// GetDatabasePool returns the shared database connection pool, creating it
// on first use.
func (sf *ServiceFactory) GetDatabasePool() (*pgxpool.Pool, error) {
	sf.poolOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), serverStartTimeout)
		defer cancel()
		sf.pool, sf.poolErr = repository.NewConnectionPool(ctx, sf.config.Database)
	})
	return sf.pool, sf.poolErr
}

// GetMessagePublisher returns the shared NATS publisher, connecting and
// ensuring the conversion stream on first use.
func (sf *ServiceFactory) GetMessagePublisher() (*messaging.NATSMessagePublisher, error) {
	sf.publisherOnce.Do(func() {
		publisher, err := messaging.NewNATSMessagePublisher(sf.config.NATS)
		if err != nil {
			sf.publisherErr = err
			return
		}
		if err := publisher.Connect(); err != nil {
			sf.publisherErr = err
			return
		}
		if err := publisher.EnsureStream(); err != nil {
			sf.publisherErr = err
			return
		}
		sf.publisher = publisher
	})
	return sf.publisher, sf.publisherErr
}

// getMetrics returns the shared conversion metrics. Metrics are optional
// everywhere they are consumed, so a registration failure only logs.
func (sf *ServiceFactory) getMetrics() *appservice.ConversionMetrics {
	sf.metricsOnce.Do(func() {
		metrics, err := appservice.NewConversionMetrics()
		if err != nil {
			log.Printf("Failed to register conversion metrics, continuing without: %v", err)
			return
		}
		sf.metrics = metrics
	})
	return sf.metrics
}

// CreateTransformService creates the synchronous conversion service. The
// result cache and the job store audit trail are optional; either failing
// only degrades the service.
func (sf *ServiceFactory) CreateTransformService() inbound.TransformService {
	var resultCache outbound.ResultCache
	if sf.config.Cache.Enabled {
		c, err := cache.NewResultCache(sf.config.Cache.Size)
		if err != nil {
			log.Printf("Failed to create result cache, continuing without: %v", err)
		} else {
			resultCache = c
		}
	}

	var jobRepo outbound.ConversionJobRepository
	pool, err := sf.GetDatabasePool()
	if err != nil {
		log.Printf("Failed to create database connection, transform audit trail disabled: %v", err)
	} else {
		jobRepo = repository.NewPostgreSQLConversionJobRepository(pool)
	}

	return appservice.NewDefaultTransformService(
		esmodule.NewTransformer(),
		resultCache,
		jobRepo,
		sf.getMetrics(),
		sf.config.Transform,
	)
}

// CreateJobService creates the asynchronous conversion job service. Both
// the job store and the message queue are required.
func (sf *ServiceFactory) CreateJobService() inbound.JobService {
	pool, err := sf.GetDatabasePool()
	if err != nil {
		log.Fatalf("Failed to create database connection: %v", err)
	}

	publisher, err := sf.GetMessagePublisher()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	jobRepo := repository.NewPostgreSQLConversionJobRepository(pool)
	return appservice.NewDefaultJobService(jobRepo, publisher, sf.config.Transform)
}

// CreateHealthService creates a health service instance. Unreachable
// dependencies degrade the health report instead of failing startup.
func (sf *ServiceFactory) CreateHealthService() inbound.HealthService {
	appVersion := version.GetVersion().FormatShort()

	var jobRepo outbound.ConversionJobRepository
	pool, err := sf.GetDatabasePool()
	if err != nil {
		log.Printf("Failed to create database connection, health checks will report it: %v", err)
	} else {
		jobRepo = repository.NewPostgreSQLConversionJobRepository(pool)
	}

	var msgPublisher outbound.MessagePublisher
	publisher, err := sf.GetMessagePublisher()
	if err != nil {
		log.Printf("Failed to connect to NATS, health checks will report it: %v", err)
	} else {
		msgPublisher = publisher
	}

	return service.NewHealthServiceAdapter(jobRepo, msgPublisher, appVersion)
}

// CreateErrorHandler creates an error handler instance
func (sf *ServiceFactory) CreateErrorHandler() api.ErrorHandler {
	return api.NewDefaultErrorHandler()
}

// CreateServer creates a fully configured server instance
func (sf *ServiceFactory) CreateServer() (*api.Server, error) {
	return api.NewServerBuilder(sf.config).
		WithTransformService(sf.CreateTransformService()).
		WithJobService(sf.CreateJobService()).
		WithHealthService(sf.CreateHealthService()).
		WithErrorHandler(sf.CreateErrorHandler()).
		WithDefaultMiddleware().
		Build()
}

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the HTTP API server that provides REST endpoints for
ES module conversion.

The server provides endpoints for:
- Health checks
- Synchronous module conversion
- Asynchronous conversion job management

Configuration is loaded from config files and environment variables.`,
	Run: runAPIServer,
}

func runAPIServer(_ *cobra.Command, _ []string) {
	cfg := GetConfig()

	// Create service factory
	serviceFactory := NewServiceFactory(cfg)

	// Create server using the factory
	server, err := serviceFactory.CreateServer()
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Start server with timeout
	startCtx, startCancel := context.WithTimeout(context.Background(), serverStartTimeout)
	defer startCancel()

	if err := server.Start(startCtx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Printf("API server started successfully on %s", server.Address())
	log.Printf("Server configuration: host=%s port=%s", server.Host(), server.Port())
	log.Printf("Middleware enabled: %d middleware components", server.MiddlewareCount())

	// Create a graceful shutdown handler
	gracefulShutdown(server)
}

// gracefulShutdown handles graceful server shutdown with proper signal handling
func gracefulShutdown(server *api.Server) {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)

	// Register the channel to receive specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for a signal
	sig := <-sigChan
	log.Printf("Received signal: %v. Initiating graceful shutdown...", sig)

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("API server shut down gracefully")
}

func init() {
	rootCmd.AddCommand(apiCmd)
}
