// Package cmd provides command-line interface functionality for the esmconvert application.
/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esmconvert/internal/adapter/inbound/messaging"
	"esmconvert/internal/adapter/outbound/esmodule"
	"esmconvert/internal/adapter/outbound/repository"
	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/application/service"
	"esmconvert/internal/application/worker"
	"esmconvert/internal/config"
	"esmconvert/internal/port/inbound"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const (
	defaultHost = "localhost"

	databaseConnectTimeout = 10 * time.Second
	workerShutdownTimeout  = 30 * time.Second
)

// newWorkerCmd creates and returns the worker command.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the background worker service",
		Long: `Start the background worker service that processes conversion jobs from NATS JetStream.

The worker service:
- Connects to NATS JetStream to consume conversion jobs
- Loads job sources from PostgreSQL and converts them to CommonJS
- Runs with configurable concurrency for parallel job processing
- Acknowledges deterministic conversion failures and retries infrastructure errors

Configuration is loaded from config files and environment variables.`,
		Run: func(_ *cobra.Command, _ []string) {
			runWorkerService()
		},
	}
}

// runWorkerService starts and runs the worker service.
func runWorkerService() {
	cfg := GetConfig()

	slogger.InfoNoCtx("Starting worker service", slogger.Fields{
		"concurrency": cfg.Worker.Concurrency,
		"queue_group": cfg.Worker.QueueGroup,
	})

	dbPool, err := setupDatabaseConnection(cfg)
	if err != nil {
		slogger.ErrorNoCtx("Failed to create database connection pool", slogger.Fields{"error": err.Error()})
		return
	}
	defer dbPool.Close()

	workerService, err := createWorkerService(cfg, dbPool)
	if err != nil {
		slogger.ErrorNoCtx("Failed to create worker service", slogger.Fields{"error": err.Error()})
		return
	}

	if err := startWorkerService(workerService); err != nil {
		slogger.ErrorNoCtx("Failed to start worker service", slogger.Fields{"error": err.Error()})
		return
	}

	waitForShutdownAndStop(workerService)
}

// setupDatabaseConnection initializes the database connection with defaults.
func setupDatabaseConnection(cfg *config.Config) (*pgxpool.Pool, error) {
	dbConfig := cfg.Database

	// Set defaults if not configured
	if dbConfig.Host == "" {
		dbConfig.Host = defaultHost
	}
	if dbConfig.Port == 0 {
		dbConfig.Port = 5432
	}
	if dbConfig.MaxConnections == 0 {
		dbConfig.MaxConnections = 10
	}
	if dbConfig.SSLMode == "" {
		dbConfig.SSLMode = "disable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), databaseConnectTimeout)
	defer cancel()

	return repository.NewConnectionPool(ctx, dbConfig)
}

// createWorkerService creates and configures the worker service with all dependencies.
func createWorkerService(cfg *config.Config, dbPool *pgxpool.Pool) (inbound.WorkerService, error) {
	jobRepository := repository.NewPostgreSQLConversionJobRepository(dbPool)

	// Metrics are optional; a registration failure only logs.
	metrics, err := service.NewConversionMetrics()
	if err != nil {
		slogger.WarnNoCtx("Failed to register conversion metrics, continuing without", slogger.Fields{
			"error": err.Error(),
		})
		metrics = nil
	}

	// Create job processor. The semaphore inside bounds conversions across
	// all consumers.
	jobProcessorConfig := worker.JobProcessorConfig{
		MaxConcurrentJobs: cfg.Worker.Concurrency,
		JobTimeout:        cfg.Worker.JobTimeout,
	}

	jobProcessor := worker.NewDefaultJobProcessor(
		jobProcessorConfig,
		jobRepository,
		esmodule.NewTransformer(),
		metrics,
	)

	// Create consumers. All of them bind to the same durable, so JetStream
	// distributes messages across the pool.
	consumerConfig := messaging.ConsumerConfig{
		Subject:       "conversion.job",
		QueueGroup:    cfg.Worker.QueueGroup,
		DurableName:   "conversion-consumer",
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		MaxAckPending: 100,
	}

	consumers := make([]inbound.Consumer, 0, cfg.Worker.Concurrency)
	for range cfg.Worker.Concurrency {
		consumer, err := messaging.NewNATSConsumer(consumerConfig, cfg.NATS, jobProcessor)
		if err != nil {
			return nil, err
		}
		consumers = append(consumers, consumer)
	}

	// Create worker service
	workerServiceConfig := service.WorkerServiceConfig{
		Concurrency:     cfg.Worker.Concurrency,
		QueueGroup:      cfg.Worker.QueueGroup,
		ShutdownTimeout: workerShutdownTimeout,
	}

	return service.NewDefaultWorkerService(workerServiceConfig, consumers), nil
}

// startWorkerService starts the worker service.
func startWorkerService(workerService inbound.WorkerService) error {
	ctx := context.Background()
	if err := workerService.Start(ctx); err != nil {
		return err
	}

	slogger.InfoNoCtx("Worker service started successfully", nil)
	return nil
}

// waitForShutdownAndStop waits for shutdown signal and stops the service gracefully.
func waitForShutdownAndStop(workerService inbound.WorkerService) {
	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	slogger.InfoNoCtx("Received shutdown signal, initiating graceful shutdown", slogger.Fields{
		"signal": sig.String(),
	})

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	// Stop worker service gracefully
	if err := workerService.Stop(shutdownCtx); err != nil {
		slogger.ErrorNoCtx("Error during worker service shutdown", slogger.Fields{"error": err.Error()})
	} else {
		slogger.InfoNoCtx("Worker service shutdown completed successfully", nil)
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newWorkerCmd())

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// workerCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// workerCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
