// Package repository implements PostgreSQL persistence for conversion jobs
// using pgx connection pools.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"esmconvert/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConnections = 10
	connectTestTimeout    = 5 * time.Second

	// DefaultHealthCacheTTL bounds how long pool metrics are reused before
	// a fresh ping.
	DefaultHealthCacheTTL = 5 * time.Second
)

// NewConnectionPool creates a pgx connection pool from the database
// configuration and verifies connectivity with a ping.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	} else {
		poolConfig.MaxConns = defaultMaxConnections
	}
	if cfg.MaxIdleConnections > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTestTimeout)
	defer cancel()

	if pingErr := pool.Ping(pingCtx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return pool, nil
}

// HealthMetrics represents database pool health metrics.
type HealthMetrics struct {
	TotalConnections  int32
	ActiveConnections int32
	IdleConnections   int32
	ResponseTime      time.Duration
}

// DatabaseHealthChecker reports database reachability and pool metrics.
// Metrics are cached for a short TTL so health endpoints do not ping the
// database on every request.
type DatabaseHealthChecker struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	cached   *HealthMetrics
	cachedAt time.Time
	ttl      time.Duration
}

// NewDatabaseHealthChecker creates a health checker for a pool.
func NewDatabaseHealthChecker(pool *pgxpool.Pool) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{
		pool: pool,
		ttl:  DefaultHealthCacheTTL,
	}
}

// IsHealthy checks if the database answers a ping.
func (h *DatabaseHealthChecker) IsHealthy(ctx context.Context) bool {
	if h == nil || h.pool == nil {
		return false
	}
	return h.pool.Ping(ctx) == nil
}

// GetMetrics returns pool health metrics, reusing the cached snapshot
// within the TTL window.
func (h *DatabaseHealthChecker) GetMetrics(ctx context.Context) *HealthMetrics {
	if h == nil || h.pool == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cached != nil && time.Since(h.cachedAt) < h.ttl {
		return h.cached
	}

	start := time.Now()
	_ = h.pool.Ping(ctx)
	responseTime := time.Since(start)

	stats := h.pool.Stat()
	h.cached = &HealthMetrics{
		TotalConnections:  stats.TotalConns(),
		ActiveConnections: stats.AcquiredConns(),
		IdleConnections:   stats.IdleConns(),
		ResponseTime:      responseTime,
	}
	h.cachedAt = time.Now()
	return h.cached
}
