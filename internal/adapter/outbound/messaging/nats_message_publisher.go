package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"esmconvert/internal/config"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/port/outbound"

	"github.com/nats-io/nats.go"
)

const (
	// NATS connection timeout.
	natsConnectionTimeoutSeconds = 5

	// Stream configuration. Jobs expire after a day.
	conversionStreamName = "CONVERSION"
	conversionSubjects   = "conversion.>"
	conversionJobSubject = "conversion.job"
	streamMaxAgeHours    = 24

	// Messages above this size are rejected before publish; the module
	// source lives in the database, so messages stay far below it.
	maxPublishSizeBytes = 1024 * 1024
)

// MessageMetrics tracks message publishing metrics.
type MessageMetrics struct {
	PublishedCount    int64         `json:"published_count"`
	FailedCount       int64         `json:"failed_count"`
	AverageLatency    time.Duration `json:"average_latency"`
	LastPublishedTime time.Time     `json:"last_published_time"`
}

// NATSMessagePublisher provides a NATS JetStream implementation of the
// MessagePublisher port.
type NATSMessagePublisher struct {
	config         config.NATSConfig
	conn           *nats.Conn
	js             nats.JetStreamContext
	isTestMode     bool
	isConnected    bool
	messageMetrics MessageMetrics
	mutex          sync.RWMutex
	connectedAt    time.Time
	reconnectCount int
	lastError      error
	// Circuit breaker state
	circuitBreakerOpen bool
	lastFailureTime    time.Time
	failureCount       int
}

// NewNATSMessagePublisher creates a new NATS message publisher.
func NewNATSMessagePublisher(cfg config.NATSConfig) (*NATSMessagePublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") {
		return nil, errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < 0 {
		return nil, errors.New("max reconnects cannot be negative")
	}
	if cfg.ReconnectWait < 0 {
		return nil, errors.New("reconnect wait cannot be negative")
	}

	return &NATSMessagePublisher{
		config:     cfg,
		isTestMode: cfg.TestMode,
	}, nil
}

// PublishConversionJob publishes a conversion job message to JetStream.
// The message is validated against the queue schema before anything is sent.
func (n *NATSMessagePublisher) PublishConversionJob(
	ctx context.Context,
	message messaging.ConversionJobMessage,
) error {
	start := time.Now()

	select {
	case <-ctx.Done():
		n.updateMetrics(false, time.Since(start))
		return ctx.Err()
	default:
	}

	if err := message.Validate(); err != nil {
		return fmt.Errorf("invalid conversion job message: %w", err)
	}
	if err := messaging.ValidateMessageSize(message, maxPublishSizeBytes); err != nil {
		return err
	}

	if n.isCircuitBreakerOpen() {
		n.updateMetrics(false, time.Since(start))
		return errors.New("circuit breaker open: too many recent failures")
	}

	data, err := json.Marshal(message)
	if err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if n.isTestMode {
		if !n.connected() {
			n.updateMetrics(false, time.Since(start))
			return errors.New("not connected to NATS server")
		}
		n.updateMetrics(true, time.Since(start))
		return nil
	}

	if n.js == nil {
		n.updateMetrics(false, time.Since(start))
		return errors.New("publish failed: not connected to NATS")
	}

	if _, err := n.js.PublishAsync(conversionJobSubject, data, nats.Context(ctx)); err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	n.updateMetrics(true, time.Since(start))
	return nil
}

// Connect establishes a connection to the NATS server and opens a JetStream
// context. In test mode the publisher only marks itself connected.
func (n *NATSMessagePublisher) Connect() error {
	if n.isTestMode {
		n.setConnected(true, nil)
		return nil
	}

	opts := []nats.Option{
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds * time.Second),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			n.mutex.Lock()
			n.reconnectCount++
			n.mutex.Unlock()
			n.setConnected(true, nil)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, _ error) {
			n.setConnected(false, errors.New("connection lost"))
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.setConnected(false, err)
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		n.setConnected(false, err)
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n.conn = conn
	n.js = js
	n.setConnected(true, nil)
	return nil
}

// Disconnect closes the NATS connection.
func (n *NATSMessagePublisher) Disconnect() error {
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
		n.js = nil
	}
	n.setConnected(false, nil)
	return nil
}

// EnsureStream creates the conversion stream if it doesn't exist.
func (n *NATSMessagePublisher) EnsureStream() error {
	if n.isTestMode {
		if !n.connected() {
			return errors.New("not connected to NATS server")
		}
		return nil
	}

	if n.js == nil {
		return errors.New("not connected to NATS server")
	}

	streamConfig := &nats.StreamConfig{
		Name:      conversionStreamName,
		Subjects:  []string{conversionSubjects},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
		MaxAge:    streamMaxAgeHours * time.Hour,
		Replicas:  1,
	}

	// Try to create the stream, tolerating one that already exists.
	if _, err := n.js.AddStream(streamConfig); err != nil {
		if _, streamErr := n.js.StreamInfo(conversionStreamName); streamErr == nil {
			return nil
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// GetConnectionHealth returns the current connection health status.
func (n *NATSMessagePublisher) GetConnectionHealth() outbound.MessagePublisherHealthStatus {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	status := outbound.MessagePublisherHealthStatus{
		Connected:        n.isConnected,
		JetStreamEnabled: n.js != nil || (n.isTestMode && n.isConnected),
		Reconnects:       n.reconnectCount,
	}

	if n.isConnected {
		status.Uptime = time.Since(n.connectedAt).String()
	} else {
		status.Uptime = "0s"
	}

	if n.lastError != nil {
		status.LastError = n.lastError.Error()
	}

	return status
}

// GetMessageMetrics returns a snapshot of publishing metrics.
func (n *NATSMessagePublisher) GetMessageMetrics() MessageMetrics {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.messageMetrics
}

func (n *NATSMessagePublisher) connected() bool {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.isConnected
}

func (n *NATSMessagePublisher) setConnected(connected bool, err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.isConnected = connected
	if err != nil {
		n.lastError = err
	}
	if connected && n.connectedAt.IsZero() {
		n.connectedAt = time.Now()
	}
}

// updateMetrics updates message publishing metrics and feeds the circuit
// breaker on failures.
func (n *NATSMessagePublisher) updateMetrics(success bool, latency time.Duration) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if success {
		n.messageMetrics.PublishedCount++
		n.messageMetrics.LastPublishedTime = time.Now()

		if n.messageMetrics.AverageLatency == 0 {
			n.messageMetrics.AverageLatency = latency
		} else {
			// EMA with alpha = 0.1
			n.messageMetrics.AverageLatency = time.Duration(
				0.9*float64(n.messageMetrics.AverageLatency) + 0.1*float64(latency),
			)
		}
		n.updateCircuitBreaker(true)
	} else {
		n.messageMetrics.FailedCount++
		n.updateCircuitBreaker(false)
	}
}

// updateCircuitBreaker updates circuit breaker state.
func (n *NATSMessagePublisher) updateCircuitBreaker(success bool) {
	const maxFailures = 3
	const circuitOpenDuration = 30 * time.Second

	if success {
		n.failureCount = 0
		n.circuitBreakerOpen = false
	} else {
		n.failureCount++
		n.lastFailureTime = time.Now()

		if n.failureCount >= maxFailures {
			n.circuitBreakerOpen = true
		}
	}

	if n.circuitBreakerOpen && time.Since(n.lastFailureTime) > circuitOpenDuration {
		n.circuitBreakerOpen = false
		n.failureCount = 0
	}
}

// isCircuitBreakerOpen checks if the circuit breaker is currently open,
// closing it again once the cool-down has elapsed.
func (n *NATSMessagePublisher) isCircuitBreakerOpen() bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.circuitBreakerOpen && time.Since(n.lastFailureTime) > 30*time.Second {
		n.circuitBreakerOpen = false
		n.failureCount = 0
	}
	return n.circuitBreakerOpen
}

// ResetCircuitBreaker resets the circuit breaker state.
func (n *NATSMessagePublisher) ResetCircuitBreaker() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.circuitBreakerOpen = false
	n.failureCount = 0
	n.lastFailureTime = time.Time{}
}
