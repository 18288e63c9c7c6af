// Package messaging implements the NATS JetStream consumer that feeds queued
// conversion jobs to the job processor.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/config"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/port/inbound"

	"github.com/nats-io/nats.go"
)

const (
	// defaultJobProcessingTimeout bounds one job, including parse time.
	defaultJobProcessingTimeout = 30 * time.Second

	conversionStreamName = "CONVERSION"
	conversionSubjects   = "conversion.>"
	streamMaxAgeHours    = 24

	// messagesFetchBatch is the number of messages pulled per fetch.
	messagesFetchBatch = 10
	// messageFetchMaxWait is the bounded wait for one fetch.
	messageFetchMaxWait = 5 * time.Second
	// drainWait is the grace period for the processing loop to exit on Stop.
	drainWait = 10 * time.Second
)

// ConsumerConfig holds configuration for the message consumer.
type ConsumerConfig struct {
	Subject       string
	QueueGroup    string
	DurableName   string
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
}

// ConsumerStats tracks message consumption counters.
type ConsumerStats struct {
	MessagesReceived   int64         `json:"messages_received"`
	MessagesProcessed  int64         `json:"messages_processed"`
	MessagesFailed     int64         `json:"messages_failed"`
	BytesReceived      int64         `json:"bytes_received"`
	LastProcessTime    time.Duration `json:"last_process_time"`
	AverageProcessTime time.Duration `json:"average_process_time"`
	ActiveSince        time.Time     `json:"active_since"`
}

// NATSConsumer pulls conversion job messages from the durable JetStream
// consumer and dispatches them to the job processor. Messages the processor
// handles (including deterministic conversion failures it records on the
// job) are acked; infrastructure errors nak for redelivery.
type NATSConsumer struct {
	config       ConsumerConfig
	natsConfig   config.NATSConfig
	jobProcessor inbound.JobProcessor

	conn         *nats.Conn
	jsContext    nats.JetStreamContext
	subscription *nats.Subscription
	loopDone     chan struct{}

	running bool
	mu      sync.RWMutex
	stats   ConsumerStats
	health  inbound.ConsumerHealthStatus
}

// NewNATSConsumer creates a consumer after validating its configuration.
func NewNATSConsumer(
	consumerConfig ConsumerConfig,
	natsConfig config.NATSConfig,
	processor inbound.JobProcessor,
) (*NATSConsumer, error) {
	if err := validateConsumerConfig(consumerConfig); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if processor == nil {
		return nil, errors.New("job processor cannot be nil")
	}

	return &NATSConsumer{
		config:       consumerConfig,
		natsConfig:   natsConfig,
		jobProcessor: processor,
		stats: ConsumerStats{
			ActiveSince: time.Now(),
		},
		health: inbound.ConsumerHealthStatus{
			QueueGroup: consumerConfig.QueueGroup,
			Subject:    consumerConfig.Subject,
		},
	}, nil
}

func validateConsumerConfig(config ConsumerConfig) error {
	if config.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if config.QueueGroup == "" {
		return errors.New("queue group cannot be empty")
	}
	if config.DurableName == "" {
		return errors.New("durable name cannot be empty")
	}
	if config.AckWait <= 0 {
		return errors.New("ack wait duration must be positive")
	}
	if config.MaxDeliver <= 0 {
		return errors.New("max deliver count must be positive")
	}
	if config.MaxAckPending <= 0 {
		return errors.New("max ack pending must be positive")
	}
	return nil
}

// Start connects to NATS, provisions the stream and durable consumer, and
// begins pulling messages. Starting an already running consumer is an error.
func (n *NATSConsumer) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("consumer already running for subject %s", n.config.Subject)
	}

	if n.natsConfig.TestMode {
		n.markStartedLocked()
		return nil
	}

	conn, err := nats.Connect(n.natsConfig.URL,
		nats.MaxReconnects(n.natsConfig.MaxReconnects),
		nats.ReconnectWait(n.natsConfig.ReconnectWait),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	n.conn = conn
	n.jsContext = js

	if err := n.ensureStreamExists(); err != nil {
		conn.Close()
		return err
	}
	if err := n.createDurableConsumer(); err != nil {
		conn.Close()
		return err
	}

	sub, err := js.PullSubscribe(
		n.config.Subject,
		n.config.DurableName,
		nats.Bind(conversionStreamName, n.config.DurableName),
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create pull subscription: %w", err)
	}
	n.subscription = sub
	n.loopDone = make(chan struct{})

	n.markStartedLocked()
	go n.messageProcessingLoop(ctx, n.loopDone)

	slogger.Info(ctx, "Conversion consumer started", slogger.Fields{
		"subject":      n.config.Subject,
		"queue_group":  n.config.QueueGroup,
		"durable_name": n.config.DurableName,
	})
	return nil
}

func (n *NATSConsumer) markStartedLocked() {
	n.running = true
	n.health.IsRunning = true
	n.health.IsConnected = true
	n.stats.ActiveSince = time.Now()
}

// Stop drains the subscription and closes the connection. Stopping a
// stopped consumer is a no-op.
func (n *NATSConsumer) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	n.health.IsRunning = false
	n.health.IsConnected = false
	subscription := n.subscription
	loopDone := n.loopDone
	n.subscription = nil
	n.mu.Unlock()

	if subscription != nil {
		if err := subscription.Drain(); err != nil {
			slogger.Warn(ctx, "Failed to drain subscription", slogger.Fields{
				"error": err.Error(),
			})
		}
	}

	if loopDone != nil {
		select {
		case <-loopDone:
		case <-time.After(drainWait):
			slogger.Warn(ctx, "Timed out waiting for message loop to drain", nil)
		case <-ctx.Done():
		}
	}

	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
		n.jsContext = nil
	}
	return nil
}

// Health returns the current health status of the consumer.
func (n *NATSConsumer) Health() inbound.ConsumerHealthStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.health
}

// GetStats returns consumer statistics.
func (n *NATSConsumer) GetStats() ConsumerStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stats
}

// QueueGroup returns the consumer's queue group.
func (n *NATSConsumer) QueueGroup() string {
	if n == nil {
		return ""
	}
	return n.config.QueueGroup
}

// Subject returns the consumer's subject.
func (n *NATSConsumer) Subject() string {
	if n == nil {
		return ""
	}
	return n.config.Subject
}

// DurableName returns the consumer's durable name.
func (n *NATSConsumer) DurableName() string {
	if n == nil {
		return ""
	}
	return n.config.DurableName
}

// ensureStreamExists creates the conversion stream if it doesn't exist.
func (n *NATSConsumer) ensureStreamExists() error {
	if _, err := n.jsContext.StreamInfo(conversionStreamName); err == nil {
		return nil
	}

	streamConfig := &nats.StreamConfig{
		Name:      conversionStreamName,
		Subjects:  []string{conversionSubjects},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
		MaxAge:    streamMaxAgeHours * time.Hour,
		Replicas:  1,
	}

	if _, err := n.jsContext.AddStream(streamConfig); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", conversionStreamName, err)
	}
	return nil
}

// createDurableConsumer provisions the durable pull consumer, tolerating one
// that already exists.
func (n *NATSConsumer) createDurableConsumer() error {
	consumerConfig := &nats.ConsumerConfig{
		Durable:       n.config.DurableName,
		DeliverGroup:  n.config.QueueGroup,
		FilterSubject: n.config.Subject,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       n.config.AckWait,
		MaxDeliver:    n.config.MaxDeliver,
		MaxAckPending: n.config.MaxAckPending,
		ReplayPolicy:  nats.ReplayInstantPolicy,
		DeliverPolicy: nats.DeliverAllPolicy,
	}

	if _, err := n.jsContext.AddConsumer(conversionStreamName, consumerConfig); err != nil {
		if strings.Contains(err.Error(), "already in use") || strings.Contains(err.Error(), "exists") {
			return nil
		}
		return fmt.Errorf("failed to create durable consumer %s: %w", n.config.DurableName, err)
	}
	return nil
}

// messageProcessingLoop continuously fetches and processes messages until
// the consumer stops.
func (n *NATSConsumer) messageProcessingLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		n.mu.RLock()
		running := n.running
		subscription := n.subscription
		n.mu.RUnlock()

		if !running || subscription == nil {
			return
		}

		msgs, err := subscription.Fetch(messagesFetchBatch, nats.MaxWait(messageFetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return
			}
			slogger.Warn(ctx, "Failed to fetch messages", slogger.Fields{
				"subject": n.config.Subject,
				"error":   err.Error(),
			})
			continue
		}

		for _, msg := range msgs {
			n.processMessage(ctx, msg)
		}
	}
}

// processMessage handles a single NATS message and acknowledges it based on
// the outcome.
func (n *NATSConsumer) processMessage(ctx context.Context, msg *nats.Msg) {
	if err := n.handleMessage(msg); err != nil {
		slogger.Error(ctx, "Message processing failed", slogger.Fields{
			"subject": n.config.Subject,
			"error":   err.Error(),
		})
		// Redeliver: the failure was environmental, not the message itself.
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// handleMessage deserializes, validates, and processes one message.
func (n *NATSConsumer) handleMessage(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("received nil message")
	}

	var jobMessage messaging.ConversionJobMessage
	if err := json.Unmarshal(msg.Data, &jobMessage); err != nil {
		n.updateStats(false, 0, len(msg.Data))
		n.updateHealthOnError(fmt.Sprintf("failed to unmarshal message: %v", err))
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if err := jobMessage.Validate(); err != nil {
		n.updateStats(false, 0, len(msg.Data))
		n.updateHealthOnError(fmt.Sprintf("invalid message: %v", err))
		return fmt.Errorf("message validation failed: %w", err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobProcessingTimeout)
	defer cancel()

	err := n.jobProcessor.ProcessJob(ctx, jobMessage)
	processTime := time.Since(start)

	n.updateStats(err == nil, processTime, len(msg.Data))

	if err != nil {
		n.updateHealthOnError(fmt.Sprintf("job processing failed: %v", err))
		return fmt.Errorf("job processing failed: %w", err)
	}
	return nil
}

// updateHealthOnError updates health status when an error occurs.
func (n *NATSConsumer) updateHealthOnError(errorMsg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.health.ErrorCount++
	n.health.LastError = errorMsg
}

// updateStats updates consumer statistics in a thread-safe manner.
func (n *NATSConsumer) updateStats(success bool, processTime time.Duration, messageBytes int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stats.MessagesReceived++
	n.stats.BytesReceived += int64(messageBytes)

	if success {
		n.stats.MessagesProcessed++
		n.health.MessagesHandled++
		n.health.LastMessageTime = time.Now()
	} else {
		n.stats.MessagesFailed++
	}

	if processTime > 0 {
		n.stats.LastProcessTime = processTime
		if n.stats.AverageProcessTime == 0 {
			n.stats.AverageProcessTime = processTime
		} else {
			// EMA with alpha = 0.1
			n.stats.AverageProcessTime = time.Duration(
				0.9*float64(n.stats.AverageProcessTime) + 0.1*float64(processTime),
			)
		}
	}
}
