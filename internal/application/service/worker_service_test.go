package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esmconvert/internal/port/inbound"
)

// Mock consumer for testing.
type MockConsumer struct {
	mock.Mock
}

func (m *MockConsumer) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConsumer) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConsumer) Health() inbound.ConsumerHealthStatus {
	args := m.Called()
	return args.Get(0).(inbound.ConsumerHealthStatus)
}

func (m *MockConsumer) QueueGroup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConsumer) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConsumer) DurableName() string {
	args := m.Called()
	return args.String(0)
}

func testWorkerServiceConfig() WorkerServiceConfig {
	return WorkerServiceConfig{
		Concurrency:     3,
		QueueGroup:      "conversion-workers",
		ShutdownTimeout: 5 * time.Second,
	}
}

func healthyConsumerStatus() inbound.ConsumerHealthStatus {
	return inbound.ConsumerHealthStatus{
		IsRunning:   true,
		IsConnected: true,
		QueueGroup:  "conversion-workers",
		Subject:     "conversion.job",
	}
}

func TestDefaultWorkerService_StartStopLifecycle(t *testing.T) {
	// Arrange
	consumers := make([]inbound.Consumer, 0, 3)
	mocks := make([]*MockConsumer, 0, 3)
	for range 3 {
		consumer := new(MockConsumer)
		consumer.On("Start", mock.Anything).Return(nil)
		consumer.On("Stop", mock.Anything).Return(nil)
		consumer.On("Health").Return(healthyConsumerStatus())
		consumers = append(consumers, consumer)
		mocks = append(mocks, consumer)
	}
	service := NewDefaultWorkerService(testWorkerServiceConfig(), consumers)

	ctx := context.Background()

	// Act: start
	require.NoError(t, service.Start(ctx))

	// Assert: running with all consumers healthy
	health := service.Health()
	assert.True(t, health.IsRunning)
	assert.Equal(t, 3, health.TotalConsumers)
	assert.Equal(t, 3, health.HealthyConsumers)
	assert.Len(t, health.ConsumerDetails, 3)

	// Second start is rejected
	err := service.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	// Act: stop, then stop again
	require.NoError(t, service.Stop(ctx))
	require.NoError(t, service.Stop(ctx))

	assert.False(t, service.Health().IsRunning)

	// Each consumer stopped exactly once despite the double stop.
	for _, consumer := range mocks {
		consumer.AssertNumberOfCalls(t, "Stop", 1)
	}
}

func TestDefaultWorkerService_StartFailureStopsStartedConsumers(t *testing.T) {
	// Arrange
	first := new(MockConsumer)
	first.On("Start", mock.Anything).Return(nil)
	first.On("Stop", mock.Anything).Return(nil)

	second := new(MockConsumer)
	second.On("Start", mock.Anything).Return(errors.New("nats: no servers available"))

	third := new(MockConsumer)

	service := NewDefaultWorkerService(
		testWorkerServiceConfig(),
		[]inbound.Consumer{first, second, third},
	)

	// Act
	err := service.Start(context.Background())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start consumer 1")

	first.AssertCalled(t, "Stop", mock.Anything)
	third.AssertNotCalled(t, "Start", mock.Anything)

	first.On("Health").Return(healthyConsumerStatus())
	second.On("Health").Return(inbound.ConsumerHealthStatus{})
	third.On("Health").Return(inbound.ConsumerHealthStatus{})

	health := service.Health()
	assert.False(t, health.IsRunning)
	assert.Contains(t, health.LastError, "no servers available")
}

func TestDefaultWorkerService_StopFailureReported(t *testing.T) {
	// Arrange
	healthy := new(MockConsumer)
	healthy.On("Start", mock.Anything).Return(nil)
	healthy.On("Stop", mock.Anything).Return(nil)
	healthy.On("Health").Return(healthyConsumerStatus())

	stuck := new(MockConsumer)
	stuck.On("Start", mock.Anything).Return(nil)
	stuck.On("Stop", mock.Anything).Return(errors.New("drain timed out"))
	stuck.On("Health").Return(inbound.ConsumerHealthStatus{LastError: "drain timed out"})

	service := NewDefaultWorkerService(
		testWorkerServiceConfig(),
		[]inbound.Consumer{healthy, stuck},
	)

	ctx := context.Background()
	require.NoError(t, service.Start(ctx))

	// Act
	err := service.Stop(ctx)

	// Assert: error surfaces but the service still counts as stopped.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stop consumers")
	assert.False(t, service.Health().IsRunning)
}

func TestDefaultWorkerService_HealthCountsUnhealthyConsumers(t *testing.T) {
	// Arrange
	healthy := new(MockConsumer)
	healthy.On("Start", mock.Anything).Return(nil)
	healthy.On("Health").Return(healthyConsumerStatus())

	disconnected := new(MockConsumer)
	disconnected.On("Start", mock.Anything).Return(nil)
	disconnected.On("Health").Return(inbound.ConsumerHealthStatus{
		IsRunning:   true,
		IsConnected: false,
		LastError:   "connection lost",
	})

	service := NewDefaultWorkerService(
		testWorkerServiceConfig(),
		[]inbound.Consumer{healthy, disconnected},
	)

	require.NoError(t, service.Start(context.Background()))

	// Act
	health := service.Health()

	// Assert
	assert.Equal(t, 2, health.TotalConsumers)
	assert.Equal(t, 1, health.HealthyConsumers)
	assert.Positive(t, health.ServiceUptime)
}

func TestNewDefaultWorkerService_RequiresConsumers(t *testing.T) {
	assert.Panics(t, func() {
		NewDefaultWorkerService(testWorkerServiceConfig(), nil)
	})
}
