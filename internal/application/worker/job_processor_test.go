package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esmconvert/internal/domain/entity"
	conversionerrors "esmconvert/internal/domain/errors/conversion"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/domain/valueobject"
	"esmconvert/internal/port/outbound"
)

// Mock conversion job repository for testing.
type MockConversionJobRepository struct {
	mock.Mock
}

func (m *MockConversionJobRepository) Save(ctx context.Context, job *entity.ConversionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockConversionJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ConversionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ConversionJob), args.Error(1)
}

func (m *MockConversionJobRepository) FindAll(
	ctx context.Context,
	filters outbound.ConversionJobFilters,
) ([]*entity.ConversionJob, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.ConversionJob), args.Int(1), args.Error(2)
}

func (m *MockConversionJobRepository) Update(ctx context.Context, job *entity.ConversionJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// Mock module transformer for testing.
type MockModuleTransformer struct {
	mock.Mock
}

func (m *MockModuleTransformer) Transform(
	ctx context.Context,
	source []byte,
	modulePath string,
) (valueobject.TransformResult, error) {
	args := m.Called(ctx, source, modulePath)
	return args.Get(0).(valueobject.TransformResult), args.Error(1)
}

func testProcessorConfig() JobProcessorConfig {
	return JobProcessorConfig{
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Second,
	}
}

func testJobMessage(job *entity.ConversionJob) messaging.ConversionJobMessage {
	return messaging.ConversionJobMessage{
		MessageID:     messaging.GenerateUniqueMessageID(),
		CorrelationID: messaging.GenerateCorrelationID(),
		SchemaVersion: messaging.CurrentSchemaVersion,
		Timestamp:     time.Now(),
		JobID:         job.ID(),
		ModulePath:    job.ModulePath(),
		RetryAttempt:  0,
		MaxRetries:    3,
	}
}

func mustResult(t *testing.T, output string) valueobject.TransformResult {
	t.Helper()
	result, err := valueobject.NewTransformResult(output, true, 1, false, true)
	require.NoError(t, err)
	return result
}

func TestDefaultJobProcessor_ProcessJob_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	source := `import { a } from "./a.js";` + "\n" + `export const b = a;` + "\n"
	job := entity.NewConversionJob("src/app.js", source)
	message := testJobMessage(job)
	result := mustResult(t, "converted output")

	// Mock expectations
	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)
	mockRepo.On("Update", mock.Anything, job).Return(nil)
	mockTransformer.On("Transform", mock.Anything, []byte(source), "src/app.js").Return(result, nil)

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCompleted, job.Status())
	require.NotNil(t, job.Output())
	assert.Equal(t, "converted output", *job.Output())
	assert.NotNil(t, job.StartedAt())
	assert.NotNil(t, job.CompletedAt())

	// One update for running, one for completed.
	mockRepo.AssertNumberOfCalls(t, "Update", 2)

	metrics := processor.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalJobsProcessed)
	assert.Equal(t, int64(0), metrics.TotalJobsFailed)
	assert.Equal(t, int64(len(source)), metrics.BytesConverted)
	assert.Positive(t, metrics.AverageProcessingTime)

	mockRepo.AssertExpectations(t)
	mockTransformer.AssertExpectations(t)
}

func TestDefaultJobProcessor_ProcessJob_UnknownJobAcknowledged(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	job := entity.NewConversionJob("gone.js", "export const a = 1;")
	message := testJobMessage(job)

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(nil, nil)

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.NoError(t, err)
	mockTransformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDefaultJobProcessor_ProcessJob_TerminalJobSkipped(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	output := "module.exports = {};"
	now := time.Now()
	started := now.Add(-time.Minute)
	job := entity.RestoreConversionJob(
		uuid.New(), "done.js", "export const a = 1;",
		valueobject.JobStatusCompleted, &output, nil, &started, &now, started, now,
	)
	message := testJobMessage(job)

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.NoError(t, err)
	mockTransformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDefaultJobProcessor_ProcessJob_SyntaxErrorRecordedAndAcknowledged(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	source := `import { from "./a.js";` + "\n"
	job := entity.NewConversionJob("bad.js", source)
	message := testJobMessage(job)
	syntaxErr := &conversionerrors.SyntaxError{Path: "bad.js", Line: 1, Column: 9, Message: "unexpected token"}

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)
	mockRepo.On("Update", mock.Anything, job).Return(nil)
	mockTransformer.On("Transform", mock.Anything, []byte(source), "bad.js").
		Return(valueobject.TransformResult{}, syntaxErr)

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert: deterministic failure is acknowledged, not redelivered.
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusFailed, job.Status())
	require.NotNil(t, job.ErrorMessage())
	assert.Contains(t, *job.ErrorMessage(), "syntax error")
	assert.Nil(t, job.Output())

	metrics := processor.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalJobsProcessed)
	assert.Equal(t, int64(1), metrics.TotalJobsFailed)

	mockRepo.AssertExpectations(t)
}

func TestDefaultJobProcessor_ProcessJob_InfrastructureErrorRedelivered(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	source := `export const a = 1;` + "\n"
	job := entity.NewConversionJob("app.js", source)
	message := testJobMessage(job)

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)
	mockRepo.On("Update", mock.Anything, job).Return(nil)
	mockTransformer.On("Transform", mock.Anything, []byte(source), "app.js").
		Return(valueobject.TransformResult{}, errors.New("parser pool exhausted"))

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion of job")
	assert.Equal(t, valueobject.JobStatusRunning, job.Status())

	metrics := processor.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalJobsProcessed)
}

func TestDefaultJobProcessor_ProcessJob_LoadFailureRedelivered(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	job := entity.NewConversionJob("app.js", "export const a = 1;")
	message := testJobMessage(job)

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(nil, errors.New("connection refused"))

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load conversion job")
}

func TestDefaultJobProcessor_ProcessJob_StatusUpdateFailureRedelivered(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	job := entity.NewConversionJob("app.js", "export const a = 1;")
	message := testJobMessage(job)

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)
	mockRepo.On("Update", mock.Anything, job).Return(errors.New("connection refused"))

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist running status")
	mockTransformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestDefaultJobProcessor_ProcessJob_ResumesRunningJob(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	source := `export const a = 1;` + "\n"
	started := time.Now().Add(-time.Minute)
	job := entity.RestoreConversionJob(
		uuid.New(), "app.js", source,
		valueobject.JobStatusRunning, nil, nil, &started, nil, started, started,
	)
	message := testJobMessage(job)
	result := mustResult(t, "converted output")

	mockRepo.On("FindByID", mock.Anything, job.ID()).Return(job, nil)
	mockRepo.On("Update", mock.Anything, job).Return(nil)
	mockTransformer.On("Transform", mock.Anything, []byte(source), "app.js").Return(result, nil)

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert: no second start transition, only the completion update.
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCompleted, job.Status())
	mockRepo.AssertNumberOfCalls(t, "Update", 1)
}

func TestDefaultJobProcessor_ProcessJob_InvalidMessageRejected(t *testing.T) {
	// Arrange
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)
	processor := NewDefaultJobProcessor(testProcessorConfig(), mockRepo, mockTransformer, nil)

	message := messaging.ConversionJobMessage{
		MessageID:     messaging.GenerateUniqueMessageID(),
		SchemaVersion: messaging.CurrentSchemaVersion,
		Timestamp:     time.Now(),
		JobID:         uuid.Nil,
		ModulePath:    "app.js",
	}

	// Act
	err := processor.ProcessJob(context.Background(), message)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid conversion job message")
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestNewDefaultJobProcessor_NilDependenciesPanic(t *testing.T) {
	mockRepo := new(MockConversionJobRepository)
	mockTransformer := new(MockModuleTransformer)

	assert.Panics(t, func() {
		NewDefaultJobProcessor(testProcessorConfig(), nil, mockTransformer, nil)
	})
	assert.Panics(t, func() {
		NewDefaultJobProcessor(testProcessorConfig(), mockRepo, nil, nil)
	})
}
