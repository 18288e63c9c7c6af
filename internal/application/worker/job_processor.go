// Package worker executes queued conversion jobs pulled from JetStream. The
// processor owns the job lifecycle: it loads the stored source, marks the job
// running, converts it, and persists the outcome. Deterministic conversion
// failures are recorded on the job and acknowledged; infrastructure failures
// propagate so the message is redelivered.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/application/service"
	"esmconvert/internal/domain/entity"
	conversionerrors "esmconvert/internal/domain/errors/conversion"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/domain/valueobject"
	"esmconvert/internal/port/inbound"
	"esmconvert/internal/port/outbound"
)

const (
	defaultMaxConcurrentJobs = 1
	defaultJobTimeout        = 30 * time.Second

	// processTimeAlpha smooths the average processing time so one slow job
	// does not dominate the reported value.
	processTimeAlpha = 0.1
)

// JobProcessorConfig holds configuration for the job processor.
type JobProcessorConfig struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
}

// DefaultJobProcessor is the default implementation of inbound.JobProcessor.
type DefaultJobProcessor struct {
	config      JobProcessorConfig
	jobRepo     outbound.ConversionJobRepository
	transformer outbound.ModuleTransformer
	metrics     *service.ConversionMetrics
	semaphore   chan struct{}

	mu    sync.Mutex
	stats inbound.JobProcessorMetrics
}

// NewDefaultJobProcessor creates a new default job processor. The repository
// and transformer are required; metrics may be nil.
func NewDefaultJobProcessor(
	config JobProcessorConfig,
	jobRepo outbound.ConversionJobRepository,
	transformer outbound.ModuleTransformer,
	metrics *service.ConversionMetrics,
) inbound.JobProcessor {
	if jobRepo == nil {
		panic("jobRepo cannot be nil")
	}
	if transformer == nil {
		panic("transformer cannot be nil")
	}

	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaultJobTimeout
	}

	return &DefaultJobProcessor{
		config:      config,
		jobRepo:     jobRepo,
		transformer: transformer,
		metrics:     metrics,
		semaphore:   make(chan struct{}, config.MaxConcurrentJobs),
	}
}

// ProcessJob processes one conversion job message. A nil return acknowledges
// the message, including the case where the conversion itself failed and the
// failure was recorded on the job. A non-nil return requests redelivery.
func (p *DefaultJobProcessor) ProcessJob(ctx context.Context, message messaging.ConversionJobMessage) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("invalid conversion job message: %w", err)
	}

	p.semaphore <- struct{}{}
	defer func() {
		<-p.semaphore
	}()

	start := time.Now()

	job, err := p.loadJob(ctx, message)
	if err != nil {
		return err
	}
	if job == nil {
		// The job row is gone; redelivering the message cannot bring it back.
		slogger.Warn(ctx, "Dropping message for unknown conversion job", slogger.Fields{
			"job_id":     message.JobID.String(),
			"message_id": message.MessageID,
		})
		return nil
	}
	if job.IsTerminal() {
		slogger.Info(ctx, "Skipping already finished conversion job", slogger.Fields{
			"job_id": job.ID().String(),
			"status": job.Status().String(),
		})
		return nil
	}

	if err := p.markJobRunning(ctx, job); err != nil {
		return err
	}

	result, convertErr := p.convertModule(ctx, job)
	if convertErr != nil {
		return p.handleConversionFailure(ctx, job, convertErr, start)
	}

	if err := p.completeJob(ctx, job, result); err != nil {
		return err
	}

	duration := time.Since(start)
	p.recordSuccess(len(job.Source()), duration)
	p.metrics.RecordConversion(ctx, service.ModeAsync, service.OutcomeCompleted, service.CacheBypass,
		duration, len(job.Source()), result.OutputBytes())

	slogger.Info(ctx, "Conversion job completed", slogger.Fields{
		"job_id":       job.ID().String(),
		"module_path":  job.ModulePath(),
		"output_bytes": result.OutputBytes(),
		"duration_ms":  duration.Milliseconds(),
	})
	return nil
}

// GetMetrics returns a snapshot of the cumulative processing counters.
func (p *DefaultJobProcessor) GetMetrics() inbound.JobProcessorMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *DefaultJobProcessor) loadJob(
	ctx context.Context,
	message messaging.ConversionJobMessage,
) (*entity.ConversionJob, error) {
	job, err := p.jobRepo.FindByID(ctx, message.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversion job %s: %w", message.JobID, err)
	}
	return job, nil
}

// markJobRunning transitions a pending job to running. Jobs already running
// are left as they are: the previous attempt died before persisting an
// outcome and this delivery picks the work back up.
func (p *DefaultJobProcessor) markJobRunning(ctx context.Context, job *entity.ConversionJob) error {
	if job.Status() != valueobject.JobStatusPending {
		return nil
	}

	if err := job.Start(); err != nil {
		return fmt.Errorf("failed to start conversion job %s: %w", job.ID(), err)
	}
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist running status for job %s: %w", job.ID(), err)
	}
	return nil
}

func (p *DefaultJobProcessor) convertModule(
	ctx context.Context,
	job *entity.ConversionJob,
) (valueobject.TransformResult, error) {
	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	return p.transformer.Transform(jobCtx, []byte(job.Source()), job.ModulePath())
}

// handleConversionFailure decides between recording a permanent failure and
// requesting redelivery. Conversion errors and timeouts are deterministic for
// a given source, so they are persisted on the job and acknowledged.
func (p *DefaultJobProcessor) handleConversionFailure(
	ctx context.Context,
	job *entity.ConversionJob,
	convertErr error,
	start time.Time,
) error {
	deterministic := conversionerrors.IsConversionError(convertErr) ||
		errors.Is(convertErr, context.DeadlineExceeded)
	if !deterministic {
		return fmt.Errorf("conversion of job %s failed: %w", job.ID(), convertErr)
	}

	if err := job.Fail(convertErr.Error()); err != nil {
		slogger.Error(ctx, "Failed to mark conversion job failed", slogger.Fields{
			"job_id": job.ID().String(),
			"error":  err.Error(),
		})
		return nil
	}
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist failure for job %s: %w", job.ID(), err)
	}

	duration := time.Since(start)
	p.recordFailure(duration)
	p.metrics.RecordError(ctx, service.ModeAsync, service.ErrorTypeForError(convertErr))
	p.metrics.RecordConversion(ctx, service.ModeAsync, service.OutcomeFailed, service.CacheBypass,
		duration, len(job.Source()), 0)

	slogger.Info(ctx, "Conversion job failed permanently", slogger.Fields{
		"job_id":      job.ID().String(),
		"module_path": job.ModulePath(),
		"error":       convertErr.Error(),
	})
	return nil
}

func (p *DefaultJobProcessor) completeJob(
	ctx context.Context,
	job *entity.ConversionJob,
	result valueobject.TransformResult,
) error {
	if err := job.Complete(result.Output()); err != nil {
		return fmt.Errorf("failed to complete conversion job %s: %w", job.ID(), err)
	}
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist completion for job %s: %w", job.ID(), err)
	}
	return nil
}

func (p *DefaultJobProcessor) recordSuccess(sourceBytes int, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalJobsProcessed++
	p.stats.BytesConverted += int64(sourceBytes)
	p.updateAverageLocked(duration)
}

func (p *DefaultJobProcessor) recordFailure(duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.TotalJobsProcessed++
	p.stats.TotalJobsFailed++
	p.updateAverageLocked(duration)
}

func (p *DefaultJobProcessor) updateAverageLocked(duration time.Duration) {
	if p.stats.AverageProcessingTime == 0 {
		p.stats.AverageProcessingTime = duration
		return
	}
	p.stats.AverageProcessingTime = time.Duration(
		processTimeAlpha*float64(duration) + (1-processTimeAlpha)*float64(p.stats.AverageProcessingTime),
	)
}
