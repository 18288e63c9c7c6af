package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"esmconvert/internal/application/common"
	"esmconvert/internal/application/dto"
	"esmconvert/internal/config"
	"esmconvert/internal/domain/entity"
	domainerrors "esmconvert/internal/domain/errors/domain"
	"esmconvert/internal/domain/messaging"
	"esmconvert/internal/domain/valueobject"
	"esmconvert/internal/port/outbound"
)

// defaultJobMaxRetries matches the consumer's MaxDeliver so a message gives
// up at the same point from both sides.
const defaultJobMaxRetries = 3

// DefaultJobService handles asynchronous conversion job operations: submit a
// job, fetch its state, and list jobs with pagination. The job row is
// persisted before the queue message is published, so a worker can always
// load the source by job ID.
type DefaultJobService struct {
	jobRepo          outbound.ConversionJobRepository
	messagePublisher outbound.MessagePublisher
	config           config.TransformConfig
}

// NewDefaultJobService creates a new DefaultJobService.
func NewDefaultJobService(
	jobRepo outbound.ConversionJobRepository,
	messagePublisher outbound.MessagePublisher,
	transformConfig config.TransformConfig,
) *DefaultJobService {
	if jobRepo == nil {
		panic("jobRepo cannot be nil")
	}
	if messagePublisher == nil {
		panic("messagePublisher cannot be nil")
	}
	return &DefaultJobService{
		jobRepo:          jobRepo,
		messagePublisher: messagePublisher,
		config:           transformConfig,
	}
}

// SubmitJob accepts a conversion for background processing. The returned
// response carries the job ID the caller polls with.
func (s *DefaultJobService) SubmitJob(
	ctx context.Context,
	request dto.SubmitJobRequest,
) (*dto.SubmitJobResponse, error) {
	if err := s.validateSubmission(request); err != nil {
		return nil, err
	}

	job := entity.NewConversionJob(request.ModulePath, request.Source)

	// Persist before publishing so the worker can load the source by ID.
	if err := s.persistJob(ctx, job); err != nil {
		return nil, err
	}

	if err := s.queueJobForProcessing(ctx, job); err != nil {
		return nil, err
	}

	return &dto.SubmitJobResponse{
		ID:        job.ID(),
		Status:    job.Status().String(),
		CreatedAt: job.CreatedAt(),
	}, nil
}

// GetJob retrieves one conversion job by ID.
func (s *DefaultJobService) GetJob(
	ctx context.Context,
	id uuid.UUID,
) (*dto.ConversionJobResponse, error) {
	if err := common.ValidateUUID(id, "job_id"); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, common.WrapServiceError(common.OpRetrieveConversionJob, err)
	}
	if job == nil {
		return nil, domainerrors.ErrJobNotFound
	}

	return common.EntityToConversionJobResponse(job), nil
}

// ListJobs retrieves a paginated list of conversion jobs, newest first.
func (s *DefaultJobService) ListJobs(
	ctx context.Context,
	query dto.ConversionJobListQuery,
) (*dto.ConversionJobListResponse, error) {
	common.ApplyConversionJobListDefaults(&query)

	if err := s.validateListQuery(query); err != nil {
		return nil, err
	}

	filters := outbound.ConversionJobFilters{
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Status != "" {
		status, err := valueobject.NewJobStatus(query.Status)
		if err != nil {
			return nil, common.NewValidationError("status", err.Error())
		}
		filters.Status = &status
	}

	jobs, total, err := s.jobRepo.FindAll(ctx, filters)
	if err != nil {
		return nil, common.WrapServiceError(common.OpListConversionJobs, err)
	}

	jobDTOs := make([]dto.ConversionJobResponse, len(jobs))
	for i, job := range jobs {
		jobDTOs[i] = *common.EntityToConversionJobResponse(job)
	}

	return &dto.ConversionJobListResponse{
		Jobs:       jobDTOs,
		Pagination: common.CreatePaginationResponse(query.Limit, query.Offset, total),
	}, nil
}

func (s *DefaultJobService) validateSubmission(request dto.SubmitJobRequest) error {
	if err := common.ValidateSource(request.Source, s.config.MaxSourceBytes); err != nil {
		return err
	}
	return common.ValidateModulePath(request.ModulePath)
}

func (s *DefaultJobService) validateListQuery(query dto.ConversionJobListQuery) error {
	if err := common.ValidateJobStatusFilter(query.Status); err != nil {
		return err
	}
	if err := common.ValidatePaginationLimit(query.Limit, common.MaxConversionJobListLimit, "limit"); err != nil {
		return err
	}
	return common.ValidatePaginationOffset(query.Offset, "offset")
}

func (s *DefaultJobService) persistJob(ctx context.Context, job *entity.ConversionJob) error {
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return common.WrapServiceError(common.OpSaveConversionJob, err)
	}
	return nil
}

func (s *DefaultJobService) queueJobForProcessing(ctx context.Context, job *entity.ConversionJob) error {
	message := messaging.ConversionJobMessage{
		MessageID:     messaging.GenerateUniqueMessageID(),
		CorrelationID: messaging.GenerateCorrelationID(),
		SchemaVersion: messaging.CurrentSchemaVersion,
		Timestamp:     time.Now(),
		JobID:         job.ID(),
		ModulePath:    job.ModulePath(),
		RetryAttempt:  0,
		MaxRetries:    defaultJobMaxRetries,
	}

	if err := s.messagePublisher.PublishConversionJob(ctx, message); err != nil {
		return common.WrapServiceError(common.OpPublishJob, err)
	}
	return nil
}
