package service

import (
	"context"
	"time"

	"esmconvert/internal/application/common"
	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/application/dto"
	"esmconvert/internal/config"
	"esmconvert/internal/domain/entity"
	"esmconvert/internal/domain/valueobject"
	"esmconvert/internal/port/outbound"
)

// DefaultTransformService handles synchronous module conversions. Results
// are cached by source checksum, and each conversion leaves a best-effort
// audit record in the job store.
type DefaultTransformService struct {
	transformer outbound.ModuleTransformer
	cache       outbound.ResultCache             // may be nil when caching is disabled
	jobRepo     outbound.ConversionJobRepository // may be nil; audit trail only
	metrics     *ConversionMetrics
	config      config.TransformConfig
}

// NewDefaultTransformService creates a new DefaultTransformService. The
// transformer is required; cache, repository, and metrics are optional.
func NewDefaultTransformService(
	transformer outbound.ModuleTransformer,
	cache outbound.ResultCache,
	jobRepo outbound.ConversionJobRepository,
	metrics *ConversionMetrics,
	transformConfig config.TransformConfig,
) *DefaultTransformService {
	if transformer == nil {
		panic("transformer cannot be nil")
	}
	return &DefaultTransformService{
		transformer: transformer,
		cache:       cache,
		jobRepo:     jobRepo,
		metrics:     metrics,
		config:      transformConfig,
	}
}

// Transform converts one module synchronously.
func (s *DefaultTransformService) Transform(
	ctx context.Context,
	request dto.TransformRequest,
) (*dto.TransformResponse, error) {
	start := time.Now()

	if err := s.validateRequest(request); err != nil {
		return nil, err
	}

	checksum := valueobject.SourceChecksum([]byte(request.Source))

	if result, ok := s.lookupCached(ctx, checksum); ok {
		duration := time.Since(start)
		s.metrics.RecordConversion(ctx, ModeSync, OutcomeCompleted, CacheHit,
			duration, len(request.Source), result.OutputBytes())
		return s.buildResponse(request.ModulePath, result, true, duration), nil
	}

	result, err := s.convert(ctx, request)
	if err != nil {
		s.metrics.RecordError(ctx, ModeSync, ErrorTypeForError(err))
		s.metrics.RecordConversion(ctx, ModeSync, OutcomeFailed, CacheMiss,
			time.Since(start), len(request.Source), 0)
		return nil, common.WrapServiceError(common.OpTransformModule, err)
	}

	if s.cache != nil {
		s.cache.Add(checksum, result)
	}
	s.persistAuditRecord(ctx, request, result)

	duration := time.Since(start)
	s.metrics.RecordConversion(ctx, ModeSync, OutcomeCompleted, CacheMiss,
		duration, len(request.Source), result.OutputBytes())

	return s.buildResponse(request.ModulePath, result, false, duration), nil
}

func (s *DefaultTransformService) validateRequest(request dto.TransformRequest) error {
	if err := common.ValidateSource(request.Source, s.config.MaxSourceBytes); err != nil {
		return err
	}
	return common.ValidateModulePath(request.ModulePath)
}

func (s *DefaultTransformService) lookupCached(
	ctx context.Context,
	checksum string,
) (valueobject.TransformResult, bool) {
	if s.cache == nil {
		return valueobject.TransformResult{}, false
	}
	result, ok := s.cache.Get(checksum)
	s.metrics.RecordCacheLookup(ctx, ok)
	return result, ok
}

func (s *DefaultTransformService) convert(
	ctx context.Context,
	request dto.TransformRequest,
) (valueobject.TransformResult, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	return s.transformer.Transform(ctx, []byte(request.Source), request.ModulePath)
}

// persistAuditRecord stores a completed job row for the conversion. Failures
// are logged and swallowed: the caller already has the output.
func (s *DefaultTransformService) persistAuditRecord(
	ctx context.Context,
	request dto.TransformRequest,
	result valueobject.TransformResult,
) {
	if s.jobRepo == nil {
		return
	}

	job := entity.NewConversionJob(request.ModulePath, request.Source)
	if err := job.Start(); err != nil {
		return
	}
	if err := job.Complete(result.Output()); err != nil {
		return
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		slogger.Warn(ctx, "Failed to persist conversion audit record", slogger.Fields{
			"module_path": request.ModulePath,
			"error":       err.Error(),
		})
	}
}

func (s *DefaultTransformService) buildResponse(
	modulePath string,
	result valueobject.TransformResult,
	cached bool,
	duration time.Duration,
) *dto.TransformResponse {
	return &dto.TransformResponse{
		Output:       result.Output(),
		ModulePath:   modulePath,
		HasExports:   result.HasExports(),
		RequireCount: result.RequireCount(),
		HelperUsed:   result.HelperUsed(),
		Rewritten:    result.Rewritten(),
		Cached:       cached,
		DurationMS:   duration.Milliseconds(),
	}
}
