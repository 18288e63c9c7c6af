package service

import (
	"context"
	"errors"
	"time"

	"esmconvert/internal/domain/errors/conversion"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names following OpenTelemetry semantic conventions.
const (
	ConversionCounterName           = "conversion_total"
	ConversionDurationHistogramName = "conversion_duration_seconds"
	ConversionSourceBytesName       = "conversion_source_bytes"
	ConversionOutputBytesName       = "conversion_output_bytes"
	ConversionErrorCounterName      = "conversion_error_total"
	CacheLookupCounterName          = "conversion_cache_lookup_total"
)

// Common attribute keys for consistent labeling.
const (
	AttrMode        = "mode" // sync or async
	AttrOutcome     = "outcome"
	AttrCacheResult = "cache_result" // hit or miss
	AttrErrorType   = "error_type"
)

// Attribute values for conversion outcomes and error classes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"

	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"

	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"

	ErrorTypeSyntax        = "syntax"
	ErrorTypeUnsupported   = "unsupported_construct"
	ErrorTypeNameCollision = "name_collision"
	ErrorTypeInternal      = "internal"
)

// conversionLatencyBuckets covers the expected conversion range, from
// trivially small modules to multi-megabyte bundles.
func conversionLatencyBuckets() []float64 {
	return []float64{
		0.001, // 1ms
		0.005, // 5ms
		0.01,  // 10ms
		0.025, // 25ms
		0.05,  // 50ms
		0.1,   // 100ms
		0.25,  // 250ms
		0.5,   // 500ms
		1.0,   // 1s
		2.5,   // 2.5s
		5.0,   // 5s
		10.0,  // 10s
	}
}

// moduleSizeBuckets covers source and output sizes in bytes.
func moduleSizeBuckets() []float64 {
	return []float64{
		256,
		1024,    // 1KiB
		4096,    // 4KiB
		16384,   // 16KiB
		65536,   // 64KiB
		262144,  // 256KiB
		1048576, // 1MiB
		4194304, // 4MiB
	}
}

// ConversionMetrics provides OpenTelemetry-based metrics collection for
// module conversions, shared by the synchronous API path and the worker.
type ConversionMetrics struct {
	conversionCounter  metric.Int64Counter
	conversionDuration metric.Float64Histogram
	sourceBytes        metric.Float64Histogram
	outputBytes        metric.Float64Histogram
	errorCounter       metric.Int64Counter
	cacheLookupCounter metric.Int64Counter
}

// NewConversionMetrics creates a metrics collector using the global meter provider.
func NewConversionMetrics() (*ConversionMetrics, error) {
	return NewConversionMetricsWithProvider(otel.GetMeterProvider())
}

// NewConversionMetricsWithProvider creates a metrics collector with a
// specific meter provider.
func NewConversionMetricsWithProvider(provider metric.MeterProvider) (*ConversionMetrics, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	meter := provider.Meter("esmconvert/service", metric.WithInstrumentationVersion("1.0.0"))

	conversionCounter, err := meter.Int64Counter(
		ConversionCounterName,
		metric.WithDescription("Total module conversions by mode, outcome, and cache result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	conversionDuration, err := meter.Float64Histogram(
		ConversionDurationHistogramName,
		metric.WithDescription("Duration of module conversions in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(conversionLatencyBuckets()...),
	)
	if err != nil {
		return nil, err
	}

	sourceBytes, err := meter.Float64Histogram(
		ConversionSourceBytesName,
		metric.WithDescription("Size distribution of converted module sources in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(moduleSizeBuckets()...),
	)
	if err != nil {
		return nil, err
	}

	outputBytes, err := meter.Float64Histogram(
		ConversionOutputBytesName,
		metric.WithDescription("Size distribution of conversion outputs in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(moduleSizeBuckets()...),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		ConversionErrorCounterName,
		metric.WithDescription("Total conversion failures by error type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookupCounter, err := meter.Int64Counter(
		CacheLookupCounterName,
		metric.WithDescription("Total result cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &ConversionMetrics{
		conversionCounter:  conversionCounter,
		conversionDuration: conversionDuration,
		sourceBytes:        sourceBytes,
		outputBytes:        outputBytes,
		errorCounter:       errorCounter,
		cacheLookupCounter: cacheLookupCounter,
	}, nil
}

// RecordConversion records one finished conversion attempt.
func (m *ConversionMetrics) RecordConversion(
	ctx context.Context,
	mode, outcome, cacheResult string,
	duration time.Duration,
	sourceSize, outputSize int,
) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(AttrMode, mode),
		attribute.String(AttrOutcome, outcome),
		attribute.String(AttrCacheResult, cacheResult),
	)

	m.conversionCounter.Add(ctx, 1, attrs)
	m.conversionDuration.Record(ctx, duration.Seconds(), attrs)
	m.sourceBytes.Record(ctx, float64(sourceSize), attrs)
	if outcome == OutcomeCompleted {
		m.outputBytes.Record(ctx, float64(outputSize), attrs)
	}
}

// RecordError records a conversion failure by error class.
func (m *ConversionMetrics) RecordError(ctx context.Context, mode, errorType string) {
	if m == nil {
		return
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMode, mode),
		attribute.String(AttrErrorType, errorType),
	))
}

// RecordCacheLookup records one result cache lookup.
func (m *ConversionMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.cacheLookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCacheResult, result),
	))
}

// ErrorTypeForError maps a conversion failure onto its metric error class.
func ErrorTypeForError(err error) string {
	var syntaxErr *conversion.SyntaxError
	var unsupportedErr *conversion.UnsupportedConstructError
	var collisionErr *conversion.NameCollisionError

	switch {
	case errors.As(err, &syntaxErr):
		return ErrorTypeSyntax
	case errors.As(err, &unsupportedErr):
		return ErrorTypeUnsupported
	case errors.As(err, &collisionErr):
		return ErrorTypeNameCollision
	default:
		return ErrorTypeInternal
	}
}
