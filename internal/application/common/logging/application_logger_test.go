package logging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level string) ApplicationLogger {
	t.Helper()
	logger, err := NewApplicationLogger(Config{
		Level:  level,
		Format: "json",
		Output: "buffer",
	})
	require.NoError(t, err)
	return logger
}

func lastEntry(t *testing.T, logger ApplicationLogger) LogEntry {
	t.Helper()
	raw := getLoggerOutput(logger)
	require.NotEmpty(t, raw)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	return entry
}

func TestNewApplicationLogger_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid_json_stdout", config: Config{Level: "INFO", Format: "json", Output: "stdout"}},
		{name: "valid_text_buffer", config: Config{Level: "DEBUG", Format: "text", Output: "buffer"}},
		{name: "invalid_level", config: Config{Level: "TRACE", Format: "json", Output: "stdout"}, wantErr: true},
		{name: "invalid_format", config: Config{Level: "INFO", Format: "xml", Output: "stdout"}, wantErr: true},
		{name: "invalid_output", config: Config{Level: "INFO", Format: "json", Output: "file"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewApplicationLogger(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLogger_EmitsStructuredEntry(t *testing.T) {
	logger := newBufferLogger(t, "INFO")

	logger.Info(context.Background(), "conversion finished", Fields{
		"module_path":   "src/app.js",
		"require_count": 3,
	})

	entry := lastEntry(t, logger)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "conversion finished", entry.Message)
	assert.NotEmpty(t, entry.CorrelationID, "correlation ID is generated when absent")
	assert.Equal(t, "src/app.js", entry.Metadata["module_path"])
}

func TestLogger_PropagatesCorrelationID(t *testing.T) {
	logger := newBufferLogger(t, "INFO")
	ctx := WithCorrelationID(context.Background(), "corr-fixed-123")

	logger.Info(ctx, "queued", nil)

	entry := lastEntry(t, logger)
	assert.Equal(t, "corr-fixed-123", entry.CorrelationID)
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger := newBufferLogger(t, "ERROR")

	logger.Debug(context.Background(), "dropped", nil)
	logger.Info(context.Background(), "dropped", nil)
	logger.Warn(context.Background(), "dropped", nil)
	assert.Empty(t, getLoggerOutput(logger))

	logger.Error(context.Background(), "kept", nil)
	entry := lastEntry(t, logger)
	assert.Equal(t, "kept", entry.Message)
}

func TestLogger_ErrorWithError(t *testing.T) {
	logger := newBufferLogger(t, "INFO")

	logger.ErrorWithError(context.Background(), assert.AnError, "conversion failed", Fields{
		"module_path": "broken.js",
	})

	entry := lastEntry(t, logger)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, assert.AnError.Error(), entry.Error)
}

func TestLogger_WithComponent(t *testing.T) {
	logger := newBufferLogger(t, "INFO").WithComponent("job-processor")

	logger.Info(context.Background(), "started", nil)

	entry := lastEntry(t, logger)
	assert.Equal(t, "job-processor", entry.Component)
}

func TestLogger_LogPerformance(t *testing.T) {
	logger := newBufferLogger(t, "INFO")

	logger.LogPerformance(context.Background(), "transform", 42*time.Millisecond, nil)

	entry := lastEntry(t, logger)
	assert.Equal(t, "transform", entry.Operation)
	assert.Equal(t, "42ms", entry.Metadata["duration"])
}
