package common

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		maxBytes int
		wantErr  string
	}{
		{
			name:     "valid_source",
			source:   `import { a } from "./b";`,
			maxBytes: 1024,
		},
		{
			name:     "empty_source",
			source:   "",
			maxBytes: 1024,
			wantErr:  "validation error on field 'source': source is required",
		},
		{
			name:     "whitespace_only_source",
			source:   "   \n\t  ",
			maxBytes: 1024,
			wantErr:  "validation error on field 'source': source is required",
		},
		{
			name:     "source_too_large",
			source:   strings.Repeat("x", 11),
			maxBytes: 10,
			wantErr:  "validation error on field 'source': source exceeds maximum size of 10 bytes",
		},
		{
			name:     "zero_max_disables_size_check",
			source:   strings.Repeat("x", 1000),
			maxBytes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.source, tt.maxBytes)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateModulePath(t *testing.T) {
	assert.NoError(t, ValidateModulePath(""))
	assert.NoError(t, ValidateModulePath("./src/store.js"))
	assert.NoError(t, ValidateModulePath("@scope/pkg"))

	err := ValidateModulePath("./bad\npath.js")
	require.Error(t, err)
	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "module_path", validationErr.Field)
}

func TestValidateJobStatusFilter(t *testing.T) {
	assert.NoError(t, ValidateJobStatusFilter(""))
	assert.NoError(t, ValidateJobStatusFilter("pending"))
	assert.NoError(t, ValidateJobStatusFilter("running"))
	assert.NoError(t, ValidateJobStatusFilter("completed"))
	assert.NoError(t, ValidateJobStatusFilter("failed"))

	err := ValidateJobStatusFilter("cancelled")
	assert.EqualError(t, err, "validation error on field 'status': invalid status: cancelled")
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID(uuid.New(), "job_id"))

	err := ValidateUUID(uuid.Nil, "job_id")
	assert.EqualError(t, err, "validation error on field 'job_id': job_id is required")
}

func TestValidatePagination(t *testing.T) {
	assert.NoError(t, ValidatePaginationLimit(10, 50, "limit"))
	assert.Error(t, ValidatePaginationLimit(51, 50, "limit"))
	assert.Error(t, ValidatePaginationLimit(-1, 50, "limit"))
	assert.NoError(t, ValidatePaginationOffset(0, "offset"))
	assert.Error(t, ValidatePaginationOffset(-5, "offset"))
}
