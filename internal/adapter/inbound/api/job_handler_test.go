package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"esmconvert/internal/application/dto"
	domainerrors "esmconvert/internal/domain/errors/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockJobService is a mock implementation of inbound.JobService.
type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) SubmitJob(
	ctx context.Context,
	request dto.SubmitJobRequest,
) (*dto.SubmitJobResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitJobResponse), args.Error(1)
}

func (m *MockJobService) GetJob(ctx context.Context, id uuid.UUID) (*dto.ConversionJobResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversionJobResponse), args.Error(1)
}

func (m *MockJobService) ListJobs(
	ctx context.Context,
	query dto.ConversionJobListQuery,
) (*dto.ConversionJobListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ConversionJobListResponse), args.Error(1)
}

func TestJobHandler_SubmitJob_Success(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	jobID := uuid.New()
	expected := &dto.SubmitJobResponse{
		ID:        jobID,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	// Mock expectations
	mockService.On("SubmitJob", mock.Anything, dto.SubmitJobRequest{
		Source:     "export default 42;",
		ModulePath: "answer.js",
	}).Return(expected, nil)

	request := httptest.NewRequest(
		http.MethodPost,
		"/jobs",
		strings.NewReader(`{"source": "export default 42;", "module_path": "answer.js"}`),
	)

	// Act
	recorder := httptest.NewRecorder()
	handler.SubmitJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusAccepted, recorder.Code)

	var response dto.SubmitJobResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, jobID, response.ID)
	assert.Equal(t, "pending", response.Status)
	mockService.AssertExpectations(t)
}

func TestJobHandler_SubmitJob_MalformedJSON(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	request := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`not json`))

	// Act
	recorder := httptest.NewRecorder()
	handler.SubmitJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	response := decodeErrorResponse(t, recorder)
	assert.Equal(t, string(dto.ErrorCodeInvalidRequest), response.Error)
	mockService.AssertNotCalled(t, "SubmitJob", mock.Anything, mock.Anything)
}

func TestJobHandler_SubmitJob_PublishFailureIsInternal(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	// Mock expectations
	mockService.On("SubmitJob", mock.Anything, mock.Anything).
		Return(nil, errors.New("publish conversion job: nats: no servers available"))

	request := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"source": "var a;"}`))

	// Act
	recorder := httptest.NewRecorder()
	handler.SubmitJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	response := decodeErrorResponse(t, recorder)
	assert.Equal(t, string(dto.ErrorCodeInternalError), response.Error)
}

func TestJobHandler_GetJob_Success(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	jobID := uuid.New()
	output := "\"use strict\";\nexports.__esModule = true;\n"
	expected := &dto.ConversionJobResponse{
		ID:         jobID,
		ModulePath: "lib/a.js",
		Status:     "completed",
		Output:     &output,
	}

	// Mock expectations
	mockService.On("GetJob", mock.Anything, jobID).Return(expected, nil)

	request := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID.String(), nil)
	request.SetPathValue("id", jobID.String())

	// Act
	recorder := httptest.NewRecorder()
	handler.GetJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)

	var response dto.ConversionJobResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, jobID, response.ID)
	assert.Equal(t, "completed", response.Status)
	require.NotNil(t, response.Output)
	assert.Equal(t, output, *response.Output)
	mockService.AssertExpectations(t)
}

func TestJobHandler_GetJob_NotFound(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	jobID := uuid.New()

	// Mock expectations
	mockService.On("GetJob", mock.Anything, jobID).Return(nil, domainerrors.ErrJobNotFound)

	request := httptest.NewRequest(http.MethodGet, "/jobs/"+jobID.String(), nil)
	request.SetPathValue("id", jobID.String())

	// Act
	recorder := httptest.NewRecorder()
	handler.GetJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	response := decodeErrorResponse(t, recorder)
	assert.Equal(t, string(dto.ErrorCodeJobNotFound), response.Error)
	assert.Equal(t, "Conversion job not found", response.Message)
}

func TestJobHandler_GetJob_InvalidUUID(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	request := httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil)
	request.SetPathValue("id", "not-a-uuid")

	// Act
	recorder := httptest.NewRecorder()
	handler.GetJob(recorder, request)

	// Assert
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	mockService.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
}

func TestJobHandler_ListJobs_ForwardsQueryParameters(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	expected := &dto.ConversionJobListResponse{
		Jobs: []dto.ConversionJobResponse{},
		Pagination: dto.PaginationResponse{
			Limit:  25,
			Offset: 50,
			Total:  0,
		},
	}

	// Mock expectations
	mockService.On("ListJobs", mock.Anything, dto.ConversionJobListQuery{
		Status: "failed",
		Limit:  25,
		Offset: 50,
	}).Return(expected, nil)

	request := httptest.NewRequest(http.MethodGet, "/jobs?status=failed&limit=25&offset=50", nil)

	// Act
	recorder := httptest.NewRecorder()
	handler.ListJobs(recorder, request)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	mockService.AssertExpectations(t)
}

func TestJobHandler_ListJobs_MissingParametersDefaultToZero(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	expected := &dto.ConversionJobListResponse{
		Jobs:       []dto.ConversionJobResponse{},
		Pagination: dto.PaginationResponse{Limit: 10},
	}

	// Mock expectations: defaults are the service's responsibility, so the
	// handler passes zero values through untouched.
	mockService.On("ListJobs", mock.Anything, dto.ConversionJobListQuery{}).Return(expected, nil)

	request := httptest.NewRequest(http.MethodGet, "/jobs", nil)

	// Act
	recorder := httptest.NewRecorder()
	handler.ListJobs(recorder, request)

	// Assert
	assert.Equal(t, http.StatusOK, recorder.Code)
	mockService.AssertExpectations(t)
}

func TestJobHandler_ListJobs_ServiceFailure(t *testing.T) {
	// Arrange
	mockService := new(MockJobService)
	handler := NewJobHandler(mockService, NewDefaultErrorHandler())

	// Mock expectations
	mockService.On("ListJobs", mock.Anything, mock.Anything).
		Return(nil, errors.New("retrieve conversion jobs: connection reset"))

	request := httptest.NewRequest(http.MethodGet, "/jobs", nil)

	// Act
	recorder := httptest.NewRecorder()
	handler.ListJobs(recorder, request)

	// Assert
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
