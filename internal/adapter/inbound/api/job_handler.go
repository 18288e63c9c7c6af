package api

import (
	"net/http"

	"esmconvert/internal/application/dto"
	"esmconvert/internal/port/inbound"
)

// JobHandler handles HTTP requests for asynchronous conversion jobs.
type JobHandler struct {
	jobService   inbound.JobService
	errorHandler ErrorHandler
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService inbound.JobService, errorHandler ErrorHandler) *JobHandler {
	return &JobHandler{
		jobService:   jobService,
		errorHandler: errorHandler,
	}
}

// SubmitJob handles POST /jobs. The source is persisted and queued for a
// worker; the response carries the job ID to poll.
//
//	@Summary		Submit a module for asynchronous conversion
//	@Description	Stores the module source and queues a conversion job. Poll the returned job ID to retrieve the output once a worker has processed it.
//	@Tags			Jobs
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SubmitJobRequest	true	"Module source to convert"
//	@Success		202		{object}	dto.SubmitJobResponse	"Job accepted for processing"
//	@Failure		400		{object}	dto.ErrorResponse		"Invalid request"
//	@Failure		500		{object}	dto.ErrorResponse		"Internal server error"
//	@Router			/jobs [post]
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var request dto.SubmitJobRequest
	if err := decodeJSONBody(r, &request); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.jobService.SubmitJob(r.Context(), request)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, response)
}

// GetJob handles GET /jobs/{id}.
//
//	@Summary		Get conversion job details
//	@Description	Returns the state of one conversion job, including the converted output once the job has completed or the failure message when it has not.
//	@Tags			Jobs
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string						true	"Job UUID"
//	@Success		200	{object}	dto.ConversionJobResponse	"Conversion job details"
//	@Failure		404	{object}	dto.ErrorResponse			"Job not found"
//	@Router			/jobs/{id} [get]
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := extractUUIDPathValue(r, "id", "job")
	if err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, response)
}

// ListJobs handles GET /jobs. Pagination defaults and bounds are applied by
// the service layer.
//
//	@Summary		List conversion jobs
//	@Description	Returns a paginated list of conversion jobs, newest first. Results can be filtered by status.
//	@Tags			Jobs
//	@Accept			json
//	@Produce		json
//	@Param			status	query		string							false	"Filter jobs by status"	enum(pending,running,completed,failed)
//	@Param			limit	query		int								false	"Maximum number of jobs to return (1-50)"	default(10)
//	@Param			offset	query		int								false	"Number of jobs to skip for pagination"		default(0)
//	@Success		200		{object}	dto.ConversionJobListResponse	"List of conversion jobs"
//	@Router			/jobs [get]
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := dto.ConversionJobListQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntQueryParam(r, "limit", 0),
		Offset: parseIntQueryParam(r, "offset", 0),
	}

	response, err := h.jobService.ListJobs(r.Context(), query)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, response)
}
