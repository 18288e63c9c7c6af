package api

import (
	"net/http"

	"esmconvert/internal/application/dto"
	"esmconvert/internal/port/inbound"
)

// TransformHandler handles HTTP requests for synchronous module conversion.
type TransformHandler struct {
	transformService inbound.TransformService
	errorHandler     ErrorHandler
}

// NewTransformHandler creates a new TransformHandler.
func NewTransformHandler(transformService inbound.TransformService, errorHandler ErrorHandler) *TransformHandler {
	return &TransformHandler{
		transformService: transformService,
		errorHandler:     errorHandler,
	}
}

// Transform handles POST /transform. The conversion runs inline and the
// converted source comes back in the response body.
//
//	@Summary		Convert a module synchronously
//	@Description	Parses the submitted ES module source and returns the CommonJS rendition. Sources that are already CommonJS pass through untouched.
//	@Tags			Transform
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.TransformRequest	true	"Module source to convert"
//	@Success		200		{object}	dto.TransformResponse	"Converted module"
//	@Failure		400		{object}	dto.ErrorResponse		"Invalid request"
//	@Failure		422		{object}	dto.ErrorResponse		"Source could not be converted"
//	@Failure		500		{object}	dto.ErrorResponse		"Internal server error"
//	@Router			/transform [post]
func (h *TransformHandler) Transform(w http.ResponseWriter, r *http.Request) {
	var request dto.TransformRequest
	if err := decodeJSONBody(r, &request); err != nil {
		h.errorHandler.HandleValidationError(w, r, err)
		return
	}

	response, err := h.transformService.Transform(r.Context(), request)
	if err != nil {
		h.errorHandler.HandleServiceError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, response)
}
