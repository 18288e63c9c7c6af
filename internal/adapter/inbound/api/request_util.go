package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"esmconvert/internal/application/common"

	"github.com/google/uuid"
)

// decodeJSONBody decodes a JSON request body with strict field checking.
func decodeJSONBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return common.NewValidationError("body", "Request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return common.NewValidationError("body", fmt.Sprintf("Invalid JSON format: %v", err))
	}

	return nil
}

// parseIntQueryParam parses an integer query parameter, falling back to
// defaultValue when the parameter is absent or malformed.
func parseIntQueryParam(r *http.Request, name string, defaultValue int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return defaultValue
}

// extractUUIDPathValue extracts and validates a UUID path parameter
// registered with Go 1.22+ ServeMux pattern syntax.
func extractUUIDPathValue(r *http.Request, paramName, resourceType string) (uuid.UUID, error) {
	raw := r.PathValue(paramName)
	if raw == "" {
		return uuid.Nil, common.NewValidationError(
			paramName,
			fmt.Sprintf("%s ID is required in URL path", resourceType),
		)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.NewValidationError(
			paramName,
			fmt.Sprintf("invalid %s UUID format: %s", resourceType, raw),
		)
	}

	return id, nil
}

// writeJSONResponse writes a JSON response using the pooled encoder. Write
// failures are dropped: headers only go out after a successful encode, so a
// failure here means the client is gone.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	_ = WriteJSON(w, statusCode, data)
}
