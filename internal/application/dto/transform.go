// Package dto defines the request and response shapes crossing the service
// boundary. Conversion DTOs carry plain strings; domain entities never leak
// past the application layer.
package dto

// TransformRequest represents a synchronous conversion request.
type TransformRequest struct {
	Source     string `json:"source"`
	ModulePath string `json:"module_path,omitempty"`
}

// TransformResponse represents the outcome of a synchronous conversion.
type TransformResponse struct {
	Output       string `json:"output"`
	ModulePath   string `json:"module_path,omitempty"`
	HasExports   bool   `json:"has_exports"`
	RequireCount int    `json:"require_count"`
	HelperUsed   bool   `json:"helper_used"`
	Rewritten    bool   `json:"rewritten"`
	Cached       bool   `json:"cached"`
	DurationMS   int64  `json:"duration_ms"`
}
