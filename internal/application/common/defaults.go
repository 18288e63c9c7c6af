package common

import "esmconvert/internal/application/dto"

// Default pagination limits.
const (
	DefaultConversionJobListLimit = 10
	MaxConversionJobListLimit     = 50
)

// ApplyConversionJobListDefaults applies default values to conversion job list queries.
func ApplyConversionJobListDefaults(query *dto.ConversionJobListQuery) {
	if query.Limit == 0 {
		query.Limit = DefaultConversionJobListLimit
	}
}
