package esmodule

import (
	"context"
	"time"

	"esmconvert/internal/application/common/slogger"
	"esmconvert/internal/domain/valueobject"
)

// Transformer adapts the package-level Transform function to the
// outbound.ModuleTransformer port. It is stateless and safe for
// concurrent use; each call builds its own parser.
type Transformer struct{}

// NewTransformer creates a Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform converts one ES module source to CommonJS and reports the
// outcome as a domain value object.
func (t *Transformer) Transform(
	ctx context.Context,
	source []byte,
	modulePath string,
) (valueobject.TransformResult, error) {
	start := time.Now()

	res, err := Transform(ctx, source, Options{ModulePath: modulePath})
	if err != nil {
		slogger.Debug(ctx, "Module conversion failed", slogger.Fields{
			"module_path":  modulePath,
			"source_bytes": len(source),
			"error":        err.Error(),
		})
		return valueobject.TransformResult{}, err
	}

	result, err := valueobject.NewTransformResult(
		res.Output,
		res.HasExports,
		res.RequireCount,
		res.HelperUsed,
		res.Rewritten,
	)
	if err != nil {
		return valueobject.TransformResult{}, err
	}

	slogger.Debug(ctx, "Module converted", slogger.Fields{
		"module_path":   modulePath,
		"source_bytes":  len(source),
		"output_bytes":  result.OutputBytes(),
		"require_count": result.RequireCount(),
		"rewritten":     result.Rewritten(),
		"duration_ms":   time.Since(start).Milliseconds(),
	})

	return result, nil
}
