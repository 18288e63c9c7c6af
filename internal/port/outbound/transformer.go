// Package outbound defines the outbound ports (interfaces) the application
// layer depends on: the module transformer, persistence, messaging, and the
// result cache.
package outbound

import (
	"context"

	"esmconvert/internal/domain/valueobject"
)

// ModuleTransformer defines the outbound port for converting one ES module
// to CommonJS. Implementations are pure with respect to input: identical
// sources produce identical results, and concurrent calls are independent.
type ModuleTransformer interface {
	Transform(ctx context.Context, source []byte, modulePath string) (valueobject.TransformResult, error)
}

// ResultCache defines the outbound port for the in-memory conversion cache,
// keyed by source checksum (valueobject.SourceChecksum).
type ResultCache interface {
	Get(checksum string) (valueobject.TransformResult, bool)
	Add(checksum string, result valueobject.TransformResult)
	Len() int
	Purge()
}
