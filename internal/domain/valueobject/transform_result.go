package valueobject

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TransformResult is the immutable outcome of converting one module. It
// carries the rewritten text plus the facts services report on: whether the
// module exported anything, how many distinct requires were emitted, whether
// the interop helper was needed, and whether the output differs from the
// input at all.
type TransformResult struct {
	output       string
	hasExports   bool
	requireCount int
	helperUsed   bool
	rewritten    bool
}

// NewTransformResult creates a TransformResult with validation.
func NewTransformResult(output string, hasExports bool, requireCount int, helperUsed, rewritten bool) (TransformResult, error) {
	if requireCount < 0 {
		return TransformResult{}, fmt.Errorf("require count cannot be negative: %d", requireCount)
	}
	return TransformResult{
		output:       output,
		hasExports:   hasExports,
		requireCount: requireCount,
		helperUsed:   helperUsed,
		rewritten:    rewritten,
	}, nil
}

// Output returns the converted module text.
func (r TransformResult) Output() string {
	return r.output
}

// HasExports returns true if the module exported at least one binding.
func (r TransformResult) HasExports() bool {
	return r.hasExports
}

// RequireCount returns the number of distinct require calls emitted.
func (r TransformResult) RequireCount() int {
	return r.requireCount
}

// HelperUsed returns true if the default-import interop helper was emitted.
func (r TransformResult) HelperUsed() bool {
	return r.helperUsed
}

// Rewritten returns false when the output is byte-identical to the input.
func (r TransformResult) Rewritten() bool {
	return r.rewritten
}

// OutputBytes returns the size of the converted text.
func (r TransformResult) OutputBytes() int {
	return len(r.output)
}

// SourceChecksum returns the hex SHA-256 of a module source. Identical
// sources share one checksum regardless of module path, so the result cache
// keys on it.
func SourceChecksum(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
