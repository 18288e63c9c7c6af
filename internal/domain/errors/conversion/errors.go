// Package conversion defines the structured errors a module conversion can
// fail with. They carry source locations so callers can surface exact
// positions to users, and they are matched with errors.As across the
// application and transport layers.
package conversion

import (
	"errors"
	"fmt"
)

// SyntaxError reports input that could not be parsed as a JavaScript module.
// The conversion aborts immediately and no partial output is produced.
type SyntaxError struct {
	Path    string // module path supplied for diagnostics, may be empty
	Line    int    // 1-based
	Column  int    // 0-based
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: syntax error: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: syntax error: %s", e.Line, e.Column, e.Message)
}

// UnsupportedConstructError reports a module-syntax form the grammar
// recognizes but the rewrite rules do not cover. No partial output is
// produced for such modules.
type UnsupportedConstructError struct {
	Path      string
	Line      int
	Column    int
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: unsupported construct: %s", e.Path, e.Line, e.Column, e.Construct)
	}
	return fmt.Sprintf("%d:%d: unsupported construct: %s", e.Line, e.Column, e.Construct)
}

// NameCollisionError reports that a synthetic name could not be made unique
// within the retry bound. Inputs cannot trigger this through normal collision
// pressure; it signals a bug in the name allocator.
type NameCollisionError struct {
	Base     string
	Attempts int
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("synthetic name %q still colliding after %d attempts", e.Base, e.Attempts)
}

// IsConversionError reports whether err is or wraps one of the conversion
// failure types. Callers use it to separate bad input from infrastructure
// failures: a conversion error is permanent for the given source, while
// anything else may succeed on retry.
func IsConversionError(err error) bool {
	var syntaxErr *SyntaxError
	var unsupportedErr *UnsupportedConstructError
	var collisionErr *NameCollisionError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &unsupportedErr) ||
		errors.As(err, &collisionErr)
}
