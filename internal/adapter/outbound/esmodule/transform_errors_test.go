package esmodule

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"esmconvert/internal/domain/errors/conversion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_SyntaxErrorAbortsWithLocation(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "unclosed named imports", source: `import { a from "./b";`},
		{name: "unterminated function body", source: `export default function test(){`},
		{name: "stray export keyword", source: `export export const x = 1;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Transform(context.Background(), []byte(tt.source), Options{ModulePath: "broken.js"})
			require.Error(t, err)
			assert.Nil(t, res, "no partial output on syntax errors")

			var syntaxErr *conversion.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, "broken.js", syntaxErr.Path)
			assert.GreaterOrEqual(t, syntaxErr.Line, 1)
			assert.Contains(t, err.Error(), "broken.js")
		})
	}
}

func TestTransform_UnsupportedConstructFailsLoudly(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		construct string
	}{
		{
			name:      "import attributes have no require equivalent",
			source:    `import data from "./d.json" with { type: "json" };`,
			construct: "import attributes",
		},
		{
			name:      "string-named local export has no binding to read",
			source:    `export { "a" as b };`,
			construct: "string-named local export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Transform(context.Background(), []byte(tt.source), Options{ModulePath: "mod.js"})
			require.Error(t, err)
			assert.Nil(t, res)

			var unsupported *conversion.UnsupportedConstructError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tt.construct, unsupported.Construct)
			assert.Equal(t, "mod.js", unsupported.Path)
		})
	}
}

func TestTransform_NameCollisionAfterBoundedRetries(t *testing.T) {
	// Occupy the synthetic base and every numeric-suffix candidate the
	// allocator is allowed to try.
	var b strings.Builder
	b.WriteString("const $_b = 0;\n")
	for i := 2; i < 2+maxNameAttempts; i++ {
		b.WriteString("var $_b")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" = 0;\n")
	}
	b.WriteString(`import { a } from "./b";`)

	res, err := Transform(context.Background(), []byte(b.String()), Options{})
	require.Error(t, err)
	assert.Nil(t, res)

	var collision *conversion.NameCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "$_b", collision.Base)
	assert.Equal(t, maxNameAttempts, collision.Attempts)
}

func TestTransform_ErrorsAreNotWrapped(t *testing.T) {
	_, err := Transform(context.Background(), []byte(`import {`), Options{})
	require.Error(t, err)

	var syntaxErr *conversion.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "taxonomy errors surface directly to the caller")
}
