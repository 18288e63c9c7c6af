// Package esmodule rewrites ECMAScript module syntax into CommonJS-style
// require/exports code that a script loader can evaluate directly. The
// pipeline is parse, analyze, rewrite, print: tree-sitter produces the syntax
// tree, the analyzer classifies top-level import/export statements, the
// rewriter emits equivalent CommonJS statements in place, and pass-through
// code keeps its original bytes. Each call is pure and self-contained, so
// modules can be transformed concurrently.
package esmodule

import (
	"context"
	"errors"
	"fmt"

	"esmconvert/internal/domain/errors/conversion"

	"github.com/alexaandru/go-sitter-forest/javascript"
	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// errorSnippetLimit caps how much offending source a syntax error quotes.
const errorSnippetLimit = 50

var jsLanguage = tree_sitter.NewLanguage(javascript.GetLanguage())

// Options configure a single transformation.
type Options struct {
	// ModulePath appears in diagnostics only; it never affects output.
	ModulePath string
}

// Result carries the converted output plus facts about the rewrite that
// callers surface in logs and metrics.
type Result struct {
	Output string

	// HasExports reports whether the __esModule marker was emitted.
	HasExports bool

	// RequireCount is the number of distinct require() calls emitted.
	RequireCount int

	// HelperUsed reports whether the default-import interop helper was
	// declared.
	HelperUsed bool

	// Rewritten is false when the module contained no module syntax and no
	// comments, in which case Output is byte-identical to the input.
	Rewritten bool
}

// Transform converts one module's source text. It allocates a fresh parser
// per call: invocations share no mutable state, and the synthetic-name
// collision set never leaks across modules. The operation either returns the
// full output or fails with a conversion.SyntaxError,
// conversion.UnsupportedConstructError, or conversion.NameCollisionError;
// there is no partial output.
func Transform(ctx context.Context, source []byte, opts Options) (*Result, error) {
	parser := tree_sitter.NewParser()
	if !parser.SetLanguage(jsLanguage) {
		return nil, errors.New("tree-sitter rejected the JavaScript grammar")
	}

	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing module: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxErrorFromTree(root, source, opts.ModulePath)
	}

	an, err := analyze(root, source, opts.ModulePath)
	if err != nil {
		return nil, err
	}
	return rewriteModule(an, source)
}

func syntaxErrorFromTree(root tree_sitter.Node, src []byte, path string) *conversion.SyntaxError {
	node := findErrorNode(root)
	if node.IsNull() {
		return &conversion.SyntaxError{Path: path, Line: 1, Message: "invalid syntax"}
	}
	if node.IsMissing() {
		return syntaxErrorAt(path, node, fmt.Sprintf("missing %q", node.Type()))
	}
	snippet := nodeText(node, src)
	if len(snippet) > errorSnippetLimit {
		snippet = snippet[:errorSnippetLimit] + "..."
	}
	if snippet == "" {
		return syntaxErrorAt(path, node, "parse error")
	}
	return syntaxErrorAt(path, node, fmt.Sprintf("unexpected token %q", snippet))
}
