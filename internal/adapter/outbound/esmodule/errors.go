package esmodule

import (
	"esmconvert/internal/domain/errors/conversion"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

func syntaxErrorAt(path string, node tree_sitter.Node, message string) *conversion.SyntaxError {
	return &conversion.SyntaxError{
		Path:    path,
		Line:    int(node.StartPoint().Row) + 1,
		Column:  int(node.StartPoint().Column),
		Message: message,
	}
}

func unsupportedAt(path string, node tree_sitter.Node, construct string) *conversion.UnsupportedConstructError {
	return &conversion.UnsupportedConstructError{
		Path:      path,
		Line:      int(node.StartPoint().Row) + 1,
		Column:    int(node.StartPoint().Column),
		Construct: construct,
	}
}
