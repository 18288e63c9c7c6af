package esmodule

import (
	"strings"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// span is a half-open byte range into the module source.
type span struct {
	start uint
	end   uint
}

func nodeText(n tree_sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// namedChildren returns the named children of n with comment nodes filtered
// out; comments can appear anywhere in the tree and never carry structure.
func namedChildren(n tree_sitter.Node) []tree_sitter.Node {
	out := make([]tree_sitter.Node, 0, n.ChildCount())
	for i := range n.ChildCount() {
		child := n.Child(i)
		if child.IsNamed() && child.Type() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

func isDeclarationType(t string) bool {
	switch t {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "lexical_declaration", "variable_declaration":
		return true
	}
	return false
}

// declarationName returns the declared identifier of a function or class
// declaration, or "" when the node carries none.
func declarationName(n tree_sitter.Node, src []byte) string {
	for i := range n.ChildCount() {
		child := n.Child(i)
		if child.Type() == "identifier" {
			return nodeText(child, src)
		}
	}
	return ""
}

// declarationBindings lists every top-level name a declaration introduces,
// including names bound through destructuring patterns.
func declarationBindings(decl tree_sitter.Node, src []byte) []string {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := declarationName(decl, src); name != "" {
			return []string{name}
		}
		return nil
	case "lexical_declaration", "variable_declaration":
		return declaredNames(decl, src)
	}
	return nil
}

func declaredNames(decl tree_sitter.Node, src []byte) []string {
	var names []string
	for i := range decl.ChildCount() {
		child := decl.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		if kids := namedChildren(child); len(kids) > 0 {
			collectPatternNames(kids[0], src, &names)
		}
	}
	return names
}

// collectPatternNames walks a binding pattern and appends every bound name.
// Property keys and default-value expressions contribute nothing.
func collectPatternNames(n tree_sitter.Node, src []byte, out *[]string) {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*out = append(*out, nodeText(n, src))
	case "pair_pattern":
		if kids := namedChildren(n); len(kids) > 0 {
			collectPatternNames(kids[len(kids)-1], src, out)
		}
	case "assignment_pattern", "object_assignment_pattern":
		if kids := namedChildren(n); len(kids) > 0 {
			collectPatternNames(kids[0], src, out)
		}
	case "object_pattern", "array_pattern", "rest_pattern":
		for _, kid := range namedChildren(n) {
			collectPatternNames(kid, src, out)
		}
	}
}

// collectAssignedNames gathers every identifier a top-level expression
// statement assigns to, covering plain and compound assignment, increment and
// decrement, chained and comma-joined assignments, and destructuring targets.
// Member-expression targets are not bindings and are skipped.
func collectAssignedNames(n tree_sitter.Node, src []byte, out *[]string) {
	switch n.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return
		}
		target := kids[0]
		switch {
		case target.Type() == "identifier":
			*out = append(*out, nodeText(target, src))
		case strings.HasSuffix(target.Type(), "_pattern"):
			collectPatternNames(target, src, out)
		}
		if len(kids) > 1 {
			collectAssignedNames(kids[len(kids)-1], src, out)
		}
	case "update_expression":
		for _, kid := range namedChildren(n) {
			if kid.Type() == "identifier" {
				*out = append(*out, nodeText(kid, src))
			}
		}
	case "expression_statement", "sequence_expression", "parenthesized_expression":
		for _, kid := range namedChildren(n) {
			collectAssignedNames(kid, src, out)
		}
	}
}

// scanTree collects, in one pass, every identifier-like token text (the
// collision set for synthetic names) and the spans of all comments.
func scanTree(root tree_sitter.Node, src []byte) (map[string]struct{}, []span) {
	used := make(map[string]struct{})
	var comments []span
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		t := n.Type()
		if t == "comment" {
			comments = append(comments, span{start: n.StartByte(), end: n.EndByte()})
		} else if strings.Contains(t, "identifier") {
			used[nodeText(n, src)] = struct{}{}
		}
		for i := range n.ChildCount() {
			walk(n.Child(i))
		}
	}
	walk(root)
	return used, comments
}

// findErrorNode returns the first ERROR or missing node in the tree, or a
// null node when none exists.
func findErrorNode(node tree_sitter.Node) tree_sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := range node.ChildCount() {
		if errNode := findErrorNode(node.Child(i)); !errNode.IsNull() {
			return errNode
		}
	}
	return tree_sitter.Node{}
}
