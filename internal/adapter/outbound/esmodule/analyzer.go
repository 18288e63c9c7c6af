package esmodule

import (
	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

type stmtKind int

const (
	stmtResidual stmtKind = iota
	stmtImport
	stmtExport
)

// statement is one classified top-level statement of the module.
type statement struct {
	node tree_sitter.Node
	kind stmtKind
	imp  *importDirective
	exp  *exportDirective

	// assigned holds the top-level names a residual statement assigns or
	// redeclares; the rewriter re-affirms any of them that are exported.
	assigned []string
}

// pathRef is one occurrence of a module path. raw keeps the string literal
// byte-for-byte (quotes included) for re-emission; key is the literal without
// its surrounding quotes and coalesces require calls. Escape sequences are
// never decoded: the analyzer does not inspect string contents.
type pathRef struct {
	raw string
	key string
}

// exportName is a specifier-position name, written either as an identifier or
// as a string literal. raw preserves the source bytes; str selects bracket
// property syntax on output.
type exportName struct {
	raw string
	str bool
}

type namedBinding struct {
	local    string
	imported exportName
}

// importDirective describes one import statement.
type importDirective struct {
	source pathRef
	// defaults lists locals bound to the source module's default export,
	// from default-import syntax or a `default as x` specifier. Each goes
	// through the interop helper.
	defaults  []string
	namespace string
	named     []namedBinding
	bare      bool
}

type exportKind int

const (
	exportDeclaration exportKind = iota // export function f(){} / export const x = 1
	exportDefaultDecl                   // export default function f(){} (named)
	exportDefaultExpr                   // export default <expression>
	exportClause                        // export { a, b as c }
	exportClauseFrom                    // export { a, b as c } from "m"
	exportWildcardFrom                  // export * from "m"
	exportNamespaceFrom                 // export * as ns from "m"
)

type exportSpec struct {
	local  exportName // name in the source module, or the local binding
	export exportName // name exposed on exports
}

// exportDirective describes one export statement.
type exportDirective struct {
	kind       exportKind
	decl       tree_sitter.Node   // exportDeclaration, exportDefaultDecl
	decorators []tree_sitter.Node // decorators attached to the declaration
	declName   string             // exportDefaultDecl
	declared   []string           // exportDeclaration
	value      tree_sitter.Node   // exportDefaultExpr
	specs      []exportSpec       // exportClause, exportClauseFrom
	alias      exportName         // exportNamespaceFrom
	source     *pathRef           // nil when the statement has no from-clause
}

// analysis is the classified view of one module.
type analysis struct {
	statements       []statement
	moduleStatements int
	hasExports       bool
	comments         []span
	used             map[string]struct{}
}

// analyze classifies every top-level statement of the program node. It never
// executes code and never descends into residual statements beyond what
// mutation tracking needs.
func analyze(root tree_sitter.Node, src []byte, path string) (*analysis, error) {
	used, comments := scanTree(root, src)
	an := &analysis{used: used, comments: comments}

	for i := range root.ChildCount() {
		node := root.Child(i)
		if !node.IsNamed() || node.Type() == "comment" {
			continue
		}
		switch node.Type() {
		case "import_statement":
			d, err := analyzeImport(node, src, path)
			if err != nil {
				return nil, err
			}
			an.statements = append(an.statements, statement{node: node, kind: stmtImport, imp: d})
			an.moduleStatements++
		case "export_statement":
			d, err := analyzeExport(node, src, path)
			if err != nil {
				return nil, err
			}
			an.statements = append(an.statements, statement{node: node, kind: stmtExport, exp: d})
			an.moduleStatements++
			if directiveExports(d) {
				an.hasExports = true
			}
		default:
			an.statements = append(an.statements, statement{
				node:     node,
				kind:     stmtResidual,
				assigned: residualAssignments(node, src),
			})
		}
	}
	return an, nil
}

// directiveExports reports whether the directive contributes an export
// binding or re-export, which is what gates the __esModule marker. A bare
// `export {}` clause binds nothing and does not count.
func directiveExports(d *exportDirective) bool {
	if d.kind == exportClause {
		return len(d.specs) > 0
	}
	return true
}

func residualAssignments(n tree_sitter.Node, src []byte) []string {
	var names []string
	switch n.Type() {
	case "expression_statement":
		collectAssignedNames(n, src, &names)
	case "lexical_declaration", "variable_declaration":
		// Redeclaring an exported name (hoisted `export { x }` before
		// `var x = 1`) re-binds it, so it counts as a mutation site.
		names = declaredNames(n, src)
	}
	return names
}

func analyzeImport(node tree_sitter.Node, src []byte, path string) (*importDirective, error) {
	d := &importDirective{}
	for i := range node.ChildCount() {
		c := node.Child(i)
		switch t := c.Type(); t {
		case "import", "from", ";", ",", "comment":
		case "import_clause":
			if err := parseImportClause(c, src, path, d); err != nil {
				return nil, err
			}
		case "string":
			d.source = pathRefOf(c, src)
		case "import_attribute", "import_assertion", "assert_clause":
			// `with { type: "json" }` has no require() equivalent.
			return nil, unsupportedAt(path, c, "import attributes")
		default:
			if c.IsNamed() {
				return nil, unsupportedAt(path, c, t)
			}
		}
	}
	if d.source.raw == "" {
		return nil, unsupportedAt(path, node, "import statement without source")
	}
	d.bare = len(d.defaults) == 0 && d.namespace == "" && len(d.named) == 0
	return d, nil
}

func parseImportClause(clause tree_sitter.Node, src []byte, path string, d *importDirective) error {
	for i := range clause.ChildCount() {
		c := clause.Child(i)
		switch t := c.Type(); t {
		case "identifier":
			d.defaults = append(d.defaults, nodeText(c, src))
		case "namespace_import":
			kids := namedChildren(c)
			if len(kids) == 0 {
				return unsupportedAt(path, c, "namespace import")
			}
			d.namespace = nodeText(kids[0], src)
		case "named_imports":
			for _, spec := range namedChildren(c) {
				if spec.Type() != "import_specifier" {
					continue
				}
				if err := parseImportSpecifier(spec, src, path, d); err != nil {
					return err
				}
			}
		case ",", "{", "}", "comment":
		default:
			if c.IsNamed() {
				return unsupportedAt(path, clause, t)
			}
		}
	}
	return nil
}

func parseImportSpecifier(spec tree_sitter.Node, src []byte, path string, d *importDirective) error {
	kids := namedChildren(spec)
	if len(kids) == 0 {
		return unsupportedAt(path, spec, "import specifier")
	}
	imported := moduleExportName(kids[0], src)
	var local string
	if len(kids) >= 2 {
		local = nodeText(kids[len(kids)-1], src)
	} else {
		if imported.str {
			// A string-named import is only valid with an alias.
			return unsupportedAt(path, spec, "string-named import without alias")
		}
		local = imported.raw
	}
	// `{ default as X }` is a default import in named clothing and takes the
	// interop path with it.
	if isDefaultName(imported) {
		d.defaults = append(d.defaults, local)
		return nil
	}
	d.named = append(d.named, namedBinding{local: local, imported: imported})
	return nil
}

func analyzeExport(node tree_sitter.Node, src []byte, path string) (*exportDirective, error) {
	d := &exportDirective{}
	var (
		hasDefault, hasFrom, hasStar bool

		clause    tree_sitter.Node
		nsExport  tree_sitter.Node
		declNode  tree_sitter.Node
		valueNode tree_sitter.Node
		srcRef    *pathRef
	)

	for i := range node.ChildCount() {
		c := node.Child(i)
		switch t := c.Type(); t {
		case "export", ";", ",", "comment":
		case "default":
			hasDefault = true
		case "from":
			hasFrom = true
		case "*":
			hasStar = true
		case "namespace_export":
			nsExport = c
		case "export_clause":
			clause = c
		case "decorator":
			d.decorators = append(d.decorators, c)
		case "string":
			// With a from-clause the string is the source path; under
			// `export default` it is the exported expression.
			switch {
			case hasFrom:
				ref := pathRefOf(c, src)
				srcRef = &ref
			case hasDefault && valueNode.IsNull():
				valueNode = c
			default:
				return nil, unsupportedAt(path, c, "string in export statement")
			}
		case "import_attribute", "import_assertion", "assert_clause":
			return nil, unsupportedAt(path, c, "import attributes")
		default:
			switch {
			case isDeclarationType(t):
				declNode = c
			case c.IsNamed() && hasDefault && valueNode.IsNull():
				valueNode = c
			case c.IsNamed():
				return nil, unsupportedAt(path, c, t)
			}
		}
	}

	switch {
	case !declNode.IsNull():
		if hasDefault {
			if name := declarationName(declNode, src); name != "" {
				d.kind, d.decl, d.declName = exportDefaultDecl, declNode, name
			} else {
				d.kind, d.value = exportDefaultExpr, declNode
			}
			return d, nil
		}
		declared := declarationBindings(declNode, src)
		if len(declared) == 0 {
			return nil, unsupportedAt(path, node, "export of unnamed declaration")
		}
		d.kind, d.decl, d.declared = exportDeclaration, declNode, declared
	case hasDefault:
		if valueNode.IsNull() {
			return nil, unsupportedAt(path, node, "export default without value")
		}
		d.kind, d.value = exportDefaultExpr, valueNode
	case !nsExport.IsNull():
		if srcRef == nil {
			return nil, unsupportedAt(path, node, "namespace export without source")
		}
		kids := namedChildren(nsExport)
		if len(kids) == 0 {
			return nil, unsupportedAt(path, nsExport, "namespace export")
		}
		d.kind, d.alias, d.source = exportNamespaceFrom, moduleExportName(kids[0], src), srcRef
	case hasStar:
		if srcRef == nil {
			return nil, unsupportedAt(path, node, "wildcard export without source")
		}
		d.kind, d.source = exportWildcardFrom, srcRef
	case !clause.IsNull():
		for _, spec := range namedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			if s, ok := parseExportSpecifier(spec, src); ok {
				d.specs = append(d.specs, s)
			}
		}
		if hasFrom {
			if srcRef == nil {
				return nil, unsupportedAt(path, node, "re-export without source")
			}
			d.kind, d.source = exportClauseFrom, srcRef
		} else {
			for _, s := range d.specs {
				if s.local.str {
					// `export { "x" as y }` without a source has no local
					// binding to read from.
					return nil, unsupportedAt(path, node, "string-named local export")
				}
			}
			d.kind = exportClause
		}
	default:
		return nil, unsupportedAt(path, node, "export statement")
	}
	return d, nil
}

func parseExportSpecifier(spec tree_sitter.Node, src []byte) (exportSpec, bool) {
	kids := namedChildren(spec)
	if len(kids) == 0 {
		return exportSpec{}, false
	}
	name := moduleExportName(kids[0], src)
	exported := name
	if len(kids) >= 2 {
		exported = moduleExportName(kids[len(kids)-1], src)
	}
	return exportSpec{local: name, export: exported}, true
}

func moduleExportName(n tree_sitter.Node, src []byte) exportName {
	return exportName{raw: nodeText(n, src), str: n.Type() == "string"}
}

// isDefaultName reports whether a specifier names the default export, whether
// written as the identifier default or as the string "default".
func isDefaultName(n exportName) bool {
	if !n.str {
		return n.raw == "default"
	}
	return len(n.raw) >= 2 && n.raw[1:len(n.raw)-1] == "default"
}

func pathRefOf(n tree_sitter.Node, src []byte) pathRef {
	raw := nodeText(n, src)
	key := raw
	if len(raw) >= 2 {
		key = raw[1 : len(raw)-1]
	}
	return pathRef{raw: raw, key: key}
}
