package esmodule

import (
	"strings"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// exportPair records one live export binding: the name exposed on exports and
// the local binding it reads from. Residual statements that assign to the
// local re-affirm the pair.
type exportPair struct {
	exported exportName
	local    string
}

// rewriter turns the analysis into CommonJS output. Rewritten statements are
// emitted in place of the originals, so require calls appear in
// first-reference order and side-effect order is preserved; the marker
// precedes everything and the interop helper trails everything.
type rewriter struct {
	src      []byte
	comments []span
	names    *nameAllocator

	modNames   map[string]string // path key -> synthetic module binding
	helperName string
	pairs      []exportPair
	out        []string
}

func rewriteModule(an *analysis, src []byte) (*Result, error) {
	if an.moduleStatements == 0 {
		// No module syntax: output equals input, modulo comment stripping.
		if len(an.comments) == 0 {
			return &Result{Output: string(src)}, nil
		}
		if len(an.statements) == 0 {
			return &Result{Output: "", Rewritten: true}, nil
		}
		return &Result{
			Output:    stripComments(src, 0, uint(len(src)), an.comments),
			Rewritten: true,
		}, nil
	}

	r := &rewriter{
		src:      src,
		comments: an.comments,
		names:    newNameAllocator(an.used),
		modNames: make(map[string]string),
	}

	if an.hasExports {
		r.out = append(r.out, esModuleMarker)
	}
	for _, st := range an.statements {
		var err error
		switch st.kind {
		case stmtImport:
			err = r.emitImport(st.imp)
		case stmtExport:
			err = r.emitExport(st.exp)
		default:
			r.emitResidual(st)
		}
		if err != nil {
			return nil, err
		}
	}
	if r.helperName != "" {
		r.out = append(r.out, helperDecl(r.helperName))
	}

	output := ""
	if len(r.out) > 0 {
		output = strings.Join(r.out, "\n") + "\n"
	}
	return &Result{
		Output:       output,
		HasExports:   an.hasExports,
		RequireCount: len(r.modNames),
		HelperUsed:   r.helperName != "",
		Rewritten:    true,
	}, nil
}

// moduleName returns the synthetic binding for a source path, emitting the
// require declaration the first time the path is referenced. Later references
// coalesce onto the same binding.
func (r *rewriter) moduleName(p pathRef) (string, error) {
	if name, ok := r.modNames[p.key]; ok {
		return name, nil
	}
	name, err := r.names.alloc(moduleNameBase(p.key))
	if err != nil {
		return "", err
	}
	r.modNames[p.key] = name
	r.out = append(r.out, requireStmt(name, p.raw))
	return name, nil
}

// interopName returns the default-import helper's name, allocating it on
// first use. The declaration itself is appended after all statements.
func (r *rewriter) interopName() (string, error) {
	if r.helperName != "" {
		return r.helperName, nil
	}
	name, err := r.names.alloc(helperBaseName)
	if err != nil {
		return "", err
	}
	r.helperName = name
	return name, nil
}

func (r *rewriter) emitImport(d *importDirective) error {
	mod, err := r.moduleName(d.source)
	if err != nil {
		return err
	}
	for _, local := range d.defaults {
		helper, err := r.interopName()
		if err != nil {
			return err
		}
		r.out = append(r.out, "var "+local+" = "+helper+"("+mod+").default;")
	}
	if d.namespace != "" {
		r.out = append(r.out, "var "+d.namespace+" = "+mod+";")
	}
	for _, nb := range d.named {
		r.out = append(r.out, "var "+nb.local+" = "+propertyAccess(mod, nb.imported)+";")
	}
	return nil
}

func (r *rewriter) emitExport(d *exportDirective) error {
	for _, dec := range d.decorators {
		r.out = append(r.out, r.statementText(dec))
	}
	switch d.kind {
	case exportDeclaration:
		text := r.statementText(d.decl)
		if needsSemicolon(text) {
			text += ";"
		}
		r.out = append(r.out, text)
		for _, name := range d.declared {
			r.addPair(exportPair{exported: exportName{raw: name}, local: name})
		}
	case exportDefaultDecl:
		r.out = append(r.out, r.statementText(d.decl))
		r.addPair(exportPair{exported: exportName{raw: "default"}, local: d.declName})
	case exportDefaultExpr:
		local, err := r.names.alloc(defaultBaseName)
		if err != nil {
			return err
		}
		r.out = append(r.out, "var "+local+" = "+r.statementText(d.value)+";")
		r.addPair(exportPair{exported: exportName{raw: "default"}, local: local})
	case exportClause:
		for _, s := range d.specs {
			r.addPair(exportPair{exported: s.export, local: s.local.raw})
		}
	case exportClauseFrom:
		mod, err := r.moduleName(*d.source)
		if err != nil {
			return err
		}
		for _, s := range d.specs {
			r.out = append(r.out, exportsTarget(s.export)+" = "+propertyAccess(mod, s.local)+";")
		}
	case exportWildcardFrom:
		mod, err := r.moduleName(*d.source)
		if err != nil {
			return err
		}
		r.out = append(r.out, forwardStmt(mod))
	case exportNamespaceFrom:
		mod, err := r.moduleName(*d.source)
		if err != nil {
			return err
		}
		r.out = append(r.out, exportsTarget(d.alias)+" = "+mod+";")
	}
	return nil
}

// addPair emits the exports assignment for a new binding and registers it for
// mutation tracking.
func (r *rewriter) addPair(p exportPair) {
	r.out = append(r.out, exportAssign(p))
	r.pairs = append(r.pairs, p)
}

func (r *rewriter) emitResidual(st statement) {
	text := r.statementText(st.node)
	re := r.reaffirmations(st.assigned)
	if len(re) > 0 && needsSemicolon(text) {
		text += ";"
	}
	r.out = append(r.out, text)
	r.out = append(r.out, re...)
}

// reaffirmations maps a residual statement's assigned names onto the export
// pairs declared before it. Each mutation site produces its own trailing
// updates; they are never coalesced.
func (r *rewriter) reaffirmations(assigned []string) []string {
	if len(assigned) == 0 || len(r.pairs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(assigned))
	for _, name := range assigned {
		set[name] = struct{}{}
	}
	var out []string
	for _, p := range r.pairs {
		if _, ok := set[p.local]; ok {
			out = append(out, exportAssign(p))
		}
	}
	return out
}

// statementText renders a kept node's span with comments stripped; everything
// else, string literal bytes included, is preserved exactly.
func (r *rewriter) statementText(n tree_sitter.Node) string {
	return stripComments(r.src, n.StartByte(), n.EndByte(), r.comments)
}
