package esmodule

import "strings"

// esModuleMarker is the first statement of any module that exports: it tells
// downstream default-import interop that the exports object is already in ES
// module shape.
const esModuleMarker = `Object.defineProperty(exports, "__esModule", { value: true });`

func requireStmt(name, rawPath string) string {
	return "var " + name + " = require(" + rawPath + ");"
}

// helperDecl renders the default-import interop helper. Function declarations
// hoist, so emitting it after all statements keeps earlier call sites valid.
func helperDecl(name string) string {
	return "function " + name + "(m) {\n" +
		"  return m && m.__esModule ? m : { default: m };\n" +
		"}"
}

// forwardStmt renders the wildcard re-export loop. The source module's key
// set is only known at run time, so forwarding is executable logic, never a
// static key list.
func forwardStmt(modName string) string {
	return "Object.keys(" + modName + ").forEach(function (key) {\n" +
		`  if (key === "default" || key === "__esModule") return;` + "\n" +
		"  exports[key] = " + modName + "[key];\n" +
		"});"
}

// propertyAccess picks dot or bracket syntax based on how the name was
// written in source: identifiers use dot form, string-literal names reuse the
// original literal bytes inside brackets.
func propertyAccess(obj string, name exportName) string {
	if name.str {
		return obj + "[" + name.raw + "]"
	}
	return obj + "." + name.raw
}

func exportsTarget(name exportName) string {
	return propertyAccess("exports", name)
}

func exportAssign(p exportPair) string {
	return exportsTarget(p.exported) + " = " + p.local + ";"
}

// needsSemicolon reports whether generated code following this statement on
// the next line needs the statement terminated first. Statements already
// ending in ";" or a block "}" are left alone.
func needsSemicolon(text string) bool {
	t := strings.TrimRight(text, " \t")
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case ';', '}':
		return false
	}
	return true
}

// stripComments renders src[start:end) with comments removed. A comment that
// runs to the end of its line disappears together with the padding before it;
// a block comment inside a line is replaced by a single space only when
// removing it would glue the surrounding tokens (`return/*c*/x`). All other
// bytes, string literal contents included, pass through untouched.
func stripComments(src []byte, start, end uint, comments []span) string {
	var b strings.Builder
	cursor := start
	for _, c := range comments {
		if c.end <= start || c.start >= end {
			continue
		}
		chunk := string(src[cursor:c.start])
		if c.end >= end || src[c.end] == '\n' || src[c.end] == '\r' {
			b.WriteString(strings.TrimRight(chunk, " \t"))
		} else {
			b.WriteString(chunk)
			if needsGlueGuard(src, c, start) {
				b.WriteByte(' ')
			}
		}
		cursor = c.end
	}
	if cursor < end {
		b.Write(src[cursor:end])
	}
	return b.String()
}

// needsGlueGuard reports whether excising a mid-line comment outright would
// join the tokens on either side of it.
func needsGlueGuard(src []byte, c span, start uint) bool {
	if c.start <= start {
		return false
	}
	return !isSpaceByte(src[c.start-1]) && !isSpaceByte(src[c.end])
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
