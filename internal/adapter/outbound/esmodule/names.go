package esmodule

import (
	"strconv"
	"strings"

	"esmconvert/internal/domain/errors/conversion"
)

const (
	// maxNameAttempts bounds the numeric-suffix search before the allocator
	// gives up with a conversion.NameCollisionError.
	maxNameAttempts = 1000

	helperBaseName     = "$interopDefault"
	defaultBaseName    = "$_default"
	fallbackModuleBase = "$module"
)

// nameAllocator hands out synthetic identifiers that never collide with names
// already appearing in the module or with earlier synthetic names. It is a
// pure function of (base, used set): identical inputs always produce identical
// names, so output is stable across runs.
type nameAllocator struct {
	used map[string]struct{}
}

// newNameAllocator takes ownership of the used-name set; callers must not
// reuse it across invocations.
func newNameAllocator(used map[string]struct{}) *nameAllocator {
	if used == nil {
		used = make(map[string]struct{})
	}
	return &nameAllocator{used: used}
}

func (a *nameAllocator) alloc(base string) (string, error) {
	if _, taken := a.used[base]; !taken {
		a.used[base] = struct{}{}
		return base, nil
	}
	for i := 2; i < 2+maxNameAttempts; i++ {
		candidate := base + strconv.Itoa(i)
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = struct{}{}
			return candidate, nil
		}
	}
	return "", &conversion.NameCollisionError{Base: base, Attempts: maxNameAttempts}
}

// moduleNameBase derives the synthetic binding base for a required module
// path: every run of characters that cannot appear in an identifier collapses
// to a single underscore, so "./store.js" becomes "$_store_js".
func moduleNameBase(path string) string {
	var b strings.Builder
	b.WriteByte('$')
	pending := false
	for _, r := range path {
		if isIdentRune(r) {
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
		} else {
			pending = true
		}
	}
	if b.Len() == 1 {
		return fallbackModuleBase
	}
	return b.String()
}

func isIdentRune(r rune) bool {
	switch {
	case r == '_' || r == '$':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	}
	return false
}
