package lattice

import (
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// callableSubtype reports whether callable a can be called everywhere b
// can. Parameters are contravariant and matched by position, then by
// name; the return type is covariant. Parameters of a that no
// parameter of b accounts for must be optional or variadic.
func (l *Lattice) callableSubtype(a, b *symbols.Type) bool {
	if !l.IsSubtype(retOf(a), retOf(b)) {
		return false
	}

	used := make([]bool, len(a.Params))
	aPos := positional(a)
	bPos := 0

	for _, want := range b.Params {
		var idx int
		switch {
		case want.Kind.IsPositional():
			idx = -1
			if bPos < len(aPos) {
				idx = aPos[bPos]
			} else {
				idx = byName(a, want.Name)
			}
			bPos++
			if idx < 0 {
				idx = byKind(a, symbols.ArgStar)
			}
		case want.Kind == symbols.ArgNamed || want.Kind == symbols.ArgNamedOpt:
			idx = byName(a, want.Name)
			if idx < 0 {
				idx = byKind(a, symbols.ArgStar2)
			}
		default:
			idx = byKind(a, want.Kind)
		}

		if idx < 0 {
			return false
		}
		got := a.Params[idx]
		if got.Kind.IsRequired() && !want.Kind.IsRequired() {
			// b's callers may leave it out
			return false
		}
		if !l.IsSubtype(orAny(want.Type), orAny(got.Type)) {
			return false
		}
		used[idx] = true
	}

	for i, p := range a.Params {
		if !used[i] && p.Kind.IsRequired() {
			return false
		}
	}
	return true
}

func retOf(t *symbols.Type) *symbols.Type {
	if t.Ret == nil {
		return symbols.None()
	}
	return t.Ret
}

// positional returns the indexes of the positional parameters of t.
func positional(t *symbols.Type) []int {
	var out []int
	for i, p := range t.Params {
		if p.Kind.IsPositional() {
			out = append(out, i)
		}
	}
	return out
}

func byName(t *symbols.Type, name string) int {
	for i, p := range t.Params {
		if p.Kind.IsStrict() && p.Name == name {
			return i
		}
	}
	return -1
}

func byKind(t *symbols.Type, kind symbols.ParamKind) int {
	for i, p := range t.Params {
		if p.Kind == kind {
			return i
		}
	}
	return -1
}
