// Package lattice is a structural type oracle over the class hierarchy
// of declaration graphs.
package lattice

import (
	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/driver"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

const objectName = "builtins.object"

// numeric promotions, each type is accepted where a later one is expected
var promotions = []string{"builtins.bool", "builtins.int", "builtins.float", "builtins.complex"}

var _ compare.Oracle = (*Lattice)(nil)

// Lattice answers subtype and overlap queries. Class ancestry is taken
// from the graphs it was built from.
type Lattice struct {
	bases map[string][]string
}

// New builds a Lattice from the classes of graphs. Base lists of a class
// defined in several graphs are combined.
func New(graphs ...*symbols.Graph) *Lattice {
	l := &Lattice{bases: make(map[string][]string)}
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for name, sym := range g.Index {
			if sym.Kind != symbols.KindClass {
				continue
			}
			for _, b := range sym.Bases {
				if !contains(l.bases[name], b) {
					l.bases[name] = append(l.bases[name], b)
				}
			}
		}
	}
	return l
}

// Factory creates a Lattice for each build.
type Factory struct{}

var _ driver.OracleFactory = Factory{}

// Oracle implements driver.OracleFactory.
func (Factory) Oracle(b driver.Build) compare.Oracle {
	return New(b.Handwritten, b.Reference)
}

// IsSubtype reports whether a value of type a can be used where b is
// expected.
func (l *Lattice) IsSubtype(a, b *symbols.Type) bool {
	a, b = orAny(a), orAny(b)

	switch {
	case a.Kind == symbols.TypeAny || b.Kind == symbols.TypeAny:
		return true
	case a.Kind == symbols.TypeUnbound || b.Kind == symbols.TypeUnbound:
		return true
	case a.Kind == symbols.TypeUnion:
		for _, item := range a.Items {
			if !l.IsSubtype(item, b) {
				return false
			}
		}
		return true
	case b.Kind == symbols.TypeUnion:
		for _, item := range b.Items {
			if l.IsSubtype(a, item) {
				return true
			}
		}
		return false
	case a.Kind == symbols.TypeVariable:
		if b.Kind == symbols.TypeVariable && a.Name == b.Name {
			return true
		}
		return l.IsSubtype(boundOf(a), b)
	case b.Kind == symbols.TypeVariable:
		return b.Bound == nil || l.IsSubtype(a, b.Bound)
	}

	if isObject(b) {
		return true
	}

	switch a.Kind {
	case symbols.TypeNone:
		return b.Kind == symbols.TypeNone

	case symbols.TypeLiteral:
		if b.Kind == symbols.TypeLiteral {
			return a.Name == b.Name && a.Value == b.Value
		}
		return l.IsSubtype(symbols.Instance(a.Name), b)

	case symbols.TypeInstance:
		return b.Kind == symbols.TypeInstance && l.instanceSubtype(a, b)

	case symbols.TypeTuple:
		switch b.Kind {
		case symbols.TypeTuple:
			return l.itemwise(a.Items, b.Items, l.IsSubtype)
		case symbols.TypeInstance:
			if b.Name != "builtins.tuple" {
				return false
			}
			if len(b.Args) != 1 {
				return true
			}
			for _, item := range a.Items {
				if !l.IsSubtype(item, b.Args[0]) {
					return false
				}
			}
			return true
		}
		return false

	case symbols.TypeCallable:
		switch b.Kind {
		case symbols.TypeCallable:
			return l.callableSubtype(a, b)
		case symbols.TypeOverloaded:
			for _, item := range b.Items {
				if !l.IsSubtype(a, item) {
					return false
				}
			}
			return true
		}
		return false

	case symbols.TypeOverloaded:
		switch b.Kind {
		case symbols.TypeCallable:
			for _, item := range a.Items {
				if l.IsSubtype(item, b) {
					return true
				}
			}
			return false
		case symbols.TypeOverloaded:
			for _, want := range b.Items {
				if !l.IsSubtype(a, want) {
					return false
				}
			}
			return true
		}
		return false
	}

	return false
}

// Overlaps reports whether some value could have both types.
func (l *Lattice) Overlaps(a, b *symbols.Type) bool {
	a, b = orAny(a), orAny(b)

	if l.IsSubtype(a, b) || l.IsSubtype(b, a) {
		return true
	}

	switch {
	case a.Kind == symbols.TypeUnion:
		for _, item := range a.Items {
			if l.Overlaps(item, b) {
				return true
			}
		}
		return false
	case b.Kind == symbols.TypeUnion:
		for _, item := range b.Items {
			if l.Overlaps(a, item) {
				return true
			}
		}
		return false
	case a.Kind == symbols.TypeTuple && b.Kind == symbols.TypeTuple:
		return l.itemwise(a.Items, b.Items, l.Overlaps)
	}
	return false
}

func (l *Lattice) itemwise(a, b []*symbols.Type, rel func(a, b *symbols.Type) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !rel(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (l *Lattice) instanceSubtype(a, b *symbols.Type) bool {
	if !l.IsSubclass(a.Name, b.Name) {
		return false
	}
	// missing type arguments count as Any
	if a.Name != b.Name || len(a.Args) != len(b.Args) {
		return true
	}
	return l.itemwise(a.Args, b.Args, l.IsSubtype)
}

// IsSubclass reports whether class sub derives from super, directly,
// through its bases or by numeric promotion.
func (l *Lattice) IsSubclass(sub, super string) bool {
	if sub == super || super == objectName {
		return true
	}
	if i, j := promotionRank(sub), promotionRank(super); i >= 0 && j >= 0 && i <= j {
		return true
	}

	visited := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, base := range l.bases[name] {
			if base == super {
				return true
			}
			if !visited[base] {
				visited[base] = true
				queue = append(queue, base)
			}
		}
	}
	return false
}

func promotionRank(name string) int {
	for i, p := range promotions {
		if p == name {
			return i
		}
	}
	return -1
}

func orAny(t *symbols.Type) *symbols.Type {
	if t == nil {
		return symbols.Any()
	}
	return t
}

func boundOf(tv *symbols.Type) *symbols.Type {
	if tv.Bound == nil {
		return symbols.Instance(objectName)
	}
	return tv.Bound
}

func isObject(t *symbols.Type) bool {
	return t.Kind == symbols.TypeInstance && t.Name == objectName
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
