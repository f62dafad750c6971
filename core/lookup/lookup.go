package lookup

import (
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// Result describes where a handwritten symbol was found in the
// reference set.
type Result struct {
	// Symbol is the reference symbol, nil when nothing was found.
	Symbol *symbols.Symbol

	// ContainingClass is the class the reference symbol is declared on.
	ContainingClass *symbols.Symbol

	// Mislocated is set when Symbol lives at a different qualified name.
	Mislocated bool

	// ExpectedClass is the class the handwritten symbol was declared on.
	ExpectedClass string
}

// Found reports whether a reference symbol was located.
func (r Result) Found() bool {
	return r.Symbol != nil
}

// Data returns the auxiliary data recorded on mislocation results.
func (r Result) Data() map[string]any {
	if !r.Mislocated {
		return nil
	}
	data := map[string]any{"expected_class": r.ExpectedClass}
	if r.ContainingClass != nil {
		data["found_class"] = r.ContainingClass.FullName
	}
	return data
}

// Locator indexes a reference symbol set for lookups.
type Locator struct {
	byName  map[string]*symbols.Symbol
	members map[string][]*symbols.Symbol // short name -> class members
}

// NewLocator indexes refs by qualified name. When two symbols share a
// name the first one wins.
func NewLocator(refs []*symbols.Symbol) *Locator {
	l := &Locator{
		byName:  make(map[string]*symbols.Symbol, len(refs)),
		members: make(map[string][]*symbols.Symbol),
	}
	for _, ref := range refs {
		if _, dup := l.byName[ref.FullName]; dup {
			continue
		}
		l.byName[ref.FullName] = ref
		if ref.Info != nil {
			short := ref.Name()
			l.members[short] = append(l.members[short], ref)
		}
	}
	return l
}

// Get returns the reference symbol with the given qualified name.
func (l *Locator) Get(fullName string) *symbols.Symbol {
	return l.byName[fullName]
}

// Len returns the number of indexed reference symbols.
func (l *Locator) Len() int {
	return len(l.byName)
}

// Lookup finds the reference counterpart of sym. A direct hit by
// qualified name wins; class members are then searched along the
// reference class hierarchy and finally by short name across unrelated
// classes. Ambiguous short-name matches are reported as not found.
func (l *Locator) Lookup(sym *symbols.Symbol) Result {
	if ref, ok := l.byName[sym.FullName]; ok {
		return Result{Symbol: ref, ContainingClass: ref.Info}
	}

	// only class members can be mislocated
	if sym.Info == nil {
		return Result{}
	}
	expected := sym.Info.FullName
	short := sym.Name()

	if ref := l.inHierarchy(expected, short); ref != nil {
		if ref.FullName == sym.FullName {
			return Result{Symbol: ref, ContainingClass: ref.Info}
		}
		return Result{Symbol: ref, ContainingClass: ref.Info, Mislocated: true, ExpectedClass: expected}
	}

	var candidates []*symbols.Symbol
	for _, ref := range l.members[short] {
		if ref.Info.FullName == expected {
			continue
		}
		candidates = append(candidates, ref)
	}
	if len(candidates) == 1 {
		ref := candidates[0]
		return Result{Symbol: ref, ContainingClass: ref.Info, Mislocated: true, ExpectedClass: expected}
	}

	return Result{}
}

// inHierarchy looks for a member called short on the reference class
// className or any of its bases, depth first in declared order.
func (l *Locator) inHierarchy(className, short string) *symbols.Symbol {
	visited := make(map[string]bool)

	var walk func(name string) *symbols.Symbol
	walk = func(name string) *symbols.Symbol {
		if visited[name] {
			return nil
		}
		visited[name] = true

		cls, ok := l.byName[name]
		if !ok || cls.Kind != symbols.KindClass {
			return nil
		}
		if entry, ok := cls.Lookup(short); ok && entry.Node != nil {
			return entry.Node
		}
		for _, base := range cls.Bases {
			if found := walk(base); found != nil {
				return found
			}
		}
		return nil
	}

	return walk(className)
}
