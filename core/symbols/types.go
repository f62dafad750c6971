package symbols

import "strings"

// Kind identifies what kind of declaration a Symbol describes.
type Kind string

const (
	KindModule     Kind = "module"
	KindClass      Kind = "class"
	KindFunction   Kind = "function"
	KindOverloaded Kind = "overloaded"
	KindVariable   Kind = "var"
	KindTypeAlias  Kind = "type_alias"
	KindTypeVar    Kind = "type_var"
	KindDecorated  Kind = "decorated"
)

// Valid reports whether k is one of the known symbol kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindModule, KindClass, KindFunction, KindOverloaded,
		KindVariable, KindTypeAlias, KindTypeVar, KindDecorated:
		return true
	}
	return false
}

// Scope says where a names-table entry was defined.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeMember   Scope = "member"
	ScopeImported Scope = "imported"
)

// Variance of a type variable.
type Variance string

const (
	Invariant     Variance = "invariant"
	Covariant     Variance = "covariant"
	Contravariant Variance = "contravariant"
)

// Entry is one row of a module or class names table.
type Entry struct {
	Name   string
	Scope  Scope
	Public bool
	Node   *Symbol // nil when the name could not be resolved
}

// Symbol is a single declaration in a declaration graph.
//
// Only the payload matching Kind is populated:
//
//	KindModule, KindClass  Names (+ Bases for classes)
//	KindFunction           Type (callable or nil)
//	KindOverloaded         Items (function symbols), Type (overloaded)
//	KindVariable           Type
//	KindTypeAlias          Target
//	KindTypeVar            TypeVar
//	KindDecorated          Decorated
type Symbol struct {
	Kind     Kind
	FullName string

	// Info is the class a member symbol is declared on.
	Info *Symbol

	Type      *Type
	Names     []Entry
	Bases     []string
	Items     []*Symbol
	Target    *Type
	TypeVar   *TypeVarInfo
	Decorated *DecoratedInfo

	// Path is the source file of a module symbol.
	Path string
}

// TypeVarInfo holds the payload of a KindTypeVar symbol.
type TypeVarInfo struct {
	Variance   Variance
	UpperBound *Type
	Values     []*Type
}

// DecoratedInfo holds the payload of a KindDecorated symbol.
type DecoratedInfo struct {
	Func       *Symbol
	Decorators []string
}

// Name returns the trailing component of the qualified name.
func (s *Symbol) Name() string {
	return ShortName(s.FullName)
}

// Lookup returns the names-table entry called name, if any.
func (s *Symbol) Lookup(name string) (Entry, bool) {
	for _, e := range s.Names {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ShortName returns the part of a dotted name after the last dot.
func ShortName(fullName string) string {
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

// IsPrivateName reports whether name follows the private underscore
// convention. Dunder names such as __init__ are public.
func IsPrivateName(name string) bool {
	if !strings.HasPrefix(name, "_") {
		return false
	}
	return !(len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
}

// Graph is the resolved result of analyzing one stub tree.
type Graph struct {
	Format   string
	Analyzer string

	// Modules are the stub modules selected for checking.
	Modules []*Symbol

	// Index holds every symbol of the graph by qualified name.
	Index map[string]*Symbol
}

// Get returns the symbol with the given qualified name.
func (g *Graph) Get(fullName string) *Symbol {
	if g == nil {
		return nil
	}
	return g.Index[fullName]
}
