// Package declgraph reads declaration graphs written by an external stub
// dumper and serves them to the comparison engine.
package declgraph

// FileSuffix marks declaration graph files inside directories and bundles.
const FileSuffix = ".declgraph.json"

// Document is the on-disk form of a declaration graph.
type Document struct {
	Format   string                 `json:"format"`
	Analyzer string                 `json:"analyzer,omitempty"`
	Modules  []Module               `json:"modules,omitempty"`
	Symbols  map[string]*SymbolNode `json:"symbols"`
}

// Module is a stub module and its names table.
type Module struct {
	FullName string      `json:"fullname"`
	Path     string      `json:"path"`
	Names    []NameEntry `json:"names"`
}

// NameEntry is one row of a names table. Node holds the qualified name
// of the defined symbol and is empty for unresolved names.
type NameEntry struct {
	Name   string `json:"name"`
	Scope  string `json:"scope"`
	Public bool   `json:"public"`
	Node   string `json:"node,omitempty"`
}

// SymbolNode is a declaration. Overload items and wrapped functions of
// decorated symbols are stored inline.
type SymbolNode struct {
	Kind       string        `json:"kind"`
	Class      string        `json:"class,omitempty"`
	Type       *TypeNode     `json:"type,omitempty"`
	Bases      []string      `json:"bases,omitempty"`
	Members    []NameEntry   `json:"members,omitempty"`
	Items      []*SymbolNode `json:"items,omitempty"`
	Target     *TypeNode     `json:"target,omitempty"`
	Variance   string        `json:"variance,omitempty"`
	UpperBound *TypeNode     `json:"upper_bound,omitempty"`
	Values     []*TypeNode   `json:"values,omitempty"`
	Decorators []string      `json:"decorators,omitempty"`
	Func       *SymbolNode   `json:"func,omitempty"`
}

// TypeNode is a static type expression.
type TypeNode struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name,omitempty"`
	Args   []*TypeNode `json:"args,omitempty"`
	Items  []*TypeNode `json:"items,omitempty"`
	Params []ParamNode `json:"params,omitempty"`
	Ret    *TypeNode   `json:"ret,omitempty"`
	Value  string      `json:"value,omitempty"`
	Bound  *TypeNode   `json:"bound,omitempty"`
}

// ParamNode is a callable parameter.
type ParamNode struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	Type *TypeNode `json:"type,omitempty"`
}
