package symbols

import "strings"

// TypeKind identifies the shape of a type expression.
type TypeKind string

const (
	TypeAny        TypeKind = "any"
	TypeNone       TypeKind = "none"
	TypeInstance   TypeKind = "instance"
	TypeUnion      TypeKind = "union"
	TypeTuple      TypeKind = "tuple"
	TypeCallable   TypeKind = "callable"
	TypeOverloaded TypeKind = "overloaded"
	TypeVariable   TypeKind = "type_var"
	TypeLiteral    TypeKind = "literal"
	TypeUnbound    TypeKind = "unbound"
)

// Valid reports whether k is one of the known type kinds.
func (k TypeKind) Valid() bool {
	switch k {
	case TypeAny, TypeNone, TypeInstance, TypeUnion, TypeTuple,
		TypeCallable, TypeOverloaded, TypeVariable, TypeLiteral, TypeUnbound:
		return true
	}
	return false
}

// ParamKind is the calling convention of a callable parameter.
type ParamKind string

const (
	ArgPos      ParamKind = "pos"       // required positional
	ArgOpt      ParamKind = "opt"       // optional positional
	ArgNamed    ParamKind = "named"     // required keyword-only
	ArgNamedOpt ParamKind = "named_opt" // optional keyword-only
	ArgStar     ParamKind = "star"      // *args
	ArgStar2    ParamKind = "star2"     // **kwargs
)

// Valid reports whether k is one of the known parameter kinds.
func (k ParamKind) Valid() bool {
	switch k {
	case ArgPos, ArgOpt, ArgNamed, ArgNamedOpt, ArgStar, ArgStar2:
		return true
	}
	return false
}

// IsStrict reports whether the parameter is not variadic.
func (k ParamKind) IsStrict() bool {
	return k != ArgStar && k != ArgStar2
}

// IsRequired reports whether callers must always supply the parameter.
func (k ParamKind) IsRequired() bool {
	return k == ArgPos || k == ArgNamed
}

// IsPositional reports whether the parameter can be passed by position.
func (k ParamKind) IsPositional() bool {
	return k == ArgPos || k == ArgOpt
}

// Param is a single callable parameter.
type Param struct {
	Name string
	Kind ParamKind
	Type *Type
}

// Type is a static type expression as reported by the analyzer.
//
// Field use per kind:
//
//	instance   Name, Args
//	union      Items
//	tuple      Items
//	callable   Params, Ret
//	overloaded Items (callables)
//	type_var   Name, Bound
//	literal    Name (fallback class), Value
//	unbound    Name
type Type struct {
	Kind   TypeKind
	Name   string
	Args   []*Type
	Items  []*Type
	Params []Param
	Ret    *Type
	Bound  *Type
	Value  string
}

// Convenience constructors, mostly used by drivers and tests.

func Any() *Type  { return &Type{Kind: TypeAny} }
func None() *Type { return &Type{Kind: TypeNone} }

func Instance(name string, args ...*Type) *Type {
	return &Type{Kind: TypeInstance, Name: name, Args: args}
}

func Union(items ...*Type) *Type { return &Type{Kind: TypeUnion, Items: items} }
func Tuple(items ...*Type) *Type { return &Type{Kind: TypeTuple, Items: items} }

func Callable(ret *Type, params ...Param) *Type {
	return &Type{Kind: TypeCallable, Params: params, Ret: ret}
}

func Overloaded(items ...*Type) *Type { return &Type{Kind: TypeOverloaded, Items: items} }

// CountParams returns how many parameters of t match pred.
func (t *Type) CountParams(pred func(ParamKind) bool) int {
	n := 0
	for _, p := range t.Params {
		if pred(p.Kind) {
			n++
		}
	}
	return n
}

// String renders the type for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "None"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	switch t.Kind {
	case TypeAny:
		b.WriteString("Any")
	case TypeNone:
		b.WriteString("None")
	case TypeInstance:
		b.WriteString(t.Name)
		writeList(b, "[", t.Args, "]")
	case TypeUnion:
		b.WriteString("Union")
		writeList(b, "[", t.Items, "]")
	case TypeTuple:
		b.WriteString("Tuple")
		writeList(b, "[", t.Items, "]")
	case TypeCallable:
		t.writeCallable(b)
	case TypeOverloaded:
		b.WriteString("Overload(")
		for i, item := range t.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteString(")")
	case TypeVariable:
		b.WriteString(t.Name)
		if t.Bound != nil {
			b.WriteString(" <: ")
			t.Bound.write(b)
		}
	case TypeLiteral:
		b.WriteString("Literal[")
		b.WriteString(t.Value)
		b.WriteString("]")
	case TypeUnbound:
		b.WriteString(t.Name)
		b.WriteString("?")
	default:
		b.WriteString("<" + string(t.Kind) + ">")
	}
}

func (t *Type) writeCallable(b *strings.Builder) {
	b.WriteString("def (")
	starSeen := false
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch p.Kind {
		case ArgStar:
			starSeen = true
			b.WriteString("*")
		case ArgStar2:
			b.WriteString("**")
		case ArgNamed, ArgNamedOpt:
			if !starSeen {
				b.WriteString("*, ")
				starSeen = true
			}
		}
		b.WriteString(p.Name)
		if p.Type != nil {
			b.WriteString(": ")
			p.Type.write(b)
		}
		if p.Kind == ArgOpt || p.Kind == ArgNamedOpt {
			b.WriteString(" =")
		}
	}
	b.WriteString(") -> ")
	if t.Ret == nil {
		b.WriteString("None")
		return
	}
	t.Ret.write(b)
}

func writeList(b *strings.Builder, open string, items []*Type, close string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(open)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		item.write(b)
	}
	b.WriteString(close)
}
