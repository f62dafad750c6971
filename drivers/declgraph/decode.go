package declgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/stubcheck/core/symbols"
)

// DefaultFormatVersion is the graph format major version understood by
// this package.
const DefaultFormatVersion = "v1"

// Selection decides which modules of a graph are checked.
type Selection struct {
	// StubSuffix is required at the end of a module path, e.g. ".pyi".
	StubSuffix string

	// Exclude drops modules with a path segment equal to any entry.
	Exclude []string

	// BuiltinsModule is never selected.
	BuiltinsModule string
}

// Selected reports whether m is a module to check.
func (s Selection) Selected(m *symbols.Symbol) bool {
	if m.Path == "" || !strings.HasSuffix(m.Path, s.StubSuffix) {
		return false
	}
	if s.BuiltinsModule != "" && m.FullName == s.BuiltinsModule {
		return false
	}
	for _, seg := range strings.Split(path.Clean(strings.ReplaceAll(m.Path, "\\", "/")), "/") {
		for _, ex := range s.Exclude {
			if seg == ex {
				return false
			}
		}
	}
	return true
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// FormatVersion is the accepted major version, DefaultFormatVersion
	// when empty.
	FormatVersion string

	Selection Selection
}

// Decode reads one declaration graph document and resolves it into a
// pointer graph.
func Decode(r io.Reader, opts DecodeOptions) (*symbols.Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding declaration graph: %w", err)
	}
	return Resolve(&doc, opts)
}

// Resolve turns a decoded document into a pointer graph. Names and
// bases may refer to symbols in any order, including cycles.
func Resolve(doc *Document, opts DecodeOptions) (*symbols.Graph, error) {
	want := opts.FormatVersion
	if want == "" {
		want = DefaultFormatVersion
	}
	if !semver.IsValid(doc.Format) || semver.Major(doc.Format) != want {
		return nil, fmt.Errorf("unsupported graph format %q (want %s.x.y)", doc.Format, want)
	}

	r := &resolver{index: make(map[string]*symbols.Symbol, len(doc.Modules)+len(doc.Symbols))}
	g := &symbols.Graph{Format: doc.Format, Analyzer: doc.Analyzer, Index: r.index}

	// shells first, so references resolve regardless of order
	for _, m := range doc.Modules {
		if m.FullName == "" {
			return nil, fmt.Errorf("module without fullname (path %q)", m.Path)
		}
		if _, dup := r.index[m.FullName]; dup {
			return nil, fmt.Errorf("duplicate module %s", m.FullName)
		}
		r.index[m.FullName] = &symbols.Symbol{Kind: symbols.KindModule, FullName: m.FullName, Path: m.Path}
	}
	names := make([]string, 0, len(doc.Symbols))
	for name, node := range doc.Symbols {
		if node == nil {
			return nil, fmt.Errorf("symbol %s: empty declaration", name)
		}
		kind := symbols.Kind(node.Kind)
		if !kind.Valid() || kind == symbols.KindModule {
			return nil, fmt.Errorf("symbol %s: unknown kind %q", name, node.Kind)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("symbol %s: name is already taken by a module", name)
		}
		r.index[name] = &symbols.Symbol{Kind: kind, FullName: name}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, m := range doc.Modules {
		mod := r.index[m.FullName]
		entries, err := r.entries(m.Names)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.FullName, err)
		}
		mod.Names = entries
		if opts.Selection.Selected(mod) {
			g.Modules = append(g.Modules, mod)
		}
	}

	for _, name := range names {
		if err := r.fill(r.index[name], doc.Symbols[name]); err != nil {
			return nil, fmt.Errorf("symbol %s: %w", name, err)
		}
	}

	for _, name := range names {
		r.link(r.index[name])
	}

	return g, nil
}

type resolver struct {
	index map[string]*symbols.Symbol
}

func (r *resolver) entries(in []NameEntry) ([]symbols.Entry, error) {
	out := make([]symbols.Entry, 0, len(in))
	for _, e := range in {
		scope := symbols.Scope(e.Scope)
		switch scope {
		case symbols.ScopeGlobal, symbols.ScopeMember, symbols.ScopeImported:
		default:
			return nil, fmt.Errorf("name %s: unknown scope %q", e.Name, e.Scope)
		}
		out = append(out, symbols.Entry{
			Name:   e.Name,
			Scope:  scope,
			Public: e.Public,
			// names outside the graph stay unresolved
			Node: r.index[e.Node],
		})
	}
	return out, nil
}

func (r *resolver) fill(sym *symbols.Symbol, node *SymbolNode) error {
	if node.Class != "" {
		cls, ok := r.index[node.Class]
		if !ok || cls.Kind != symbols.KindClass {
			return fmt.Errorf("containing class %s is not a class of this graph", node.Class)
		}
		sym.Info = cls
	}

	var err error
	switch sym.Kind {
	case symbols.KindClass:
		sym.Bases = node.Bases
		sym.Names, err = r.entries(node.Members)

	case symbols.KindFunction, symbols.KindVariable:
		sym.Type, err = convType(node.Type)

	case symbols.KindOverloaded:
		err = r.fillOverloaded(sym, node)

	case symbols.KindTypeAlias:
		if node.Target == nil {
			return fmt.Errorf("type alias without target")
		}
		sym.Target, err = convType(node.Target)

	case symbols.KindTypeVar:
		sym.TypeVar, err = convTypeVar(node)

	case symbols.KindDecorated:
		if node.Func == nil {
			return fmt.Errorf("decorated symbol without func")
		}
		fn, ferr := inlineFunction(sym.FullName, node.Func)
		if ferr != nil {
			return fmt.Errorf("func: %w", ferr)
		}
		sym.Decorated = &symbols.DecoratedInfo{Func: fn, Decorators: node.Decorators}
	}
	return err
}

func (r *resolver) fillOverloaded(sym *symbols.Symbol, node *SymbolNode) error {
	for i, item := range node.Items {
		fn, err := inlineFunction(sym.FullName, item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		sym.Items = append(sym.Items, fn)
	}

	t, err := convType(node.Type)
	if err != nil {
		return err
	}
	if t == nil && len(sym.Items) > 0 {
		t = &symbols.Type{Kind: symbols.TypeOverloaded}
		for i, item := range sym.Items {
			if item.Type == nil {
				return fmt.Errorf("item %d: overload item without type", i)
			}
			t.Items = append(t.Items, item.Type)
		}
	}
	if t != nil && t.Kind != symbols.TypeOverloaded {
		return fmt.Errorf("overloaded symbol with %s type", t.Kind)
	}
	sym.Type = t
	return nil
}

// link sets the containing class of members listed by a class, and of
// inline symbols.
func (r *resolver) link(sym *symbols.Symbol) {
	if sym.Kind == symbols.KindClass {
		prefix := sym.FullName + "."
		for _, e := range sym.Names {
			if e.Node != nil && e.Node.Info == nil && e.Node.Kind != symbols.KindModule &&
				strings.HasPrefix(e.Node.FullName, prefix) {
				e.Node.Info = sym
			}
		}
	}
	for _, item := range sym.Items {
		item.Info = sym.Info
	}
	if sym.Decorated != nil && sym.Decorated.Func != nil {
		sym.Decorated.Func.Info = sym.Info
	}
}

func inlineFunction(fullName string, node *SymbolNode) (*symbols.Symbol, error) {
	if node == nil {
		return nil, fmt.Errorf("empty declaration")
	}
	if symbols.Kind(node.Kind) != symbols.KindFunction {
		return nil, fmt.Errorf("expected a function, got %q", node.Kind)
	}
	t, err := convType(node.Type)
	if err != nil {
		return nil, err
	}
	return &symbols.Symbol{Kind: symbols.KindFunction, FullName: fullName, Type: t}, nil
}

func convTypeVar(node *SymbolNode) (*symbols.TypeVarInfo, error) {
	tv := &symbols.TypeVarInfo{Variance: symbols.Variance(node.Variance)}
	switch tv.Variance {
	case "":
		tv.Variance = symbols.Invariant
	case symbols.Invariant, symbols.Covariant, symbols.Contravariant:
	default:
		return nil, fmt.Errorf("unknown variance %q", node.Variance)
	}

	var err error
	if tv.UpperBound, err = convType(node.UpperBound); err != nil {
		return nil, fmt.Errorf("upper bound: %w", err)
	}
	if tv.Values, err = convTypes(node.Values); err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	return tv, nil
}

func convTypes(in []*TypeNode) ([]*symbols.Type, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*symbols.Type, 0, len(in))
	for _, n := range in {
		if n == nil {
			return nil, fmt.Errorf("null type")
		}
		t, err := convType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// convType converts a type node. A nil node is the absent type.
func convType(n *TypeNode) (*symbols.Type, error) {
	if n == nil {
		return nil, nil
	}

	t := &symbols.Type{Kind: symbols.TypeKind(n.Kind), Name: n.Name, Value: n.Value}
	if !t.Kind.Valid() {
		return nil, fmt.Errorf("unknown type kind %q", n.Kind)
	}

	var err error
	switch t.Kind {
	case symbols.TypeInstance:
		if n.Name == "" {
			return nil, fmt.Errorf("instance type without name")
		}
		t.Args, err = convTypes(n.Args)

	case symbols.TypeUnion, symbols.TypeTuple:
		t.Items, err = convTypes(n.Items)

	case symbols.TypeOverloaded:
		t.Items, err = convTypes(n.Items)
		for _, item := range t.Items {
			if item.Kind != symbols.TypeCallable {
				return nil, fmt.Errorf("overload item of kind %s", item.Kind)
			}
		}

	case symbols.TypeCallable:
		for _, p := range n.Params {
			kind := symbols.ParamKind(p.Kind)
			if !kind.Valid() {
				return nil, fmt.Errorf("parameter %s: unknown kind %q", p.Name, p.Kind)
			}
			pt, perr := convType(p.Type)
			if perr != nil {
				return nil, fmt.Errorf("parameter %s: %w", p.Name, perr)
			}
			t.Params = append(t.Params, symbols.Param{Name: p.Name, Kind: kind, Type: pt})
		}
		t.Ret, err = convType(n.Ret)

	case symbols.TypeVariable:
		t.Bound, err = convType(n.Bound)

	case symbols.TypeLiteral:
		if n.Name == "" {
			return nil, fmt.Errorf("literal type without fallback class")
		}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
