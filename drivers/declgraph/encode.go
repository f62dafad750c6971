package declgraph

import (
	"encoding/json"
	"io"

	"github.com/emenda-labs/stubcheck/core/symbols"
)

// Fragment builds a document holding only the given symbols, e.g. to
// show a handwritten symbol next to its reference counterpart.
func Fragment(format string, syms ...*symbols.Symbol) *Document {
	doc := &Document{Format: format, Symbols: make(map[string]*SymbolNode, len(syms))}
	for _, sym := range syms {
		if sym == nil {
			continue
		}
		if sym.Kind == symbols.KindModule {
			doc.Modules = append(doc.Modules, Module{
				FullName: sym.FullName,
				Path:     sym.Path,
				Names:    encodeEntries(sym.Names),
			})
			continue
		}
		doc.Symbols[sym.FullName] = EncodeSymbol(sym)
	}
	return doc
}

// Pair shows a handwritten fragment next to its reference fragment.
type Pair struct {
	Handwritten *Document `json:"handwritten"`
	Reference   *Document `json:"reference"`
}

// Encode writes v, a Document or Pair, as indented JSON.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// EncodeSymbol converts a resolved symbol back to its wire form.
func EncodeSymbol(sym *symbols.Symbol) *SymbolNode {
	n := &SymbolNode{
		Kind:   string(sym.Kind),
		Type:   EncodeType(sym.Type),
		Bases:  sym.Bases,
		Target: EncodeType(sym.Target),
	}
	if sym.Info != nil {
		n.Class = sym.Info.FullName
	}
	if sym.Kind == symbols.KindClass {
		n.Members = encodeEntries(sym.Names)
	}
	for _, item := range sym.Items {
		in := EncodeSymbol(item)
		in.Class = ""
		n.Items = append(n.Items, in)
	}
	if tv := sym.TypeVar; tv != nil {
		n.Variance = string(tv.Variance)
		n.UpperBound = EncodeType(tv.UpperBound)
		for _, v := range tv.Values {
			n.Values = append(n.Values, EncodeType(v))
		}
	}
	if d := sym.Decorated; d != nil {
		n.Decorators = d.Decorators
		if d.Func != nil {
			n.Func = EncodeSymbol(d.Func)
			n.Func.Class = ""
		}
	}
	return n
}

// EncodeType converts a type expression back to its wire form.
func EncodeType(t *symbols.Type) *TypeNode {
	if t == nil {
		return nil
	}
	n := &TypeNode{
		Kind:  string(t.Kind),
		Name:  t.Name,
		Ret:   EncodeType(t.Ret),
		Value: t.Value,
		Bound: EncodeType(t.Bound),
	}
	for _, a := range t.Args {
		n.Args = append(n.Args, EncodeType(a))
	}
	for _, item := range t.Items {
		n.Items = append(n.Items, EncodeType(item))
	}
	for _, p := range t.Params {
		n.Params = append(n.Params, ParamNode{Name: p.Name, Kind: string(p.Kind), Type: EncodeType(p.Type)})
	}
	return n
}

func encodeEntries(entries []symbols.Entry) []NameEntry {
	out := make([]NameEntry, 0, len(entries))
	for _, e := range entries {
		ne := NameEntry{Name: e.Name, Scope: string(e.Scope), Public: e.Public}
		if e.Node != nil {
			ne.Node = e.Node.FullName
		}
		out = append(out, ne)
	}
	return out
}
