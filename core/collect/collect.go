package collect

import (
	"iter"
	"strings"

	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// DefaultBuiltinsModule is the root namespace no stubs are expected for.
const DefaultBuiltinsModule = "builtins"

// Options tunes traversal.
type Options struct {
	// BuiltinsModule is skipped together with everything below it.
	// Empty means DefaultBuiltinsModule.
	BuiltinsModule string
}

// walker holds the state of a single traversal.
type walker struct {
	builtins string
	visited  map[string]bool
	yield    func(*symbols.Symbol, error) bool
}

// Walk yields every comparable symbol reachable from root. Each call
// owns its own visited set, so every qualified name is yielded at most
// once per call. An unknown symbol kind yields a contract violation
// error and ends the sequence.
func Walk(root *symbols.Symbol, opts Options) iter.Seq2[*symbols.Symbol, error] {
	builtins := opts.BuiltinsModule
	if builtins == "" {
		builtins = DefaultBuiltinsModule
	}
	return func(yield func(*symbols.Symbol, error) bool) {
		w := &walker{
			builtins: builtins,
			visited:  make(map[string]bool),
			yield:    yield,
		}
		w.visit(root)
	}
}

// Collect drains Walk into a slice.
func Collect(root *symbols.Symbol, opts Options) ([]*symbols.Symbol, error) {
	var out []*symbols.Symbol
	for sym, err := range Walk(root, opts) {
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

// CollectGraph collects the symbols of every module selected in g,
// deduplicated across modules.
func CollectGraph(g *symbols.Graph, opts Options) ([]*symbols.Symbol, error) {
	seen := make(map[string]bool)
	var out []*symbols.Symbol
	for _, mod := range g.Modules {
		syms, err := Collect(mod, opts)
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			if seen[s.FullName] {
				continue
			}
			seen[s.FullName] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// visit returns false once the consumer stopped or an error was yielded.
func (w *walker) visit(sym *symbols.Symbol) bool {
	if sym == nil {
		return true
	}

	// no stubs are expected for builtins
	if w.isBuiltin(sym.FullName) {
		return true
	}

	if w.visited[sym.FullName] {
		return true
	}
	w.visited[sym.FullName] = true

	switch sym.Kind {
	case symbols.KindModule:
		for _, entry := range sym.Names {
			if entry.Node == nil || !isExported(entry) {
				continue
			}
			if !w.visit(entry.Node) {
				return false
			}
		}
		return true

	case symbols.KindClass:
		if !w.yield(sym, nil) {
			return false
		}
		for _, member := range sym.Names {
			if member.Node == nil {
				continue
			}
			if !w.visit(member.Node) {
				return false
			}
		}
		return true

	case symbols.KindFunction, symbols.KindOverloaded, symbols.KindVariable,
		symbols.KindTypeAlias, symbols.KindTypeVar, symbols.KindDecorated:
		return w.yield(sym, nil)

	default:
		w.yield(nil, stuberr.New(stuberr.ContractViolation,
			"unexpected symbol kind %q for %s", sym.Kind, sym.FullName))
		return false
	}
}

func (w *walker) isBuiltin(fullName string) bool {
	return fullName == w.builtins || strings.HasPrefix(fullName, w.builtins+".")
}

// isExported reports whether a module-level entry is meant to be
// stubbed in this module: public and not merely imported.
func isExported(e symbols.Entry) bool {
	if !e.Public || symbols.IsPrivateName(e.Name) {
		return false
	}
	return e.Scope == symbols.ScopeGlobal || e.Scope == symbols.ScopeMember
}
