package compare

import (
	"fmt"
	"slices"

	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// Oracle answers subtype and overlap queries between two type
// expressions. Implementations must be pure and total.
type Oracle interface {
	IsSubtype(a, b *symbols.Type) bool
	Overlaps(a, b *symbols.Type) bool
}

// Engine decides whether a handwritten symbol is compatible with its
// reference.
type Engine struct {
	oracle Oracle
}

// NewEngine creates an Engine backed by oracle.
func NewEngine(oracle Oracle) *Engine {
	return &Engine{oracle: oracle}
}

// CompareSymbols checks if sym is compatible with ref. Both must be
// non-nil. It returns an error only for declarations that cannot be
// compared at all: type variables with value restrictions and symbols
// of unknown kind.
func (e *Engine) CompareSymbols(sym, ref *symbols.Symbol) (ComparisonResult, error) {
	if err := checkComparable(sym); err != nil {
		return ComparisonResult{}, err
	}
	if err := checkComparable(ref); err != nil {
		return ComparisonResult{}, err
	}

	if sym.Kind != ref.Kind {
		return NewMismatch(sym, ref, nil, ""), nil
	}

	switch sym.Kind {
	case symbols.KindClass:
		// classes match by location only, their members are checked on their own
		if sym.FullName == ref.FullName {
			return NewMatch(sym, ref, nil, ""), nil
		}
		return NewMismatch(sym, ref, nil, ""), nil

	case symbols.KindTypeAlias:
		return e.CompareTypes(sym, ref, sym.Target, ref.Target), nil

	case symbols.KindTypeVar:
		return e.compareTypeVars(sym, ref)

	case symbols.KindDecorated:
		return e.compareDecorated(sym, ref)
	}

	return e.CompareTypes(sym, ref, sym.Type, ref.Type), nil
}

// CompareTypes applies the generic type rule to the static types of sym
// and ref.
//
// The result is a match if:
//   - the reference type is nil (the analyzer had no information)
//   - both are callables or overload sets with compatible shapes
//   - symType is a subtype of refType, or the two overlap
func (e *Engine) CompareTypes(sym, ref *symbols.Symbol, symType, refType *symbols.Type) ComparisonResult {
	if refType == nil {
		// not enough type information in the reference, accept the stub
		return NewMatch(sym, ref, nil, "Generated type is None")
	}
	if symType == nil {
		return NewMismatch(sym, ref, nil, "")
	}

	var match MatchResult
	switch {
	case symType.Kind == symbols.TypeCallable && refType.Kind == symbols.TypeCallable:
		match = e.callablesMatch(symType, refType)
	case symType.Kind == symbols.TypeOverloaded && refType.Kind == symbols.TypeOverloaded:
		match = e.overloadsMatch(symType, refType)
	default:
		match = e.typesMatch(symType, refType)
	}

	return newResult(match, sym, ref, nil, "")
}

func (e *Engine) typesMatch(a, b *symbols.Type) MatchResult {
	if e.oracle.IsSubtype(a, b) || e.oracle.Overlaps(a, b) {
		return Match
	}
	return Mismatch
}

// callablesMatch checks the parameter shape of candidate against
// reference before asking the oracle about the signatures as a whole.
func (e *Engine) callablesMatch(candidate, reference *symbols.Type) MatchResult {
	candStrict := candidate.CountParams(symbols.ParamKind.IsStrict)
	refStrict := reference.CountParams(symbols.ParamKind.IsStrict)

	if candStrict > refStrict {
		return Mismatch
	}

	// Reference parameters the candidate leaves out must be optional.
	refRequired := reference.CountParams(symbols.ParamKind.IsRequired)
	if candStrict < refStrict && refRequired > candStrict {
		return Mismatch
	}

	if countKind(candidate, symbols.ArgStar) > countKind(reference, symbols.ArgStar) ||
		countKind(candidate, symbols.ArgStar2) > countKind(reference, symbols.ArgStar2) {
		return Mismatch
	}

	return e.typesMatch(candidate, reference)
}

// overloadsMatch pairs overload items in declared order.
func (e *Engine) overloadsMatch(candidate, reference *symbols.Type) MatchResult {
	if len(candidate.Items) != len(reference.Items) {
		return Mismatch
	}
	for i := range candidate.Items {
		if e.callablesMatch(candidate.Items[i], reference.Items[i]) != Match {
			return Mismatch
		}
	}
	return Match
}

// compareTypeVars compares upper bounds. Type variables restricted to a
// list of values are not supported.
func (e *Engine) compareTypeVars(sym, ref *symbols.Symbol) (ComparisonResult, error) {
	if len(typeVarValues(sym)) == 0 && len(typeVarValues(ref)) == 0 {
		return e.CompareTypes(sym, ref, typeVarBound(sym), typeVarBound(ref)), nil
	}

	return ComparisonResult{}, stuberr.New(stuberr.UnsupportedConstruct,
		"comparison of type variables with listed values is not implemented, encountered:\n - %s\n - %s",
		FormatTypeVar(sym), FormatTypeVar(ref)).
		WithDetails([]string{sym.FullName, ref.FullName})
}

// compareDecorated requires identical decorators in identical order and
// compatible wrapped functions.
func (e *Engine) compareDecorated(sym, ref *symbols.Symbol) (ComparisonResult, error) {
	if sym.Decorated == nil || sym.Decorated.Func == nil || ref.Decorated == nil || ref.Decorated.Func == nil {
		return ComparisonResult{}, stuberr.New(stuberr.ContractViolation,
			"decorated symbol without wrapped function: %s", sym.FullName)
	}

	symDecorators := sym.Decorated.Decorators
	refDecorators := ref.Decorated.Decorators

	if !slices.Equal(symDecorators, refDecorators) {
		return NewMismatch(sym, ref,
			map[string]any{
				"Symbol decorators":    slices.Clone(symDecorators),
				"Reference decorators": slices.Clone(refDecorators),
			},
			fmt.Sprintf("Function %s stubs have different decorators.", sym.Decorated.Func.FullName),
		), nil
	}

	funcResult, err := e.CompareSymbols(sym.Decorated.Func, ref.Decorated.Func)
	if err != nil {
		return ComparisonResult{}, err
	}
	return newResult(funcResult.MatchResult, sym, ref, funcResult.Data, funcResult.message), nil
}

func checkComparable(sym *symbols.Symbol) error {
	if sym.Kind == symbols.KindModule || !sym.Kind.Valid() {
		return stuberr.New(stuberr.ContractViolation,
			"unexpected symbol kind %q for %s", sym.Kind, sym.FullName)
	}
	return nil
}

func countKind(t *symbols.Type, kind symbols.ParamKind) int {
	return t.CountParams(func(k symbols.ParamKind) bool { return k == kind })
}

func typeVarValues(sym *symbols.Symbol) []*symbols.Type {
	if sym.TypeVar == nil {
		return nil
	}
	return sym.TypeVar.Values
}

func typeVarBound(sym *symbols.Symbol) *symbols.Type {
	if sym.TypeVar == nil {
		return nil
	}
	return sym.TypeVar.UpperBound
}
