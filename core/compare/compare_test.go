package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// scriptedOracle treats types with identical renderings as subtypes and
// otherwise consults the listed pairs.
type scriptedOracle struct {
	subtypes map[[2]string]bool
	overlaps map[[2]string]bool
	calls    int
}

func (o *scriptedOracle) IsSubtype(a, b *symbols.Type) bool {
	o.calls++
	if a.String() == b.String() {
		return true
	}
	return o.subtypes[[2]string{a.String(), b.String()}]
}

func (o *scriptedOracle) Overlaps(a, b *symbols.Type) bool {
	return o.overlaps[[2]string{a.String(), b.String()}]
}

var (
	intT = symbols.Instance("builtins.int")
	strT = symbols.Instance("builtins.str")
)

func pos(name string) symbols.Param {
	return symbols.Param{Name: name, Kind: symbols.ArgPos, Type: intT}
}

func opt(name string) symbols.Param {
	return symbols.Param{Name: name, Kind: symbols.ArgOpt, Type: intT}
}

func fn(name string, typ *symbols.Type) *symbols.Symbol {
	return &symbols.Symbol{Kind: symbols.KindFunction, FullName: name, Type: typ}
}

func variable(name string, typ *symbols.Type) *symbols.Symbol {
	return &symbols.Symbol{Kind: symbols.KindVariable, FullName: name, Type: typ}
}

func TestCompareSymbols_KindMismatchIsSymmetric(t *testing.T) {
	e := NewEngine(&scriptedOracle{})
	f := fn("mod.x", symbols.Callable(strT))
	v := variable("mod.x", intT)

	res, err := e.CompareSymbols(f, v)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)

	res, err = e.CompareSymbols(v, f)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func TestCompareSymbols_AbsentReferenceTypeMatches(t *testing.T) {
	e := NewEngine(&scriptedOracle{})

	res, err := e.CompareSymbols(variable("mod.x", intT), variable("mod.x", nil))
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Equal(t, "Generated type is None", res.Message())
}

func TestCompareSymbols_AbsentHandwrittenTypeMismatches(t *testing.T) {
	e := NewEngine(&scriptedOracle{})

	res, err := e.CompareSymbols(variable("mod.x", nil), variable("mod.x", intT))
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func TestCompareSymbols_Variables(t *testing.T) {
	oracle := &scriptedOracle{
		overlaps: map[[2]string]bool{{"Union[builtins.int, builtins.str]", "builtins.int"}: true},
	}
	e := NewEngine(oracle)

	tests := []struct {
		name string
		sym  *symbols.Type
		ref  *symbols.Type
		want MatchResult
	}{
		{"same type", intT, intT, Match},
		{"unrelated", strT, intT, Mismatch},
		{"overlapping union", symbols.Union(intT, strT), intT, Match},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.CompareSymbols(variable("mod.x", tt.sym), variable("mod.x", tt.ref))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.MatchResult)
		})
	}
}

func TestCompareTypes_Callables(t *testing.T) {
	star := symbols.Param{Name: "args", Kind: symbols.ArgStar, Type: intT}
	star2 := symbols.Param{Name: "kwargs", Kind: symbols.ArgStar2, Type: intT}

	tests := []struct {
		name string
		sym  *symbols.Type
		ref  *symbols.Type
		want MatchResult
	}{
		{
			name: "omitted optional parameter",
			sym:  symbols.Callable(strT, pos("x")),
			ref:  symbols.Callable(strT, pos("x"), opt("y")),
			want: Match,
		},
		{
			name: "extra parameter",
			sym:  symbols.Callable(strT, pos("x"), pos("y")),
			ref:  symbols.Callable(strT, pos("x")),
			want: Mismatch,
		},
		{
			name: "omitted required parameter",
			sym:  symbols.Callable(strT, pos("x")),
			ref:  symbols.Callable(strT, pos("x"), pos("y")),
			want: Mismatch,
		},
		{
			name: "extra star args",
			sym:  symbols.Callable(strT, pos("x"), star),
			ref:  symbols.Callable(strT, pos("x")),
			want: Mismatch,
		},
		{
			name: "extra star kwargs",
			sym:  symbols.Callable(strT, pos("x"), star2),
			ref:  symbols.Callable(strT, pos("x"), star),
			want: Mismatch,
		},
		{
			name: "same shape",
			sym:  symbols.Callable(strT, pos("x"), star, star2),
			ref:  symbols.Callable(strT, pos("x"), star, star2),
			want: Match,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &scriptedOracle{
				subtypes: map[[2]string]bool{{tt.sym.String(), tt.ref.String()}: true},
			}
			e := NewEngine(oracle)
			res := e.CompareTypes(fn("mod.f", tt.sym), fn("mod.f", tt.ref), tt.sym, tt.ref)
			assert.Equal(t, tt.want, res.MatchResult)
		})
	}
}

func TestCompareTypes_ShapeCheckedBeforeOracle(t *testing.T) {
	oracle := &scriptedOracle{}
	e := NewEngine(oracle)

	sym := symbols.Callable(strT, pos("x"), pos("y"))
	ref := symbols.Callable(strT, pos("x"))
	res := e.CompareTypes(fn("mod.f", sym), fn("mod.f", ref), sym, ref)

	assert.Equal(t, Mismatch, res.MatchResult)
	assert.Zero(t, oracle.calls)
}

func TestCompareTypes_StrictnessIsMonotonic(t *testing.T) {
	ref := symbols.Callable(strT, pos("x"))
	e := NewEngine(&scriptedOracle{})

	sym := symbols.Callable(strT, pos("x"))
	for range 3 {
		sym = symbols.Callable(strT, append(append([]symbols.Param{}, sym.Params...), opt("extra"))...)
		res := e.CompareTypes(fn("mod.f", sym), fn("mod.f", ref), sym, ref)
		assert.Equal(t, Mismatch, res.MatchResult, sym.String())
	}
}

func TestCompareTypes_OptionalParameterOmitted(t *testing.T) {
	handwritten := fn("mod.f", symbols.Callable(strT, pos("x")))
	reference := fn("mod.f", symbols.Callable(strT, pos("x"), opt("y")))

	oracle := &scriptedOracle{
		overlaps: map[[2]string]bool{
			{handwritten.Type.String(), reference.Type.String()}: true,
		},
	}
	res, err := NewEngine(oracle).CompareSymbols(handwritten, reference)
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Equal(t, "mod.f", res.SymbolName)
	assert.Equal(t, "def (x: builtins.int) -> builtins.str", res.SymbolType)
	assert.Equal(t, "def (x: builtins.int, y: builtins.int =) -> builtins.str", res.ReferenceType)
}

func TestCompareTypes_ExtraRequiredParameter(t *testing.T) {
	handwritten := fn("mod.f", symbols.Callable(strT, pos("x"), pos("y")))
	reference := fn("mod.f", symbols.Callable(strT, pos("x")))

	res, err := NewEngine(&scriptedOracle{}).CompareSymbols(handwritten, reference)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
	assert.Equal(t,
		"Types for mod.f do not match:\n"+
			"    def (x: builtins.int, y: builtins.int) -> builtins.str\n"+
			"    def (x: builtins.int) -> builtins.str",
		res.Message())
}

func TestCompareTypes_Overloads(t *testing.T) {
	a := symbols.Callable(intT, pos("x"))
	b := symbols.Callable(strT, pos("x"), pos("y"))

	tests := []struct {
		name string
		sym  *symbols.Type
		ref  *symbols.Type
		want MatchResult
	}{
		{"same items", symbols.Overloaded(a, b), symbols.Overloaded(a, b), Match},
		{"different arity", symbols.Overloaded(a), symbols.Overloaded(a, b), Mismatch},
		{"swapped order", symbols.Overloaded(b, a), symbols.Overloaded(a, b), Mismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&scriptedOracle{})
			sym := &symbols.Symbol{Kind: symbols.KindOverloaded, FullName: "mod.f", Type: tt.sym}
			ref := &symbols.Symbol{Kind: symbols.KindOverloaded, FullName: "mod.f", Type: tt.ref}

			res, err := e.CompareSymbols(sym, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.MatchResult)
		})
	}
}

func TestCompareSymbols_Classes(t *testing.T) {
	e := NewEngine(&scriptedOracle{})
	cls := func(name string) *symbols.Symbol {
		return &symbols.Symbol{Kind: symbols.KindClass, FullName: name}
	}

	res, err := e.CompareSymbols(cls("mod.A"), cls("mod.A"))
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Equal(t, "Class(mod.A)", res.SymbolType)

	res, err = e.CompareSymbols(cls("mod.A"), cls("other.A"))
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func TestCompareSymbols_TypeAlias(t *testing.T) {
	alias := func(target *symbols.Type) *symbols.Symbol {
		return &symbols.Symbol{Kind: symbols.KindTypeAlias, FullName: "mod.Alias", Target: target}
	}
	e := NewEngine(&scriptedOracle{})

	res, err := e.CompareSymbols(alias(intT), alias(intT))
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Equal(t, "builtins.int", res.SymbolType)

	res, err = e.CompareSymbols(alias(strT), alias(intT))
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func typeVar(bound *symbols.Type, values ...*symbols.Type) *symbols.Symbol {
	return &symbols.Symbol{
		Kind:     symbols.KindTypeVar,
		FullName: "mod.T",
		TypeVar:  &symbols.TypeVarInfo{Variance: symbols.Invariant, UpperBound: bound, Values: values},
	}
}

func TestCompareSymbols_TypeVarBounds(t *testing.T) {
	object := symbols.Instance("builtins.object")
	e := NewEngine(&scriptedOracle{})

	res, err := e.CompareSymbols(typeVar(object), typeVar(object))
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Equal(t, "T = TypeVar('T')", res.SymbolType)

	res, err = e.CompareSymbols(typeVar(strT), typeVar(intT))
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func TestCompareSymbols_TypeVarValuesUnsupported(t *testing.T) {
	e := NewEngine(&scriptedOracle{})

	_, err := e.CompareSymbols(typeVar(nil, intT, strT), typeVar(nil, intT, strT))
	require.Error(t, err)
	assert.True(t, stuberr.HasCode(err, stuberr.UnsupportedConstruct))
	assert.Contains(t, err.Error(), "T = TypeVar('T', builtins.int, builtins.str)")
}

func decorated(name string, typ *symbols.Type, decorators ...string) *symbols.Symbol {
	return &symbols.Symbol{
		Kind:     symbols.KindDecorated,
		FullName: name,
		Decorated: &symbols.DecoratedInfo{
			Func:       fn(name, typ),
			Decorators: decorators,
		},
	}
}

func TestCompareSymbols_DecoratorsDiffer(t *testing.T) {
	sig := symbols.Callable(strT, pos("self"))
	sym := decorated("mod.C.f", sig, "builtins.staticmethod")
	ref := decorated("mod.C.f", sig, "builtins.classmethod")

	res, err := NewEngine(&scriptedOracle{}).CompareSymbols(sym, ref)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
	assert.Equal(t, "Function mod.C.f stubs have different decorators.", res.Message())
	assert.Equal(t, map[string]any{
		"Symbol decorators":    []string{"builtins.staticmethod"},
		"Reference decorators": []string{"builtins.classmethod"},
	}, res.Data)
}

func TestCompareSymbols_DecoratorsEqualComparesFunction(t *testing.T) {
	sig := symbols.Callable(strT, pos("self"))
	sym := decorated("mod.C.f", sig, "builtins.property")
	ref := decorated("mod.C.f", sig, "builtins.property")

	res, err := NewEngine(&scriptedOracle{}).CompareSymbols(sym, ref)
	require.NoError(t, err)
	assert.Equal(t, Match, res.MatchResult)
	assert.Same(t, sym, res.Symbol)
	assert.Equal(t, "def (self: builtins.int) -> builtins.str", res.SymbolType)

	bad := decorated("mod.C.f", symbols.Callable(strT, pos("self"), pos("x")), "builtins.property")
	res, err = NewEngine(&scriptedOracle{}).CompareSymbols(bad, ref)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.MatchResult)
}

func TestCompareSymbols_ModuleIsContractViolation(t *testing.T) {
	mod := &symbols.Symbol{Kind: symbols.KindModule, FullName: "mod"}

	_, err := NewEngine(&scriptedOracle{}).CompareSymbols(mod, mod)
	require.Error(t, err)
	assert.True(t, stuberr.HasCode(err, stuberr.ContractViolation))
}

func TestComparisonResult_Messages(t *testing.T) {
	sym := variable("mod.x", intT)
	ref := &symbols.Symbol{Kind: symbols.KindVariable, FullName: "mod.Base.x", Type: intT}

	assert.Equal(t, `Symbol "mod.x" not found in generated stubs`, NewNotFound(sym, nil).Message())
	assert.Equal(t, `Found symbol "mod.x" in different location "mod.Base.x".`, NewMislocated(sym, ref, nil).Message())
	assert.Equal(t, "Types for mod.x match:\n    builtins.int\n    builtins.int", NewMatch(sym, sym, nil, "").Message())
	assert.Equal(t, "custom", NewMismatch(sym, ref, nil, "custom").Message())

	nf := NewNotFound(sym, nil)
	assert.Nil(t, nf.Reference)
	assert.Empty(t, nf.ReferenceName)
	assert.False(t, nf.HasMessage())
}

func TestParseMismatch(t *testing.T) {
	for _, s := range []string{"mismatch", "not_found", "mislocated_symbol"} {
		got, err := ParseMismatch(s)
		require.NoError(t, err)
		assert.Equal(t, MatchResult(s), got)
	}

	for _, s := range []string{"match", "bogus", ""} {
		_, err := ParseMismatch(s)
		require.Error(t, err, s)
		assert.True(t, stuberr.HasCode(err, stuberr.InvalidExpectation))
		assert.Contains(t, err.Error(), `(Use one of "mismatch", "not_found", "mislocated_symbol")`)
	}
}
