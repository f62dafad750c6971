package analyze

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/stubcheck/core/collect"
	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/driver"
	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
	"github.com/emenda-labs/stubcheck/drivers/declgraph"
	"github.com/emenda-labs/stubcheck/drivers/lattice"
	"github.com/emenda-labs/stubcheck/pkg/logging"
)

var testdata = filepath.Join("..", "..", "drivers", "declgraph", "testdata")

func testRequest() driver.BuildRequest {
	return driver.BuildRequest{
		HandwrittenPath: filepath.Join(testdata, "handwritten"),
		ReferencePath:   filepath.Join(testdata, "reference"),
	}
}

func testRunner() *Runner {
	d := declgraph.NewDriver(declgraph.Options{
		Decode: declgraph.DecodeOptions{Selection: declgraph.Selection{
			StubSuffix:     ".pyi",
			Exclude:        []string{"typeshed"},
			BuiltinsModule: collect.DefaultBuiltinsModule,
		}},
	})
	return NewRunner(d, lattice.Factory{}, logging.Discard())
}

func testOptions() Options {
	return Options{
		Collect: collect.Options{BuiltinsModule: collect.DefaultBuiltinsModule},
		Compare: compare.ComparatorOptions{SkipPrivateMissing: true},
	}
}

func TestCompare_Testdata(t *testing.T) {
	session, err := testRunner().Compare(context.Background(), testRequest(), testOptions())
	require.NoError(t, err)

	got := map[string]compare.MatchResult{}
	for _, r := range session.Results {
		got[r.SymbolName] = r.MatchResult
	}

	assert.Equal(t, map[string]compare.MatchResult{
		"mylib.f":             compare.Match,
		"mylib.g":             compare.Mismatch,
		"mylib.h":             compare.Match,
		"mylib.ClassA":        compare.Match,
		"mylib.ClassA.prop":   compare.Match,
		"mylib.ClassB":        compare.Match,
		"mylib.ClassB.method": compare.MislocatedSymbol,
		"mylib.Sub":           compare.Match,
		"mylib.Sub.run":       compare.MislocatedSymbol,
		"mylib.T":             compare.Match,
		"mylib.Alias":         compare.Match,
		"mylib.VERSION":       compare.Match,
		"mylib.convert":       compare.Match,
		"mylib.missing":       compare.NotFound,
	}, got)
	assert.Len(t, session.Handwritten, len(session.Results))

	for _, r := range session.Results {
		switch r.SymbolName {
		case "mylib.ClassB.method":
			assert.Equal(t, "mylib.ClassA.method", r.ReferenceName)
			assert.Equal(t, "mylib.ClassA", r.Data["found_class"])
		case "mylib.Sub.run":
			assert.Equal(t, "mylib.Base.run", r.ReferenceName)
			assert.Equal(t, "mylib.Sub", r.Data["expected_class"])
		}
	}
}

func TestCheck_Report(t *testing.T) {
	var out, diag bytes.Buffer
	ok, err := testRunner().Check(context.Background(), testRequest(), testOptions(), &out, &diag)
	require.NoError(t, err)

	assert.False(t, ok)
	assert.Equal(t, "Comparing failed on 4 of 14 stubs.\n", out.String())
	assert.Contains(t, diag.String(), "Types for mylib.g do not match:")
	assert.Contains(t, diag.String(), `Found symbol "mylib.ClassB.method" in different location "mylib.ClassA.method".`)
	assert.Contains(t, diag.String(), `Symbol "mylib.missing" not found in generated stubs`)
	assert.NotContains(t, diag.String(), "to fix.")
}

func writeExpectations(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expected.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheck_AllFailuresExpected(t *testing.T) {
	opts := testOptions()
	opts.ExpectationsPath = writeExpectations(t, `{
		"mylib.g": "mismatch",
		"mylib.ClassB.method": "mislocated_symbol",
		"mylib.Sub.run": "mislocated_symbol",
		"mylib.missing": "not_found"
	}`)

	var out, diag bytes.Buffer
	ok, err := testRunner().Check(context.Background(), testRequest(), opts, &out, &diag)
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, "Comparing failed on 0 of 14 stubs.\n", out.String())
	assert.Empty(t, diag.String())
}

func TestCheck_ExpectedFailureThatMatched(t *testing.T) {
	opts := testOptions()
	opts.ExpectationsPath = writeExpectations(t, `{
		"mylib.g": "mismatch",
		"mylib.ClassB.method": "mislocated_symbol",
		"mylib.Sub.run": "mislocated_symbol",
		"mylib.missing": "not_found",
		"mylib.h": "not_found"
	}`)

	var out, diag bytes.Buffer
	ok, err := testRunner().Check(context.Background(), testRequest(), opts, &out, &diag)
	require.NoError(t, err)

	assert.False(t, ok)
	assert.Contains(t, diag.String(), `Expected "mylib.h" to be "not_found" but it matched.`)
	assert.Contains(t, diag.String(), `Expected "mylib.h" to fail, but it was not even processed.`)
	assert.Contains(t, diag.String(), `Check "`+opts.ExpectationsPath+`" to fix.`)
}

func TestCheck_InvalidExpectationsAbortBeforeBuild(t *testing.T) {
	opts := testOptions()
	opts.ExpectationsPath = writeExpectations(t, `{"mylib.g": "broken"}`)

	a := &fakeAnalyzer{}
	var out, diag bytes.Buffer
	_, err := NewRunner(a, lattice.Factory{}, logging.Discard()).Check(context.Background(), testRequest(), opts, &out, &diag)

	assert.True(t, stuberr.HasCode(err, stuberr.InvalidExpectation))
	assert.False(t, a.called)
	assert.Empty(t, out.String())
}

type fakeAnalyzer struct {
	build  driver.Build
	err    error
	called bool
}

func (f *fakeAnalyzer) Build(ctx context.Context, req driver.BuildRequest) (driver.Build, error) {
	f.called = true
	return f.build, f.err
}

func TestCompare_BuildError(t *testing.T) {
	boom := stuberr.New(stuberr.BuildFailed, "boom")
	r := NewRunner(&fakeAnalyzer{err: boom}, lattice.Factory{}, logging.Discard())

	_, err := r.Compare(context.Background(), testRequest(), testOptions())
	assert.True(t, errors.Is(err, boom))
}

func TestCompare_UnsupportedConstructAborts(t *testing.T) {
	tv := func() *symbols.Symbol {
		return &symbols.Symbol{
			Kind:     symbols.KindTypeVar,
			FullName: "lib.T",
			TypeVar:  &symbols.TypeVarInfo{Values: []*symbols.Type{symbols.Instance("builtins.int")}},
		}
	}
	graph := func(sym *symbols.Symbol) *symbols.Graph {
		mod := &symbols.Symbol{Kind: symbols.KindModule, FullName: "lib", Path: "lib.pyi",
			Names: []symbols.Entry{{Name: "T", Scope: symbols.ScopeGlobal, Public: true, Node: sym}}}
		return &symbols.Graph{Modules: []*symbols.Symbol{mod}, Index: map[string]*symbols.Symbol{"lib": mod, "lib.T": sym}}
	}

	a := &fakeAnalyzer{build: driver.Build{Handwritten: graph(tv()), Reference: graph(tv())}}
	_, err := NewRunner(a, lattice.Factory{}, logging.Discard()).Compare(context.Background(), testRequest(), testOptions())
	assert.True(t, stuberr.HasCode(err, stuberr.UnsupportedConstruct))
}

func TestCompare_ContractViolationAborts(t *testing.T) {
	bad := &symbols.Symbol{Kind: "macro", FullName: "lib.m"}
	mod := &symbols.Symbol{Kind: symbols.KindModule, FullName: "lib",
		Names: []symbols.Entry{{Name: "m", Scope: symbols.ScopeGlobal, Public: true, Node: bad}}}
	g := &symbols.Graph{Modules: []*symbols.Symbol{mod}}

	a := &fakeAnalyzer{build: driver.Build{Handwritten: g, Reference: &symbols.Graph{}}}
	_, err := NewRunner(a, lattice.Factory{}, logging.Discard()).Compare(context.Background(), testRequest(), testOptions())
	assert.True(t, stuberr.HasCode(err, stuberr.ContractViolation))
}

func TestLocate(t *testing.T) {
	results, err := testRunner().Locate(context.Background(), testRequest(), testOptions())
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		names = append(names, r.SymbolName+":"+string(r.MatchResult))
	}
	assert.Equal(t, []string{
		"mylib.ClassB.method:mislocated_symbol",
		"mylib.Sub.run:mislocated_symbol",
		"mylib.missing:not_found",
	}, names)
}

func TestPairs(t *testing.T) {
	r := testRunner()

	pairs, err := r.Pairs(context.Background(), testRequest(), testOptions(), "mylib.Sub.run", "mylib.missing")
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, "mylib.Sub.run", pairs[0].Handwritten.FullName)
	require.NotNil(t, pairs[0].Reference)
	assert.Equal(t, "mylib.Base.run", pairs[0].Reference.FullName)
	assert.True(t, pairs[0].Lookup.Mislocated)

	assert.Nil(t, pairs[1].Reference)

	_, err = r.Pairs(context.Background(), testRequest(), testOptions(), "mylib.nope")
	assert.True(t, stuberr.HasCode(err, stuberr.InvalidInvocation))
}
