package compare

import (
	"fmt"
	"strings"

	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// MatchResult is the outcome of checking one handwritten symbol.
type MatchResult string

const (
	Match            MatchResult = "match"
	Mismatch         MatchResult = "mismatch"
	NotFound         MatchResult = "not_found"
	MislocatedSymbol MatchResult = "mislocated_symbol"
)

// MatchResults lists every outcome in declaration order.
var MatchResults = []MatchResult{Match, Mismatch, NotFound, MislocatedSymbol}

// ParseMismatch parses an expected failure outcome. "match" and unknown
// values are rejected with a message listing the valid alternatives.
func ParseMismatch(s string) (MatchResult, error) {
	r := MatchResult(s)
	switch r {
	case Mismatch, NotFound, MislocatedSymbol:
		return r, nil
	}

	var valid []string
	for _, m := range MatchResults {
		if m != Match {
			valid = append(valid, fmt.Sprintf("%q", string(m)))
		}
	}
	return "", stuberr.New(stuberr.InvalidExpectation,
		"%q is not a valid mismatch type. (Use one of %s)", s, strings.Join(valid, ", ")).
		WithDetails(valid)
}

// ComparisonResult is the immutable outcome of comparing a handwritten
// symbol with its reference.
type ComparisonResult struct {
	MatchResult MatchResult

	// Symbol is the handwritten symbol that was checked.
	Symbol *symbols.Symbol

	// Reference is nil iff MatchResult is NotFound.
	Reference *symbols.Symbol

	SymbolName    string
	SymbolType    string
	ReferenceName string
	ReferenceType string

	Data map[string]any

	message string
}

func newResult(match MatchResult, sym, ref *symbols.Symbol, data map[string]any, message string) ComparisonResult {
	r := ComparisonResult{
		MatchResult: match,
		Symbol:      sym,
		Reference:   ref,
		SymbolName:  sym.FullName,
		SymbolType:  TypeInfo(sym),
		Data:        data,
		message:     message,
	}
	if ref != nil {
		r.ReferenceName = ref.FullName
		r.ReferenceType = TypeInfo(ref)
	}
	return r
}

// NewMatch creates a successful result.
func NewMatch(sym, ref *symbols.Symbol, data map[string]any, message string) ComparisonResult {
	return newResult(Match, sym, ref, data, message)
}

// NewMismatch creates a result for incompatible symbols.
func NewMismatch(sym, ref *symbols.Symbol, data map[string]any, message string) ComparisonResult {
	return newResult(Mismatch, sym, ref, data, message)
}

// NewNotFound creates a result for a symbol without reference counterpart.
func NewNotFound(sym *symbols.Symbol, data map[string]any) ComparisonResult {
	return newResult(NotFound, sym, nil, data, "")
}

// NewMislocated creates a result for a symbol found at a different
// location in the reference class hierarchy.
func NewMislocated(sym, ref *symbols.Symbol, data map[string]any) ComparisonResult {
	return newResult(MislocatedSymbol, sym, ref, data, "")
}

// HasMessage reports whether a custom message was set.
func (r ComparisonResult) HasMessage() bool {
	return r.message != ""
}

// Message is the human readable result of the comparison.
func (r ComparisonResult) Message() string {
	if r.message != "" {
		return r.message
	}

	switch r.MatchResult {
	case Match:
		return strings.Join([]string{
			fmt.Sprintf("Types for %s match:", r.SymbolName),
			"    " + r.SymbolType,
			"    " + r.ReferenceType,
		}, "\n")
	case Mismatch:
		return strings.Join([]string{
			fmt.Sprintf("Types for %s do not match:", r.SymbolName),
			"    " + r.SymbolType,
			"    " + r.ReferenceType,
		}, "\n")
	case NotFound:
		return fmt.Sprintf("Symbol %q not found in generated stubs", r.SymbolName)
	case MislocatedSymbol:
		return fmt.Sprintf("Found symbol %q in different location %q.", r.SymbolName, r.ReferenceName)
	}
	return fmt.Sprintf("Unknown result %q for %s", r.MatchResult, r.SymbolName)
}

// TypeInfo renders the type of sym as a human readable string.
func TypeInfo(sym *symbols.Symbol) string {
	switch sym.Kind {
	case symbols.KindTypeAlias:
		return sym.Target.String()
	case symbols.KindTypeVar:
		return FormatTypeVar(sym)
	case symbols.KindClass:
		return fmt.Sprintf("Class(%s)", sym.FullName)
	case symbols.KindDecorated:
		if sym.Decorated != nil && sym.Decorated.Func != nil {
			return sym.Decorated.Func.Type.String()
		}
		return "None"
	}
	return sym.Type.String()
}

// FormatTypeVar renders a type variable as it would be declared.
func FormatTypeVar(sym *symbols.Symbol) string {
	name := sym.Name()
	var b strings.Builder
	fmt.Fprintf(&b, "%s = TypeVar('%s'", name, name)

	if tv := sym.TypeVar; tv != nil {
		for _, v := range tv.Values {
			b.WriteString(", ")
			b.WriteString(v.String())
		}
		if tv.UpperBound != nil && !isObject(tv.UpperBound) {
			b.WriteString(", bound=")
			b.WriteString(tv.UpperBound.String())
		}
		switch tv.Variance {
		case symbols.Covariant:
			b.WriteString(", covariant=True")
		case symbols.Contravariant:
			b.WriteString(", contravariant=True")
		}
	}

	b.WriteString(")")
	return b.String()
}

func isObject(t *symbols.Type) bool {
	return t.Kind == symbols.TypeInstance && t.Name == "builtins.object"
}
