package compare

import (
	"github.com/emenda-labs/stubcheck/core/lookup"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// ComparatorOptions tunes the comparison pass.
type ComparatorOptions struct {
	// SkipPrivateMissing drops not-found results for aliases, type
	// variables and variables named with exactly one leading underscore.
	SkipPrivateMissing bool
}

// Comparator checks handwritten symbols against a reference set.
type Comparator struct {
	engine  *Engine
	locator *lookup.Locator
	opts    ComparatorOptions
}

// NewComparator indexes reference and prepares a comparison pass.
func NewComparator(engine *Engine, reference []*symbols.Symbol, opts ComparatorOptions) *Comparator {
	return &Comparator{
		engine:  engine,
		locator: lookup.NewLocator(reference),
		opts:    opts,
	}
}

// Locator exposes the reference index.
func (c *Comparator) Locator() *lookup.Locator {
	return c.locator
}

// Compare produces one result per handwritten symbol, in input order.
// Skipped private symbols produce no result. Unsupported or invalid
// declarations abort the pass.
func (c *Comparator) Compare(handwritten []*symbols.Symbol) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(handwritten))
	for _, sym := range handwritten {
		res, ok, err := c.Check(sym)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, res)
		}
	}
	return results, nil
}

// Check compares a single handwritten symbol. ok is false when the
// symbol was skipped.
func (c *Comparator) Check(sym *symbols.Symbol) (res ComparisonResult, ok bool, err error) {
	found := c.locator.Lookup(sym)

	switch {
	case found.Mislocated:
		return NewMislocated(sym, found.Symbol, found.Data()), true, nil

	case found.Found():
		res, err := c.engine.CompareSymbols(sym, found.Symbol)
		if err != nil {
			return ComparisonResult{}, false, err
		}
		return res, true, nil

	case c.opts.SkipPrivateMissing && IsPrivateData(sym):
		// assumed private, no stub coverage expected
		return ComparisonResult{}, false, nil
	}

	return NewNotFound(sym, nil), true, nil
}

// IsPrivateData reports whether sym is an alias, type variable or
// variable whose name starts with exactly one underscore.
func IsPrivateData(sym *symbols.Symbol) bool {
	switch sym.Kind {
	case symbols.KindTypeAlias, symbols.KindTypeVar, symbols.KindVariable:
	default:
		return false
	}
	name := sym.Name()
	return len(name) > 1 && name[0] == '_' && name[1] != '_'
}
