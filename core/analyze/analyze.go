// Package analyze runs a complete stub check: build, collect, compare,
// filter and report.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emenda-labs/stubcheck/core/collect"
	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/driver"
	"github.com/emenda-labs/stubcheck/core/expect"
	"github.com/emenda-labs/stubcheck/core/lookup"
	"github.com/emenda-labs/stubcheck/core/report"
	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// Options controls a run.
type Options struct {
	Collect collect.Options
	Compare compare.ComparatorOptions
	Report  report.Options

	// ExpectationsPath is an optional expected mismatches file.
	ExpectationsPath string
}

// Runner wires an analyzer and an oracle to the comparison engine.
type Runner struct {
	analyzer driver.Analyzer
	oracles  driver.OracleFactory
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(analyzer driver.Analyzer, oracles driver.OracleFactory, logger *slog.Logger) *Runner {
	return &Runner{analyzer: analyzer, oracles: oracles, logger: logger}
}

// Session is the state of a finished comparison pass.
type Session struct {
	Build      driver.Build
	Comparator *compare.Comparator

	// Handwritten are the collected handwritten symbols in order.
	Handwritten []*symbols.Symbol
	Results     []compare.ComparisonResult
}

// Compare builds both trees and compares every handwritten symbol.
func (r *Runner) Compare(ctx context.Context, req driver.BuildRequest, opts Options) (*Session, error) {
	b, err := r.analyzer.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	handwritten, err := collect.CollectGraph(b.Handwritten, opts.Collect)
	if err != nil {
		return nil, fmt.Errorf("collecting handwritten stubs: %w", err)
	}
	reference, err := collect.CollectGraph(b.Reference, opts.Collect)
	if err != nil {
		return nil, fmt.Errorf("collecting reference stubs: %w", err)
	}
	r.logger.Info("collected symbols", "handwritten", len(handwritten), "reference", len(reference))

	engine := compare.NewEngine(r.oracles.Oracle(b))
	comparator := compare.NewComparator(engine, reference, opts.Compare)

	results, err := comparator.Compare(handwritten)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("comparison finished", "results", len(results))

	return &Session{
		Build:       b,
		Comparator:  comparator,
		Handwritten: handwritten,
		Results:     results,
	}, nil
}

// Check runs a full check and renders the report to out and diag. It
// returns whether the stubs passed. Expectations are loaded before any
// analysis so a malformed file aborts early.
func (r *Runner) Check(ctx context.Context, req driver.BuildRequest, opts Options, out, diag io.Writer) (bool, error) {
	table, err := expect.Load(opts.ExpectationsPath, r.logger)
	if err != nil {
		return false, err
	}

	session, err := r.Compare(ctx, req, opts)
	if err != nil {
		return false, err
	}

	outcome := expect.Filter(session.Results, table)
	r.logger.Info("filtered results",
		"total", outcome.Total, "failed", outcome.Failed(),
		"suppressed", len(outcome.Suppressed), "unprocessed", len(outcome.Unprocessed))

	ropts := opts.Report
	ropts.ExpectationsPath = opts.ExpectationsPath
	return report.New(out, diag, ropts).Report(outcome)
}

// Locate reports handwritten symbols the reference does not have at the
// same qualified name. Types are not compared.
func (r *Runner) Locate(ctx context.Context, req driver.BuildRequest, opts Options) ([]compare.ComparisonResult, error) {
	b, err := r.analyzer.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	handwritten, err := collect.CollectGraph(b.Handwritten, opts.Collect)
	if err != nil {
		return nil, fmt.Errorf("collecting handwritten stubs: %w", err)
	}
	reference, err := collect.CollectGraph(b.Reference, opts.Collect)
	if err != nil {
		return nil, fmt.Errorf("collecting reference stubs: %w", err)
	}

	locator := lookup.NewLocator(reference)
	var out []compare.ComparisonResult
	for _, sym := range handwritten {
		found := locator.Lookup(sym)
		switch {
		case found.Mislocated:
			out = append(out, compare.NewMislocated(sym, found.Symbol, found.Data()))
		case found.Found():
		case opts.Compare.SkipPrivateMissing && compare.IsPrivateData(sym):
		default:
			out = append(out, compare.NewNotFound(sym, nil))
		}
	}
	r.logger.Info("located symbols", "handwritten", len(handwritten), "unlocated", len(out))
	return out, nil
}

// Pair is a handwritten symbol with its reference counterpart.
type Pair struct {
	Build       driver.Build
	Handwritten *symbols.Symbol

	// Reference is nil when the symbol has no counterpart.
	Reference *symbols.Symbol
	Lookup    lookup.Result
}

// Pairs finds each named handwritten symbol and its reference
// counterpart, following mislocations.
func (r *Runner) Pairs(ctx context.Context, req driver.BuildRequest, opts Options, names ...string) ([]Pair, error) {
	b, err := r.analyzer.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	reference, err := collect.CollectGraph(b.Reference, opts.Collect)
	if err != nil {
		return nil, fmt.Errorf("collecting reference stubs: %w", err)
	}
	locator := lookup.NewLocator(reference)

	pairs := make([]Pair, 0, len(names))
	for _, name := range names {
		sym := b.Handwritten.Get(name)
		if sym == nil {
			return nil, stuberr.New(stuberr.InvalidInvocation, "symbol %q not found in handwritten stubs", name)
		}
		found := locator.Lookup(sym)
		if !found.Found() {
			// modules and builtins are not collected
			found.Symbol = b.Reference.Get(name)
		}
		pairs = append(pairs, Pair{Build: b, Handwritten: sym, Reference: found.Symbol, Lookup: found})
	}
	return pairs, nil
}
