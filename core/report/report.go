// Package report renders filtered comparison outcomes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/expect"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Options controls rendering.
type Options struct {
	Format string

	// ExpectationsPath is named in fix hints when set.
	ExpectationsPath string

	// ShowSuppressed also prints results hidden by expectations.
	ShowSuppressed bool
}

// Reporter writes the summary to out and per-symbol diagnostics to diag.
type Reporter struct {
	out   io.Writer
	diag  io.Writer
	opts  Options
	newID func() string
}

// New creates a Reporter.
func New(out, diag io.Writer, opts Options) *Reporter {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &Reporter{
		out:   out,
		diag:  diag,
		opts:  opts,
		newID: uuid.NewString,
	}
}

// Report renders o and returns whether the run succeeded.
func (r *Reporter) Report(o expect.Outcome) (bool, error) {
	switch r.opts.Format {
	case FormatText:
		return o.Success, r.text(o)
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.document(o)); err != nil {
			return false, fmt.Errorf("encoding report: %w", err)
		}
		return o.Success, nil
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(r.document(o)); err != nil {
			return false, fmt.Errorf("encoding report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return false, fmt.Errorf("encoding report: %w", err)
		}
		return o.Success, nil
	}
	return false, fmt.Errorf("unknown report format %q (use one of %s)", r.opts.Format, strings.Join(Formats, ", "))
}

func (r *Reporter) text(o expect.Outcome) error {
	w := &errWriter{w: r.diag}

	for _, f := range o.Findings {
		w.printf("\n%s\n", f.Message)
		r.hint(w)
	}

	if msg := o.UnprocessedMessage(); msg != "" {
		w.printf("\n%s\n", msg)
		r.hint(w)
	}

	if r.opts.ShowSuppressed {
		for _, s := range o.Suppressed {
			w.printf("\n(expected) %s\n", s.Message())
		}
	}

	if w.err != nil {
		return fmt.Errorf("writing diagnostics: %w", w.err)
	}

	if _, err := fmt.Fprintf(r.out, "Comparing failed on %d of %d stubs.\n", o.Failed(), o.Total); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func (r *Reporter) hint(w *errWriter) {
	if r.opts.ExpectationsPath != "" {
		w.printf("Check %q to fix.\n", r.opts.ExpectationsPath)
	}
}

// Document is the structured form of a report.
type Document struct {
	RunID        string            `json:"run_id" yaml:"run_id"`
	Success      bool              `json:"success" yaml:"success"`
	Total        int               `json:"total" yaml:"total"`
	Failed       int               `json:"failed" yaml:"failed"`
	Matched      int               `json:"matched" yaml:"matched"`
	Expectations string            `json:"expectations,omitempty" yaml:"expectations,omitempty"`
	Findings     []FindingDocument `json:"findings" yaml:"findings"`
	Suppressed   []FindingDocument `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Unprocessed  []string          `json:"unprocessed,omitempty" yaml:"unprocessed,omitempty"`
}

// FindingDocument describes one symbol in a structured report.
type FindingDocument struct {
	Symbol        string         `json:"symbol" yaml:"symbol"`
	Result        string         `json:"result" yaml:"result"`
	Expected      string         `json:"expected,omitempty" yaml:"expected,omitempty"`
	Message       string         `json:"message" yaml:"message"`
	SymbolType    string         `json:"symbol_type,omitempty" yaml:"symbol_type,omitempty"`
	Reference     string         `json:"reference,omitempty" yaml:"reference,omitempty"`
	ReferenceType string         `json:"reference_type,omitempty" yaml:"reference_type,omitempty"`
	Data          map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

func (r *Reporter) document(o expect.Outcome) Document {
	doc := Document{
		RunID:        r.newID(),
		Success:      o.Success,
		Total:        o.Total,
		Failed:       o.Failed(),
		Matched:      o.Matched,
		Expectations: r.opts.ExpectationsPath,
		Findings:     make([]FindingDocument, 0, len(o.Findings)),
		Unprocessed:  o.Unprocessed,
	}
	for _, f := range o.Findings {
		fd := findingDocument(f.Result, f.Message)
		fd.Expected = string(f.Expected)
		doc.Findings = append(doc.Findings, fd)
	}
	for _, s := range o.Suppressed {
		doc.Suppressed = append(doc.Suppressed, findingDocument(s, s.Message()))
	}
	return doc
}

func findingDocument(res compare.ComparisonResult, message string) FindingDocument {
	return FindingDocument{
		Symbol:        res.SymbolName,
		Result:        string(res.MatchResult),
		Message:       message,
		SymbolType:    res.SymbolType,
		Reference:     res.ReferenceName,
		ReferenceType: res.ReferenceType,
		Data:          res.Data,
	}
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
