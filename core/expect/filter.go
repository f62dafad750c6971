package expect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emenda-labs/stubcheck/core/compare"
)

// Finding is a result that survived filtering and fails the run.
type Finding struct {
	Result compare.ComparisonResult

	// Expected is the tabled outcome, empty when there was none.
	Expected compare.MatchResult

	Message string
}

// Outcome is the reconciled view of one comparison pass.
type Outcome struct {
	// Findings are failing results in discovery order.
	Findings []Finding

	// Suppressed are results whose outcome was expected.
	Suppressed []compare.ComparisonResult

	// Matched counts results that matched without any expectation.
	Matched int

	// Total is the number of compared symbols.
	Total int

	// Unprocessed lists tabled names that were never consumed, sorted.
	Unprocessed []string

	Success bool
}

// Failed is the number of failing symbols.
func (o Outcome) Failed() int {
	return len(o.Findings)
}

// UnprocessedMessage describes the unconsumed expectations, or returns
// an empty string when there are none.
func (o Outcome) UnprocessedMessage() string {
	if len(o.Unprocessed) == 0 {
		return ""
	}
	return fmt.Sprintf("Expected %q to fail, but it was not even processed.", strings.Join(o.Unprocessed, ", "))
}

// Filter reconciles results with the expectation table. A tabled entry
// is consumed by a result with a different outcome than match; entries
// left over fail the run.
func Filter(results []compare.ComparisonResult, table Table) Outcome {
	out := Outcome{Total: len(results)}
	consumed := make(map[string]bool, len(table))

	for _, res := range results {
		name := res.SymbolName
		expected, tabled := table[name]

		switch {
		case !tabled && res.MatchResult == compare.Match:
			out.Matched++

		case !tabled:
			out.Findings = append(out.Findings, Finding{Result: res, Message: res.Message()})

		case res.MatchResult == compare.Match:
			// left unconsumed so it is also listed as unprocessed
			out.Findings = append(out.Findings, Finding{
				Result:   res,
				Expected: expected,
				Message:  fmt.Sprintf("Expected %q to be %q but it matched.", name, string(expected)),
			})

		case res.MatchResult == expected:
			consumed[name] = true
			out.Suppressed = append(out.Suppressed, res)

		default:
			consumed[name] = true
			out.Findings = append(out.Findings, Finding{
				Result:   res,
				Expected: expected,
				Message: fmt.Sprintf("Expected %q to be %q but it was %q.",
					name, string(expected), string(res.MatchResult)),
			})
		}
	}

	for name := range table {
		if !consumed[name] {
			out.Unprocessed = append(out.Unprocessed, name)
		}
	}
	slices.Sort(out.Unprocessed)

	out.Success = len(out.Findings) == 0 && len(out.Unprocessed) == 0
	return out
}
