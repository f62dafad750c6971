package driver

import (
	"context"

	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/symbols"
)

// BuildRequest names the two stub trees of a run.
type BuildRequest struct {
	// HandwrittenPath is the tree under test.
	HandwrittenPath string

	// ReferencePath is the tree it is checked against. It may be a local
	// path or a URL, depending on the analyzer.
	ReferencePath string
}

// Build is the result of analyzing both trees.
type Build struct {
	Handwritten *symbols.Graph
	Reference   *symbols.Graph
}

// Analyzer is the interface a type analyzer must implement to feed the
// comparison engine.
type Analyzer interface {
	// Build produces declaration graphs for both trees. Unreadable or
	// invalid input fails with a stuberr.BuildFailed error.
	Build(ctx context.Context, req BuildRequest) (Build, error)
}

// OracleFactory creates the type oracle for a finished build. The
// oracle may consult both graphs, e.g. for class hierarchies.
type OracleFactory interface {
	Oracle(b Build) compare.Oracle
}
