package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/stubcheck/core/report"
	"github.com/emenda-labs/stubcheck/core/stuberr"
)

// CheckOptions holds the parsed flags for "check".
type CheckOptions struct {
	CommonOptions

	Expectations   string
	Format         string
	ShowSuppressed bool
}

// CheckRunFunc is the function signature for the check command handler.
// It is injected by the wiring layer (cmd/stubcheck/main.go) and returns
// whether the stubs passed.
type CheckRunFunc func(ctx context.Context, opts CheckOptions) (bool, error)

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd(runFunc CheckRunFunc) *cobra.Command {
	var opts CheckOptions

	cmd := &cobra.Command{
		Use:   "check -c CONFIG [-e EXPECTATIONS] [-r REFERENCE] HANDWRITTEN",
		Short: "Compare handwritten stubs against reference stubs",
		Long: "Compare every public declaration of the handwritten stubs with its " +
			"reference counterpart. Exits 1 when any unexpected difference is found.",
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Handwritten = args[0]
			return validateCheckFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := runFunc(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if !ok {
				return Failed()
			}
			return nil
		},
	}

	addCommonFlags(cmd, &opts.CommonOptions)
	cmd.Flags().StringVarP(&opts.Expectations, "expected-mismatches", "e", "", "JSON or YAML file of expected mismatches")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Report format: "+strings.Join(report.Formats, ", ")+" (default from config)")
	cmd.Flags().BoolVar(&opts.ShowSuppressed, "show-expected", false, "Also print differences listed as expected")

	return cmd
}

func validateCheckFlags(opts CheckOptions) error {
	if err := validateCommonFlags(opts.CommonOptions); err != nil {
		return err
	}
	if opts.Format != "" && !report.ValidFormat(opts.Format) {
		return stuberr.New(stuberr.InvalidInvocation, "unknown --format %q (use one of %s)",
			opts.Format, strings.Join(report.Formats, ", "))
	}
	return nil
}
