package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// DumpOptions holds the parsed flags for "dump".
type DumpOptions struct {
	CommonOptions

	Names []string
}

// DumpRunFunc handles "dump".
type DumpRunFunc func(ctx context.Context, opts DumpOptions) error

// NewDumpCmd creates the "dump" subcommand.
func NewDumpCmd(runFunc DumpRunFunc) *cobra.Command {
	var opts DumpOptions

	cmd := &cobra.Command{
		Use:   "dump -c CONFIG [-r REFERENCE] HANDWRITTEN NAME...",
		Short: "Print a handwritten symbol and its reference counterpart",
		Long: "Print the declaration graph fragments of the named handwritten " +
			"symbols next to the reference symbols they are compared with.",
		Args: cobra.MinimumNArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Handwritten = args[0]
			opts.Names = args[1:]
			return validateCommonFlags(opts.CommonOptions)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	addCommonFlags(cmd, &opts.CommonOptions)

	return cmd
}
