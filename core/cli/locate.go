package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// LocateOptions holds the parsed flags for "locate".
type LocateOptions struct {
	CommonOptions
}

// LocateRunFunc handles "locate" and returns the number of symbols that
// are missing or misplaced in the reference.
type LocateRunFunc func(ctx context.Context, opts LocateOptions) (int, error)

// NewLocateCmd creates the "locate" subcommand.
func NewLocateCmd(runFunc LocateRunFunc) *cobra.Command {
	var opts LocateOptions

	cmd := &cobra.Command{
		Use:   "locate -c CONFIG [-r REFERENCE] HANDWRITTEN",
		Short: "List handwritten symbols missing or misplaced in the reference",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Handwritten = args[0]
			return validateCommonFlags(opts.CommonOptions)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runFunc(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if n > 0 {
				return Failed()
			}
			return nil
		},
	}

	addCommonFlags(cmd, &opts.CommonOptions)

	return cmd
}
