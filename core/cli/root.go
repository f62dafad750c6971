package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level stubcheck command.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubcheck",
		Short: "Handwritten stub checker",
		Long: "Stubcheck compares handwritten Python stubs against reference stubs " +
			"and reports missing, misplaced or incompatible declarations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stubcheck version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stubcheck %s\n", version)
			return err
		},
	}
}
