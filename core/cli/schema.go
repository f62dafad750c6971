package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/stubcheck/core/expect"
)

// NewSchemaCmd creates the "schema" subcommand.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of expected mismatches files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := expect.Schema()
			if err != nil {
				return fmt.Errorf("generating schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
