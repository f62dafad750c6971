package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/stubcheck/core/stuberr"
)

// CommonOptions holds the flags shared by commands that analyze stubs.
type CommonOptions struct {
	Config      string
	Reference   string
	Handwritten string
	Verbose     int
	Quiet       bool
}

func addCommonFlags(cmd *cobra.Command, opts *CommonOptions) {
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Path to the stubcheck config file (required)")
	cmd.Flags().StringVarP(&opts.Reference, "reference", "r", "", "Reference stubs: graph file, directory, .zip bundle or URL (default from config)")
	cmd.Flags().CountVarP(&opts.Verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Disable logging")

	cmd.MarkFlagRequired("config")
}

func validateCommonFlags(opts CommonOptions) error {
	if opts.Config == "" {
		return stuberr.New(stuberr.InvalidInvocation, "--config is required")
	}
	if err := checkExists("config file", opts.Config); err != nil {
		return err
	}
	if opts.Handwritten == "" {
		return stuberr.New(stuberr.InvalidInvocation, "handwritten stubs path is required")
	}
	if err := checkExists("handwritten stubs path", opts.Handwritten); err != nil {
		return err
	}
	if opts.Verbose > 0 && opts.Quiet {
		return stuberr.New(stuberr.InvalidInvocation, "--verbose and --quiet are mutually exclusive")
	}
	return nil
}

func checkExists(what, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return stuberr.New(stuberr.InvalidInvocation, "%s does not exist: %s", what, path)
		}
		return stuberr.Wrap(stuberr.InvalidInvocation, err, "cannot access %s", what)
	}
	return nil
}
