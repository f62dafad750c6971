package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emenda-labs/stubcheck/core/analyze"
	"github.com/emenda-labs/stubcheck/core/cli"
	"github.com/emenda-labs/stubcheck/core/collect"
	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/driver"
	"github.com/emenda-labs/stubcheck/core/report"
	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/drivers/declgraph"
	"github.com/emenda-labs/stubcheck/drivers/lattice"
	"github.com/emenda-labs/stubcheck/pkg/bundle"
	"github.com/emenda-labs/stubcheck/pkg/config"
	"github.com/emenda-labs/stubcheck/pkg/logging"
)

const version = "0.1.0"

// session is everything a command needs after flags and config are read.
type session struct {
	logger  *slog.Logger
	runner  *analyze.Runner
	request driver.BuildRequest
	options analyze.Options
}

func setup(opts cli.CommonOptions) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, stuberr.Wrap(stuberr.InvalidConfig, err, "loading configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, stuberr.Wrap(stuberr.InvalidConfig, err, "invalid configuration %s", opts.Config)
	}

	level := logging.LevelFromString(cfg.Logging.Level)
	if opts.Verbose > 0 || opts.Quiet {
		level = logging.LevelFromVerbosity(opts.Verbose, opts.Quiet)
	}
	logger, err := logging.New(os.Stderr, cfg.Logging.Format, level)
	if err != nil {
		return nil, stuberr.Wrap(stuberr.InvalidConfig, err, "configuring logging")
	}

	reference := opts.Reference
	if reference == "" {
		reference = cfg.ReferenceLocation()
	}
	logger.Debug("resolved inputs", "config", cfg.File(), "handwritten", opts.Handwritten, "reference", reference)

	bundles := bundle.NewClient(
		bundle.WithMirrors(cfg.Reference.Mirrors...),
		bundle.WithTimeout(cfg.Reference.Timeout),
		bundle.WithUserAgent("stubcheck/"+version),
	)
	graphs := declgraph.NewDriver(declgraph.Options{
		Decode: declgraph.DecodeOptions{
			FormatVersion: cfg.Analyzer.FormatVersion,
			Selection: declgraph.Selection{
				StubSuffix:     cfg.Analyzer.StubSuffix,
				Exclude:        cfg.Analyzer.Exclude,
				BuiltinsModule: cfg.Analyzer.BuiltinsModule,
			},
		},
		Bundles: bundles,
		Logger:  logger,
	})

	return &session{
		logger: logger,
		runner: analyze.NewRunner(graphs, lattice.Factory{}, logger),
		request: driver.BuildRequest{
			HandwrittenPath: opts.Handwritten,
			ReferencePath:   reference,
		},
		options: analyze.Options{
			Collect: collect.Options{BuiltinsModule: cfg.Analyzer.BuiltinsModule},
			Compare: compare.ComparatorOptions{SkipPrivateMissing: cfg.Compare.SkipPrivateMissing},
			Report: report.Options{
				Format:         cfg.Report.Format,
				ShowSuppressed: cfg.Report.ShowSuppressed,
			},
		},
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCheck := func(ctx context.Context, opts cli.CheckOptions) (bool, error) {
		s, err := setup(opts.CommonOptions)
		if err != nil {
			return false, err
		}

		runOpts := s.options
		runOpts.ExpectationsPath = opts.Expectations
		if opts.Format != "" {
			runOpts.Report.Format = opts.Format
		}
		if opts.ShowSuppressed {
			runOpts.Report.ShowSuppressed = true
		}

		return s.runner.Check(ctx, s.request, runOpts, os.Stdout, os.Stderr)
	}

	runLocate := func(ctx context.Context, opts cli.LocateOptions) (int, error) {
		s, err := setup(opts.CommonOptions)
		if err != nil {
			return 0, err
		}

		results, err := s.runner.Locate(ctx, s.request, s.options)
		if err != nil {
			return 0, err
		}
		for _, r := range results {
			if r.MatchResult == compare.MislocatedSymbol {
				fmt.Printf("%s\t%s\t%s\n", r.SymbolName, r.MatchResult, r.ReferenceName)
				continue
			}
			fmt.Printf("%s\t%s\n", r.SymbolName, r.MatchResult)
		}
		return len(results), nil
	}

	runDump := func(ctx context.Context, opts cli.DumpOptions) error {
		s, err := setup(opts.CommonOptions)
		if err != nil {
			return err
		}

		pairs, err := s.runner.Pairs(ctx, s.request, s.options, opts.Names...)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			doc := declgraph.Pair{
				Handwritten: declgraph.Fragment(p.Build.Handwritten.Format, p.Handwritten),
				Reference:   declgraph.Fragment(p.Build.Reference.Format, p.Reference),
			}
			if err := declgraph.Encode(os.Stdout, doc); err != nil {
				return fmt.Errorf("writing %s: %w", p.Handwritten.FullName, err)
			}
		}
		return nil
	}

	root := cli.NewRootCmd(version)
	root.AddCommand(
		cli.NewCheckCmd(runCheck),
		cli.NewLocateCmd(runLocate),
		cli.NewDumpCmd(runDump),
		cli.NewSchemaCmd(),
	)

	err := root.ExecuteContext(ctx)
	if msg := cli.Message(err); msg != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
