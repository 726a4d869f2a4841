package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rio "github.com/matzehuels/reana/pkg/io"
	"github.com/matzehuels/reana/pkg/observability"
	"github.com/matzehuels/reana/pkg/pipeline"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	model  modelFlags
	cache  cacheFlags
	flags  pipeline.Options // values of the run flags; applied only when set
	output string           // results JSON file
	store  string           // run store: directory or mongodb:// URI
	quiet  bool             // suppress the per-configuration report
	stats  bool             // print collector statistics
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze [graph.json]",
		Short: "Compute the reliability of product line configurations",
		Long: `Analyze computes the reliability of the configurations of a product line.

Strategies:
  product                 model-check every product on its own
  family                  one symbolic model for the whole family
  family-product          family model, every product solved eagerly
  feature-family          one model check per component, one family formula
  feature-product         one model check per component, numeric fold per product
  feature-family-product  feature-based with reuse of shared sub-results (default)

Without a target option every valid configuration is analyzed.`,
		Example: `  reana analyze bsn.json -c Root,Sensor
  reana analyze bsn.json --all-configurations -s feature-family --stats
  reana analyze bsn.json --configurations-file products.txt -m parallel -o results.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := opts.model.baseOptions(args)
			if err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), cmd.OutOrStdout(), mergeRunFlags(cmd, base, opts.flags), &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.flags.Strategy, "strategy", "s", pipeline.DefaultStrategy, "analysis strategy")
	f.StringVarP(&opts.flags.Mode, "mode", "m", pipeline.DefaultMode, "iteration mode: sequential, parallel")
	f.IntVar(&opts.flags.Workers, "workers", 0, "parallel workers (default: number of CPUs)")
	f.StringArrayVarP(&opts.flags.Configurations, "configuration", "c", nil, "comma-separated configuration to analyze (repeatable)")
	f.StringVar(&opts.flags.ConfigurationsFile, "configurations-file", "", "file with one comma-separated configuration per line")
	f.BoolVar(&opts.flags.AllConfigurations, "all-configurations", false, "analyze every valid configuration")
	f.StringVar(&opts.flags.DumpFeatureModel, "dump-feature-model", "", "write the feature model decision diagram (DOT) to a file")
	f.BoolVar(&opts.flags.Persist, "persist", false, "store the run report")
	f.StringVar(&opts.store, "store", os.Getenv("REANA_STORE"), "run store: directory or mongodb:// URI (default: ~/.local/share/reana/runs)")
	f.StringVarP(&opts.output, "output", "o", "", "write results as JSON to a file")
	f.BoolVar(&opts.quiet, "suppress-report", false, "do not print the per-configuration report")
	f.BoolVar(&opts.stats, "stats", false, "print timing, formula, memory and reuse statistics")
	cmd.MarkFlagsMutuallyExclusive("configuration", "configurations-file", "all-configurations")
	opts.model.register(cmd)
	opts.cache.register(cmd)

	return cmd
}

// mergeRunFlags overrides base with every run flag set on the command line.
func mergeRunFlags(cmd *cobra.Command, base, flags pipeline.Options) pipeline.Options {
	changed := cmd.Flags().Changed
	if changed("strategy") || base.Strategy == "" {
		base.Strategy = flags.Strategy
	}
	if changed("mode") || base.Mode == "" {
		base.Mode = flags.Mode
	}
	if changed("workers") {
		base.Workers = flags.Workers
	}
	// A target flag replaces every target source of the file.
	if changed("configuration") || changed("configurations-file") || changed("all-configurations") {
		base.Configurations = flags.Configurations
		base.ConfigurationsFile = flags.ConfigurationsFile
		base.AllConfigurations = flags.AllConfigurations
	}
	if changed("dump-feature-model") {
		base.DumpFeatureModel = flags.DumpFeatureModel
	}
	if changed("persist") {
		base.Persist = flags.Persist
	}
	return base
}

func (c *CLI) runAnalyze(ctx context.Context, out io.Writer, opts pipeline.Options, ao *analyzeOpts) error {
	logger := loggerFromContext(ctx)

	col := observability.Noop()
	if ao.stats {
		col = observability.NewRecording()
	}
	stopTotal := col.Time.Start(observability.TimerTotalRunningTime)
	opts.Collectors = col
	opts.Logger = logger

	runner, err := c.newRunner(ctx, ao.cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer runner.Close()

	if opts.Persist {
		s, err := newStore(ctx, ao.store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		runner.Store = s
	}

	prog := newProgress(logger)
	spinner := newSpinner(ctx, "Analyzing "+opts.Model)
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if !ao.quiet {
		writeReport(out, result.Results)
	}
	if ao.output != "" {
		if err := rio.ExportResults(result.Results, ao.output); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		printFile(ao.output)
	}
	stopTotal()
	prog.done(fmt.Sprintf("analyzed %d configurations", result.Results.Stats().Configurations))

	if ao.stats {
		if err := writeStats(out, result, col); err != nil {
			return err
		}
	}
	if result.Report != nil {
		printDetail("stored run %s", result.Report.ID)
	}
	return nil
}

// writeStats prints the collector statistics, the evaluation reuse of the
// graph and the statistics of the results.
func writeStats(w io.Writer, result *pipeline.Result, col observability.Collectors) error {
	deps, err := result.Root.TransitiveDependencies()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, StyleDim.Render("-----------------------------"))
	fmt.Fprintln(w, StyleTitle.Render("Stats:"))
	fmt.Fprintln(w, StyleDim.Render("------"))
	col.PrintStats(w)
	writeReuse(w, append(deps, result.Root), result.Paths)
	result.Results.PrintStats(w)
	return nil
}
