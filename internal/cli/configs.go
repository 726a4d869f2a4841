package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/pipeline"
)

// configsCommand creates the configs command for inspecting the valid
// configurations of a feature model.
func (c *CLI) configsCommand() *cobra.Command {
	var (
		mf     modelFlags
		count  bool
		pick   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "configs [graph.json]",
		Short: "List the valid configurations of the feature model",
		Long: `List the valid configurations of the feature model, one per line.

With --pick an interactive list lets you choose configurations; the chosen
ones are written in the format read by "analyze --configurations-file".`,
		Example: `  reana configs bsn.json --count
  reana configs bsn.json --pick -o products.txt
  reana analyze bsn.json --configurations-file products.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := mf.baseOptions(args)
			if err != nil {
				return err
			}
			opts.Logger = loggerFromContext(cmd.Context())

			result, _, err := pipeline.NewRunner(nil, nil, opts.Logger).Load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fm := result.FeatureModel
			if count {
				fmt.Fprintln(cmd.OutOrStdout(), fm.Count().String())
				return nil
			}

			cfgs, err := fm.ValidConfigurations()
			if err != nil {
				return err
			}
			if pick {
				chosen, err := pickConfigurations(cfgs)
				if err != nil {
					return err
				}
				cfgs = chosen
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeConfigurations(w, cfgs); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote %d configurations", len(cfgs))
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "print the number of valid configurations only")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose configurations interactively")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write configurations to a file")
	cmd.MarkFlagsMutuallyExclusive("count", "pick")
	mf.register(cmd)
	return cmd
}

func writeConfigurations(w io.Writer, cfgs []featuremodel.Configuration) error {
	for _, cfg := range cfgs {
		if _, err := fmt.Fprintln(w, cfg.Key()); err != nil {
			return err
		}
	}
	return nil
}

func pickConfigurations(cfgs []featuremodel.Configuration) ([]featuremodel.Configuration, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}
	final, err := tea.NewProgram(NewConfigListModel(cfgs)).Run()
	if err != nil {
		return nil, fmt.Errorf("configuration picker: %w", err)
	}
	m := final.(ConfigListModel)
	if m.Aborted {
		return nil, context.Canceled
	}
	return m.Chosen(), nil
}
