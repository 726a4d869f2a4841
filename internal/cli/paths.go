package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/reana/pkg/pipeline"
)

// pathsCommand creates the paths command, which reports how many paths lead
// to every component. Each extra path is an evaluation saved by the closure
// cache.
func (c *CLI) pathsCommand() *cobra.Command {
	var mf modelFlags

	cmd := &cobra.Command{
		Use:   "paths [graph.json]",
		Short: "Show evaluation reuse of the dependence graph",
		Args:  cobra.MaximumNArgs(1),
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
			deps, err := result.Root.TransitiveDependencies()
			if err != nil {
				return err
			}
			paths, err := result.Root.NumberOfPaths()
			if err != nil {
				return err
			}
			writeReuse(cmd.OutOrStdout(), append(deps, result.Root), paths)
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}
