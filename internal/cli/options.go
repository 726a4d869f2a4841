package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/pipeline"
)

// modelFlags are the flags shared by every command that loads a model.
type modelFlags struct {
	config           string
	featureModel     string
	featureModelFile string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.config, "config", "", "run configuration file (default: ./"+pipeline.DefaultConfigFile+" if present)")
	cmd.Flags().StringVar(&f.featureModel, "feature-model", "", "feature model formula, overriding the one stored with the graph")
	cmd.Flags().StringVar(&f.featureModelFile, "feature-model-file", "", "read the feature model formula from a file")
	cmd.MarkFlagsMutuallyExclusive("feature-model", "feature-model-file")
}

// baseOptions loads the configuration file, then applies the model argument
// and the feature model flags on top of it.
func (f *modelFlags) baseOptions(args []string) (pipeline.Options, error) {
	var opts pipeline.Options
	switch {
	case f.config != "":
		o, err := pipeline.LoadOptions(f.config)
		if err != nil {
			return opts, err
		}
		opts = o
	default:
		if _, err := os.Stat(pipeline.DefaultConfigFile); err == nil {
			o, err := pipeline.LoadOptions(pipeline.DefaultConfigFile)
			if err != nil {
				return opts, err
			}
			opts = o
		}
	}

	if len(args) > 0 {
		opts.Model = args[0]
	}
	if opts.Model == "" {
		return opts, errors.New(errors.ErrCodeInvalidInput, "no model given: pass a graph file or set model in %s", pipeline.DefaultConfigFile)
	}

	switch {
	case f.featureModel != "":
		opts.FeatureModel = f.featureModel
	case f.featureModelFile != "":
		data, err := os.ReadFile(f.featureModelFile)
		if err != nil {
			if os.IsNotExist(err) {
				return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "feature model %s", f.featureModelFile)
			}
			return opts, err
		}
		opts.FeatureModel = strings.TrimSpace(string(data))
	}
	return opts, nil
}
