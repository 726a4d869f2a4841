// Package pipeline provides the load → analyze → report pipeline of reana.
//
// The CLI and any other entry point go through [Runner], so graph loading,
// feature model handling, target selection and checker caching behave the
// same everywhere.
//
// # Stages
//
//  1. Load: import the RDG file and parse the feature model
//  2. Analyze: evaluate the selected strategy over the target configurations
//  3. Report: compute evaluation reuse and optionally persist the run
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Model:    "bsn.json",
//	    Strategy: "feature-family",
//	    AllConfigurations: true,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Results.Entries() {
//	    fmt.Println(e.Configuration, e.Reliability)
//	}
//
// # Configuration File
//
// [LoadOptions] reads the same options from a TOML file, reana.toml by
// default. Command-line flags override file values.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/cache"
	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
	"github.com/matzehuels/reana/pkg/observability"
	"github.com/matzehuels/reana/pkg/rdg"
	"github.com/matzehuels/reana/pkg/store"
)

const (
	// DefaultStrategy is the strategy used when none is given.
	DefaultStrategy = "feature-family-product"

	// DefaultMode is the iteration mode used when none is given.
	DefaultMode = "sequential"

	// DefaultConfigFile is the configuration file looked up in the working
	// directory.
	DefaultConfigFile = "reana.toml"
)

// Options contains all configuration for an analysis run.
type Options struct {
	// Model is the path of the RDG JSON file.
	Model string `toml:"model" json:"model"`

	// FeatureModel overrides the feature model formula stored in the RDG file.
	FeatureModel string `toml:"feature_model" json:"feature_model,omitempty"`

	Strategy string `toml:"strategy" json:"strategy,omitempty"`
	Mode     string `toml:"mode" json:"mode,omitempty"`
	Workers  int    `toml:"workers" json:"workers,omitempty"`

	// Target configurations. At most one source may be given; with none,
	// every valid configuration is analyzed.
	Configurations     []string `toml:"configurations" json:"configurations,omitempty"`
	ConfigurationsFile string   `toml:"configurations_file" json:"configurations_file,omitempty"`
	AllConfigurations  bool     `toml:"all_configurations" json:"all_configurations,omitempty"`

	// DumpFeatureModel, when set, writes the feature model decision diagram
	// in DOT format to this path.
	DumpFeatureModel string `toml:"dump_feature_model" json:"dump_feature_model,omitempty"`

	// Persist stores the run report when the runner has a store.
	Persist bool `toml:"persist" json:"persist,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger              `toml:"-" json:"-"`
	Collectors observability.Collectors `toml:"-" json:"-"`
	Checker    checker.ModelChecker     `toml:"-" json:"-"`

	strategy  analysis.Strategy
	mode      iteration.Mode
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run; it is the ID of the stored report.
	RunID string

	Graph        *rdg.Graph
	Root         *rdg.Node
	FeatureModel *featuremodel.FeatureModel

	// GraphHash is the content hash of the canonical graph encoding.
	GraphHash string

	Results *analysis.Results

	// Paths maps every node of the root's closure to the number of paths
	// reaching it; Economy is the share of evaluations saved by reuse.
	Paths   map[*rdg.Node]int
	Economy float64

	// Report is the stored run, or nil when the run was not persisted.
	Report *store.Report

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	Features     int
	LoadTime     time.Duration
	AnalysisTime time.Duration
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Model == "" {
		return errors.New(errors.ErrCodeInvalidInput, "model file is required")
	}
	if err := errors.ValidatePath(o.Model); err != nil {
		return err
	}

	sources := 0
	for _, set := range []bool{len(o.Configurations) > 0, o.ConfigurationsFile != "", o.AllConfigurations} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "configurations, configurations_file and all_configurations are mutually exclusive")
	}

	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	s, err := analysis.ParseStrategy(o.Strategy)
	if err != nil {
		return err
	}
	o.strategy = s

	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	m, err := iteration.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.mode = m

	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Collectors = o.Collectors.WithDefaults()

	o.validated = true
	return nil
}

// RunKeyOpts returns cache key options identifying the run's inputs.
func (o *Options) RunKeyOpts(featureModel string) cache.RunKeyOpts {
	return cache.RunKeyOpts{Strategy: o.Strategy, FeatureModel: featureModel}
}
