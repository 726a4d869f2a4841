package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/cache"
	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/featuremodel"
	rio "github.com/matzehuels/reana/pkg/io"
	"github.com/matzehuels/reana/pkg/observability"
	"github.com/matzehuels/reana/pkg/rdg"
	"github.com/matzehuels/reana/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, store and logger: it does
// not keep pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store persists run reports. Nil disables persistence.
	Store store.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → analyze → report pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	loadStart := time.Now()
	result, formula, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)

	opts.Logger.Info("loaded model",
		"nodes", result.Stats.NodeCount,
		"features", result.Stats.Features,
		"duration", result.Stats.LoadTime)

	targets, err := Targets(opts, result.FeatureModel)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	// Stage 2: Analyze
	analysisStart := time.Now()
	mc := opts.Checker
	if mc == nil {
		mc = checker.NewCached(checker.NewEliminator(), r.Cache, r.Keyer)
	}
	analyzer := analysis.NewAnalyzer(result.FeatureModel, mc, analysis.Options{
		Collectors: opts.Collectors,
		Logger:     opts.Logger,
		Workers:    opts.Workers,
	})
	res, err := analyzer.Evaluate(ctx, opts.strategy, result.Root, opts.mode, slices.Values(targets))
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Results = res
	result.Stats.AnalysisTime = time.Since(analysisStart)

	opts.Logger.Info("analyzed product line",
		"strategy", opts.strategy,
		"mode", opts.mode,
		"configurations", len(targets),
		"duration", result.Stats.AnalysisTime)

	// Stage 3: Report
	paths, err := result.Root.NumberOfPaths()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	result.Paths = paths
	result.Economy = rdg.EvaluationEconomy(paths)

	if opts.Persist && r.Store != nil {
		rep := store.NewReport(res)
		rep.Key = r.Keyer.RunKey(result.GraphHash, opts.RunKeyOpts(formula))
		rep.Mode = opts.mode.String()
		rep.GraphHash = result.GraphHash
		rep.FeatureModel = formula
		rep.Duration = result.Stats.AnalysisTime
		if err := r.Store.Save(ctx, rep); err != nil {
			return nil, fmt.Errorf("report: %w", err)
		}
		result.Report = rep
		result.RunID = rep.ID
		opts.Logger.Debug("stored run", "id", rep.ID)
	} else {
		result.RunID = uuid.NewString()
	}

	return result, nil
}

// Load imports the graph and feature model named by opts. It returns the
// partially filled result and the feature model formula in use.
func (r *Runner) Load(ctx context.Context, opts Options) (*Result, string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", err
	}
	col := opts.Collectors

	col.Memory.Snapshot(observability.SnapshotBeforeParsing)
	stop := col.Time.Start(observability.TimerModelParsing)
	doc, err := rio.ImportRDG(opts.Model)
	stop()
	if err != nil {
		return nil, "", err
	}
	col.Memory.Snapshot(observability.SnapshotAfterParsing)

	formula := opts.FeatureModel
	if formula == "" {
		formula = doc.FeatureModel
	}
	if formula == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "%s carries no feature model and none was given", opts.Model)
	}

	stop = col.Time.Start(observability.TimerFeatureModel)
	fm, err := featuremodel.Parse(formula)
	stop()
	if err != nil {
		return nil, "", fmt.Errorf("feature model: %w", err)
	}

	root, err := doc.Graph.Root()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := rio.WriteRDG(doc.Graph, formula, &buf); err != nil {
		return nil, "", fmt.Errorf("hash graph: %w", err)
	}

	if opts.DumpFeatureModel != "" {
		if err := dumpFeatureModel(fm, opts.DumpFeatureModel); err != nil {
			return nil, "", err
		}
		opts.Logger.Debug("wrote feature model diagram", "path", opts.DumpFeatureModel)
	}

	return &Result{
		Graph:        doc.Graph,
		Root:         root,
		FeatureModel: fm,
		GraphHash:    cache.Hash(buf.Bytes()),
		Stats: Stats{
			NodeCount: doc.Graph.NodeCount(),
			Features:  len(fm.Features()),
		},
	}, formula, nil
}

// Targets returns the configurations to analyze: the listed ones, those of
// the configurations file, or every valid configuration of fm.
func Targets(opts Options, fm *featuremodel.FeatureModel) ([]featuremodel.Configuration, error) {
	switch {
	case len(opts.Configurations) > 0:
		out := make([]featuremodel.Configuration, len(opts.Configurations))
		for i, s := range opts.Configurations {
			out[i] = featuremodel.ParseConfiguration(s)
		}
		return out, nil
	case opts.ConfigurationsFile != "":
		return rio.ImportConfigurations(opts.ConfigurationsFile)
	default:
		return fm.ValidConfigurations()
	}
}

func dumpFeatureModel(fm *featuremodel.FeatureModel, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := fm.WriteDot(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
