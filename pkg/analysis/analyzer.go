package analysis

import (
	"context"
	"iter"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/derivation"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
	"github.com/matzehuels/reana/pkg/observability"
	"github.com/matzehuels/reana/pkg/presence"
	"github.com/matzehuels/reana/pkg/rdg"
)

// Options configures an Analyzer. The zero value is usable.
type Options struct {
	// Solver evaluates formulas. Defaults to a new solver.
	Solver *expr.Solver
	// Collectors receive statistics. Nil handles are replaced by no-ops.
	Collectors observability.Collectors
	// Logger receives progress messages. Defaults to log.Default().
	Logger *log.Logger
	// Workers bounds the concurrency of parallel evaluation.
	// Zero selects iteration.DefaultWorkers().
	Workers int
}

// WithDefaults returns a copy of the options with defaults filled in.
func (o Options) WithDefaults() Options {
	if o.Solver == nil {
		o.Solver = expr.NewSolver()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Workers <= 0 {
		o.Workers = iteration.DefaultWorkers()
	}
	o.Collectors = o.Collectors.WithDefaults()
	return o
}

// Analyzer evaluates analysis strategies over dependency graphs.
// It is safe for concurrent use.
type Analyzer struct {
	fm       *featuremodel.FeatureModel
	presence *presence.Evaluator
	checker  checker.ModelChecker
	opts     Options
}

// NewAnalyzer creates an analyzer for the product line described by fm.
// A nil model checker selects the built-in [checker.Eliminator].
func NewAnalyzer(fm *featuremodel.FeatureModel, mc checker.ModelChecker, opts Options) *Analyzer {
	if mc == nil {
		mc = checker.NewEliminator()
	}
	return &Analyzer{
		fm:       fm,
		presence: presence.NewEvaluator(fm),
		checker:  mc,
		opts:     opts.WithDefaults(),
	}
}

// FeatureModel returns the feature model of the analyzer.
func (a *Analyzer) FeatureModel() *featuremodel.FeatureModel { return a.fm }

// Presence returns the presence evaluator of the analyzer.
func (a *Analyzer) Presence() *presence.Evaluator { return a.presence }

type hitCounter interface {
	Hits() int64
}

// Evaluate runs strategy for every configuration of configs over the graph
// below root.
//
// A cyclic graph yields a [errors.CyclicDependencyError] and presence
// conditions naming unknown features yield an UNKNOWN_FEATURE error; in both
// cases no configuration is evaluated. Failures of single configurations are
// recorded in the results. Configurations that violate the feature model are
// recorded with an INVALID_CONFIGURATION error.
func (a *Analyzer) Evaluate(ctx context.Context, strategy Strategy, root *rdg.Node, mode iteration.Mode, configs iter.Seq[featuremodel.Configuration]) (*Results, error) {
	stop := a.opts.Collectors.Time.Start(observability.TimerTotalAnalysis)
	defer stop()

	closure, err := root.TransitiveDependencies()
	if err != nil {
		return nil, err
	}
	nodes := append(closure, root)
	if err := a.presence.ValidateConditions(nodes); err != nil {
		return nil, err
	}

	var inputs []featuremodel.Configuration
	if configs != nil {
		inputs = slices.Collect(configs)
	}

	r := &run{
		Analyzer: a,
		root:     root,
		nodes:    nodes,
		mode:     mode,
		counts:   &counters{},
	}
	res := newResults(strategy, a.fm, inputs, r.counts, a.opts.Logger)

	var hitsBefore int64
	hc, counting := a.checker.(hitCounter)
	if counting {
		hitsBefore = hc.Hits()
	}

	a.opts.Logger.Debug("evaluating", "strategy", strategy, "mode", mode, "components", len(nodes), "configurations", len(inputs))
	a.opts.Collectors.Memory.Snapshot(observability.SnapshotBeforeEvaluation)

	switch strategy {
	case Product:
		err = r.product(ctx, res)
	case Family:
		err = r.family(ctx, res, false)
	case FamilyProduct:
		err = r.family(ctx, res, true)
	case FeatureFamily:
		err = r.featureFamily(ctx, res)
	case FeatureProduct:
		err = r.featureProduct(ctx, res)
	case FeatureFamilyProduct:
		err = r.featureFamilyProduct(ctx, res)
	default:
		err = errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %d", int(strategy))
	}

	a.opts.Collectors.Memory.Snapshot(observability.SnapshotAfterEvaluation)
	if counting {
		r.counts.hits.Store(hc.Hits() - hitsBefore)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// run holds the state of one call to Evaluate.
type run struct {
	*Analyzer
	root   *rdg.Node
	nodes  []*rdg.Node // closure of root, root last
	mode   iteration.Mode
	counts *counters
}

// admit rejects configurations naming unknown features or violating the
// feature model.
func (r *run) admit(cfg featuremodel.Configuration) error {
	valid, err := r.fm.IsValid(cfg)
	if err != nil {
		return err
	}
	if !valid {
		return errors.New(errors.ErrCodeInvalidConfiguration, "configuration %s violates the feature model", cfg)
	}
	return nil
}

// eager evaluates fn for every input configuration and records the outcomes.
func (r *run) eager(ctx context.Context, res *Results, fn iteration.Func[float64]) {
	stop := r.opts.Collectors.Time.Start(observability.TimerProductAnalysis)
	defer stop()

	for _, o := range iteration.EvaluateEach(ctx, fn, slices.Values(res.inputs), r.mode, r.opts.Workers) {
		if o.Err != nil {
			r.opts.Logger.Warn("configuration failed", "configuration", o.Configuration, "err", errors.UserMessage(o.Err))
		}
		res.record(Entry{Configuration: o.Configuration, Reliability: o.Value, Err: o.Err})
	}
}

func (r *run) check(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
	stop := r.opts.Collectors.Time.Start(observability.TimerModelChecking)
	defer stop()

	r.counts.checks.Add(1)
	r.opts.Collectors.Model.CollectModel(len(m.States()), len(m.Transitions()))
	formula, err := r.checker.Reliability(ctx, m)
	if err != nil {
		if errors.GetCode(err) == "" && ctx.Err() == nil {
			err = errors.Wrap(errors.ErrCodeModelChecker, err, "check model")
		}
		return "", err
	}
	return formula, nil
}

func (r *run) solve(formula string, bindings map[string]float64) (float64, error) {
	stop := r.opts.Collectors.Time.Start(observability.TimerExpressionSolve)
	defer stop()

	r.counts.solved.Add(1)
	return r.opts.Solver.Solve(formula, bindings)
}

// presenceBindings binds the presence variable of every conditional
// component to 1 if it is present in cfg and to 0 otherwise.
func (r *run) presenceBindings(cfg featuremodel.Configuration) (map[string]float64, error) {
	bindings := make(map[string]float64)
	for _, n := range r.nodes {
		s, err := r.presence.Symbolic(n.ID(), n.PresenceCondition())
		if err != nil {
			return nil, err
		}
		if s.Kind != presence.Conditional {
			continue
		}
		present, err := r.presence.IsPresent(n.PresenceCondition(), cfg)
		if err != nil {
			return nil, err
		}
		bindings[s.Variable] = 0
		if present {
			bindings[s.Variable] = 1
		}
	}
	return bindings, nil
}

// solveFamily returns the lazy solver of a family formula.
func (r *run) solveFamily(formula string) func(featuremodel.Configuration) (float64, error) {
	return func(cfg featuremodel.Configuration) (float64, error) {
		if err := r.admit(cfg); err != nil {
			return 0, err
		}
		bindings, err := r.presenceBindings(cfg)
		if err != nil {
			return 0, err
		}
		return r.solve(formula, bindings)
	}
}

func concrete[A any](e *presence.Evaluator, cfg featuremodel.Configuration) func(derivation.Component[A]) (bool, error) {
	return func(c derivation.Component[A]) (bool, error) {
		return e.IsPresent(c.PresenceCondition, cfg)
	}
}

func symbolic[A any](e *presence.Evaluator) func(derivation.Component[A]) (presence.Symbolic, error) {
	return func(c derivation.Component[A]) (presence.Symbolic, error) {
		return e.Symbolic(c.ID, c.PresenceCondition)
	}
}

func (r *run) product(ctx context.Context, res *Results) error {
	comps := derivation.Components(r.nodes, (*rdg.Node).Model)
	r.eager(ctx, res, func(ctx context.Context, cfg featuremodel.Configuration) (float64, error) {
		if err := r.admit(cfg); err != nil {
			return 0, err
		}
		stop := r.opts.Collectors.Time.Start(observability.TimerDerivation)
		m, err := derivation.FromMany(comps, derivation.Models(), concrete[*fdtmc.FDTMC](r.presence, cfg))
		stop()
		if err != nil {
			return 0, err
		}
		r.counts.derived.Add(1)

		formula, err := r.check(ctx, m)
		if err != nil {
			return 0, err
		}
		return r.solve(formula, nil)
	})
	return nil
}

func (r *run) family(ctx context.Context, res *Results, eager bool) error {
	stop := r.opts.Collectors.Time.Start(observability.TimerFamilyAnalysis)
	comps := derivation.Components(r.nodes, (*rdg.Node).Model)
	m, err := derivation.FromMany(comps, derivation.FamilyModels(), symbolic[*fdtmc.FDTMC](r.presence))
	if err != nil {
		stop()
		return err
	}
	r.counts.derived.Add(1)
	r.opts.Logger.Debug("derived family model", "states", len(m.States()), "transitions", len(m.Transitions()))

	formula, err := r.check(ctx, m)
	stop()
	if err != nil {
		return err
	}
	r.opts.Collectors.Formula.CollectFormula(r.root.ID(), formula)

	res.formula = formula
	solve := r.solveFamily(formula)
	if !eager {
		res.lazy = solve
		return nil
	}
	r.eager(ctx, res, func(_ context.Context, cfg featuremodel.Configuration) (float64, error) {
		return solve(cfg)
	})
	return nil
}
