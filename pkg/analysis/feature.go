package analysis

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/reana/pkg/derivation"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
	"github.com/matzehuels/reana/pkg/observability"
	"github.com/matzehuels/reana/pkg/presence"
	"github.com/matzehuels/reana/pkg/rdg"
)

// componentFormulas model-checks the model of every component once. Nodes
// sharing a model share its formula. In parallel mode the models are checked
// concurrently.
func (r *run) componentFormulas(ctx context.Context) (map[string]string, error) {
	stop := r.opts.Collectors.Time.Start(observability.TimerFeatureAnalysis)
	defer stop()

	var models []*fdtmc.FDTMC
	seen := make(map[*fdtmc.FDTMC]bool, len(r.nodes))
	for _, n := range r.nodes {
		if m := n.Model(); !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}

	var mu sync.Mutex
	byModel := make(map[*fdtmc.FDTMC]string, len(models))

	limit := 1
	if r.mode == iteration.Parallel {
		limit = r.opts.Workers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, m := range models {
		g.Go(func() error {
			formula, err := r.check(gctx, m)
			if err != nil {
				return err
			}
			mu.Lock()
			byModel[m] = formula
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	formulas := make(map[string]string, len(r.nodes))
	for _, n := range r.nodes {
		formulas[n.ID()] = byModel[n.Model()]
		r.opts.Collectors.Formula.CollectFormula(n.ID(), formulas[n.ID()])
	}
	r.counts.reused.Add(int64(len(r.nodes) - len(models)))
	r.opts.Logger.Debug("checked components", "components", len(r.nodes), "models", len(models))
	return formulas, nil
}

func (r *run) formulaComponents(formulas map[string]string) []derivation.Component[string] {
	return derivation.Components(r.nodes, func(n *rdg.Node) string { return formulas[n.ID()] })
}

// numbers is the numeric algebra, counting every evaluated formula.
func (r *run) numbers() derivation.Derivation[bool, string, float64] {
	eval := derivation.EvaluateNumbers(r.opts.Solver)
	return derivation.New[bool, string, float64](
		derivation.BoolIf[float64],
		func(asset string, derived map[string]float64) (float64, error) {
			r.counts.solved.Add(1)
			return eval(asset, derived)
		},
		1,
	)
}

func (r *run) featureFamily(ctx context.Context, res *Results) error {
	formulas, err := r.componentFormulas(ctx)
	if err != nil {
		return err
	}

	stop := r.opts.Collectors.Time.Start(observability.TimerFamilyAnalysis)
	formula, err := derivation.FromMany(r.formulaComponents(formulas), derivation.FamilyFormulas(), symbolic[string](r.presence))
	stop()
	if err != nil {
		return err
	}
	r.opts.Collectors.Formula.CollectFormula(r.root.ID(), formula)
	r.opts.Logger.Debug("derived family formula", "factors", expr.Factors(formula))

	res.formula = formula
	res.lazy = r.solveFamily(formula)
	return nil
}

func (r *run) featureProduct(ctx context.Context, res *Results) error {
	formulas, err := r.componentFormulas(ctx)
	if err != nil {
		return err
	}
	comps := r.formulaComponents(formulas)
	d := r.numbers()

	r.eager(ctx, res, func(_ context.Context, cfg featuremodel.Configuration) (float64, error) {
		if err := r.admit(cfg); err != nil {
			return 0, err
		}
		return derivation.FromMany(comps, d, concrete[string](r.presence, cfg))
	})
	return nil
}

// hybrid is the state of the feature-family-product strategy.
type hybrid struct {
	*run
	formulas map[string]string
	compose  derivation.Composer[string, float64]

	// shared holds the values of components whose whole subtree has a
	// presence decided by the feature model.
	shared map[string]float64
	// deferred components, smallest formulas first.
	deferred []*rdg.Node
	// features mentioned by the subtree of every deferred component.
	features map[*rdg.Node]map[string]bool

	memo  sync.Map // node ID + projected configuration -> float64
	group singleflight.Group
}

func (r *run) featureFamilyProduct(ctx context.Context, res *Results) error {
	formulas, err := r.componentFormulas(ctx)
	if err != nil {
		return err
	}
	h := &hybrid{
		run:      r,
		formulas: formulas,
		features: make(map[*rdg.Node]map[string]bool),
	}
	d := r.numbers()
	h.compose = d.Compose
	if err := h.partition(d); err != nil {
		return err
	}
	r.opts.Logger.Debug("partitioned components", "shared", len(h.shared), "deferred", len(h.deferred))

	r.eager(ctx, res, func(_ context.Context, cfg featuremodel.Configuration) (float64, error) {
		if err := r.admit(cfg); err != nil {
			return 0, err
		}
		for _, n := range h.deferred {
			if _, err := h.value(n, cfg); err != nil {
				return 0, err
			}
		}
		return h.value(r.root, cfg)
	})
	return nil
}

// partition folds the determined components once and orders the others.
func (h *hybrid) partition(d derivation.Derivation[bool, string, float64]) error {
	kinds := make(map[string]presence.Kind, len(h.nodes))
	determined := make(map[*rdg.Node]bool, len(h.nodes))
	var fixed []*rdg.Node
	for _, n := range h.nodes {
		s, err := h.presence.Symbolic(n.ID(), n.PresenceCondition())
		if err != nil {
			return err
		}
		kinds[n.ID()] = s.Kind
		ok := s.Kind != presence.Conditional
		for _, dep := range n.Dependencies() {
			ok = ok && determined[dep]
		}
		determined[n] = ok
		if ok {
			fixed = append(fixed, n)
		} else {
			h.deferred = append(h.deferred, n)
		}
	}

	shared, err := derivation.All(derivation.Components(fixed, func(n *rdg.Node) string { return h.formulas[n.ID()] }), d,
		func(c derivation.Component[string]) (bool, error) { return kinds[c.ID] == presence.Always, nil })
	if err != nil {
		return err
	}
	h.shared = shared

	index := make(map[*rdg.Node]int, len(h.nodes))
	for i, n := range h.nodes {
		index[n] = i
	}
	slices.SortStableFunc(h.deferred, func(a, b *rdg.Node) int {
		if c := cmp.Compare(expr.Factors(h.formulas[a.ID()]), expr.Factors(h.formulas[b.ID()])); c != 0 {
			return c
		}
		return cmp.Compare(index[a], index[b])
	})

	for _, n := range h.deferred {
		deps, err := n.TransitiveDependencies()
		if err != nil {
			return err
		}
		fs, err := h.presence.Features(append(deps, n))
		if err != nil {
			return err
		}
		h.features[n] = fs
	}
	return nil
}

// value returns the reliability of n in cfg. Values depend only on the
// features the subtree of n mentions, so they are memoized under the
// configuration projected onto those features.
func (h *hybrid) value(n *rdg.Node, cfg featuremodel.Configuration) (float64, error) {
	if v, ok := h.shared[n.ID()]; ok {
		return v, nil
	}
	key := n.ID() + "\x00" + cfg.Project(h.features[n]).Key()
	if v, ok := h.memo.Load(key); ok {
		h.counts.reused.Add(1)
		return v.(float64), nil
	}

	v, err, _ := h.group.Do(key, func() (any, error) {
		if v, ok := h.memo.Load(key); ok {
			return v, nil
		}
		present, err := h.presence.IsPresent(n.PresenceCondition(), cfg)
		if err != nil {
			return nil, err
		}
		v := 1.0
		if present {
			deps := n.Dependencies()
			derived := make(map[string]float64, len(deps))
			for _, dep := range deps {
				dv, err := h.value(dep, cfg)
				if err != nil {
					return nil, err
				}
				derived[dep.ID()] = dv
			}
			if v, err = h.compose(h.formulas[n.ID()], derived); err != nil {
				return nil, err
			}
		}
		h.memo.Store(key, v)
		return v, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
