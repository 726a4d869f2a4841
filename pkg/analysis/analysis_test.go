package analysis_test

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/cache"
	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/featuremodel"
	"github.com/matzehuels/reana/pkg/iteration"
	"github.com/matzehuels/reana/pkg/rdg"
)

const bsnModel = "Root && (Sensor || Memory)"

// caller succeeds with probability p and then calls deps in sequence.
func caller(p string, deps ...string) *fdtmc.FDTMC {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	fail := m.CreateErrorState("error")
	cur := m.CreateState("run")
	_ = m.AddTransition(init, cur, "", p)
	_ = m.AddTransition(init, fail, "", "1 - "+p)
	for _, dep := range deps {
		next := m.CreateState("after " + dep)
		_, _ = m.CreateInterface(dep, cur, next, fail)
		cur = next
	}
	succ := m.CreateSuccessState("success")
	_ = m.AddTransition(cur, succ, "", "1")
	return m
}

// bsn builds App -> {Sensor, Memory} -> Persistence.
//
//	Persistence = 0.95
//	Sensor      = 0.9 * Persistence
//	Memory      = 0.8 * Persistence
//	App         = 0.99 * Sensor * Memory, absent components count as 1
func bsn(t *testing.T) *rdg.Graph {
	t.Helper()
	g := rdg.New()
	for _, n := range []struct {
		id, presence string
		model        *fdtmc.FDTMC
	}{
		{"App", "Root", caller("0.99", "Sensor", "Memory")},
		{"Sensor", "Sensor", caller("0.9", "Persistence")},
		{"Memory", "Memory", caller("0.8", "Persistence")},
		{"Persistence", "true", caller("0.95")},
	} {
		if _, err := g.AddNode(n.id, n.presence, n.model); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"App", "Sensor"}, {"App", "Memory"}, {"Sensor", "Persistence"}, {"Memory", "Persistence"}} {
		if err := g.AddDependency(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func root(t *testing.T, g *rdg.Graph) *rdg.Node {
	t.Helper()
	n, err := g.Root()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func mustFeatureModel(t *testing.T, formula string) *featuremodel.FeatureModel {
	t.Helper()
	fm, err := featuremodel.Parse(formula)
	if err != nil {
		t.Fatal(err)
	}
	return fm
}

func configs(keys ...string) []featuremodel.Configuration {
	out := make([]featuremodel.Configuration, len(keys))
	for i, k := range keys {
		out[i] = featuremodel.ParseConfiguration(k)
	}
	return out
}

var bsnExpected = map[string]float64{
	"Root,Sensor":        0.99 * 0.9 * 0.95,
	"Memory,Root":        0.99 * 0.8 * 0.95,
	"Memory,Root,Sensor": 0.99 * 0.9 * 0.95 * 0.8 * 0.95,
}

func TestParseStrategy(t *testing.T) {
	for _, s := range analysis.Strategies() {
		got, err := analysis.ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := analysis.ParseStrategy("bogus"); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("ParseStrategy(bogus) error = %v", err)
	}
}

func TestEvaluate_StrategiesAgree(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	in := configs("Root,Sensor", "Memory,Root", "Memory,Root,Sensor", "Sensor", "Gps,Root")

	for _, strategy := range analysis.Strategies() {
		for _, mode := range []iteration.Mode{iteration.Sequential, iteration.Parallel} {
			t.Run(strategy.String()+"/"+mode.String(), func(t *testing.T) {
				a := analysis.NewAnalyzer(fm, checker.NewEliminator(), analysis.Options{Workers: 2})
				res, err := a.Evaluate(context.Background(), strategy, root(t, bsn(t)), mode, slices.Values(in))
				if err != nil {
					t.Fatal(err)
				}

				entries := res.Entries()
				if len(entries) != len(in) {
					t.Fatalf("got %d entries, want %d", len(entries), len(in))
				}
				for i, e := range entries {
					if !e.Configuration.Equal(in[i]) {
						t.Errorf("entry %d is %v, want %v", i, e.Configuration, in[i])
					}
				}
				for _, e := range entries[:3] {
					if e.Err != nil {
						t.Errorf("%v: %v", e.Configuration, e.Err)
						continue
					}
					if want := bsnExpected[e.Configuration.Key()]; math.Abs(e.Reliability-want) > 1e-9 {
						t.Errorf("%v: reliability = %v, want %v", e.Configuration, e.Reliability, want)
					}
				}
				if !entries[3].Invalid() {
					t.Errorf("%v: error = %v, want INVALID_CONFIGURATION", entries[3].Configuration, entries[3].Err)
				}
				var uf *errors.UnknownFeatureError
				if !goerrors.As(entries[4].Err, &uf) || uf.Feature != "Gps" {
					t.Errorf("%v: error = %v, want unknown feature Gps", entries[4].Configuration, entries[4].Err)
				}
			})
		}
	}
}

func TestEvaluate_Cycle(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	g := bsn(t)
	if err := g.AddDependency("Persistence", "App"); err != nil {
		t.Fatal(err)
	}

	for _, strategy := range analysis.Strategies() {
		a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
		res, err := a.Evaluate(context.Background(), strategy, root(t, g), iteration.Sequential, slices.Values(configs("Root,Sensor")))
		if res != nil {
			t.Errorf("%s: got results for a cyclic graph", strategy)
		}
		var cyc *errors.CyclicDependencyError
		if !goerrors.As(err, &cyc) {
			t.Errorf("%s: error = %v, want CyclicDependencyError", strategy, err)
		}
	}
}

func TestEvaluate_TrivialComposition(t *testing.T) {
	fm := mustFeatureModel(t, "A")
	g := rdg.New()
	for _, id := range []string{"R", "X", "Y"} {
		if _, err := g.AddNode(id, "true", fdtmc.Trivial()); err != nil {
			t.Fatal(err)
		}
	}
	_ = g.AddDependency("R", "X")
	_ = g.AddDependency("X", "Y")

	for _, strategy := range analysis.Strategies() {
		a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
		res, err := a.Evaluate(context.Background(), strategy, root(t, g), iteration.Sequential, slices.Values(configs("A")))
		if err != nil {
			t.Fatal(err)
		}
		got, err := res.Result(featuremodel.NewConfiguration("A"))
		if err != nil || got != 1 {
			t.Errorf("%s: Result = %v, %v, want 1", strategy, got, err)
		}
	}
}

func TestEvaluate_UnknownFeatureInCondition(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	g := bsn(t)
	if _, err := g.AddNode("Gps", "Gps", nil); err != nil {
		t.Fatal(err)
	}
	_ = g.AddDependency("App", "Gps")

	a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
	_, err := a.Evaluate(context.Background(), analysis.Family, root(t, g), iteration.Sequential, nil)
	if !errors.Is(err, errors.ErrCodeUnknownFeature) {
		t.Errorf("error = %v, want UNKNOWN_FEATURE", err)
	}
}

func TestEvaluate_BatchResilience(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	failing := checker.Func(func(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
		for _, s := range m.States() {
			if strings.HasPrefix(s.Label, "Memory/Persistence/") {
				return "", fmt.Errorf("model too large")
			}
		}
		return checker.NewEliminator().Reliability(ctx, m)
	})

	a := analysis.NewAnalyzer(fm, failing, analysis.Options{})
	in := configs("Memory,Root", "Root,Sensor", "Memory,Root,Sensor")
	res, err := a.Evaluate(context.Background(), analysis.Product, root(t, bsn(t)), iteration.Parallel, slices.Values(in))
	if err != nil {
		t.Fatal(err)
	}

	entries := res.Entries()
	for _, i := range []int{0, 2} {
		if !errors.Is(entries[i].Err, errors.ErrCodeModelChecker) {
			t.Errorf("%v: error = %v, want MODEL_CHECKER_FAILED", entries[i].Configuration, entries[i].Err)
		}
	}
	if entries[1].Err != nil || math.Abs(entries[1].Reliability-bsnExpected["Root,Sensor"]) > 1e-9 {
		t.Errorf("%v: %v, %v", entries[1].Configuration, entries[1].Reliability, entries[1].Err)
	}
	if s := res.Stats(); s.Failures != 2 || s.Configurations != 3 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
	res, err := a.Evaluate(ctx, analysis.Product, root(t, bsn(t)), iteration.Sequential, slices.Values(configs("Root,Sensor")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := res.Result(featuremodel.ParseConfiguration("Root,Sensor")); !goerrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestResults_Lazy(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	for _, strategy := range []analysis.Strategy{analysis.Family, analysis.FeatureFamily} {
		t.Run(strategy.String(), func(t *testing.T) {
			a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
			res, err := a.Evaluate(context.Background(), strategy, root(t, bsn(t)), iteration.Sequential, nil)
			if err != nil {
				t.Fatal(err)
			}
			formula, ok := res.Formula()
			if !ok || !strings.Contains(formula, "p_Sensor") || !strings.Contains(formula, "p_Memory") {
				t.Fatalf("Formula = %q, %v", formula, ok)
			}
			if res.Stats().SolvedFormulas != 0 {
				t.Errorf("solved %d formulas before the first query", res.Stats().SolvedFormulas)
			}

			for key, want := range bsnExpected {
				got, err := res.Result(featuremodel.ParseConfiguration(key))
				if err != nil || math.Abs(got-want) > 1e-9 {
					t.Errorf("Result(%s) = %v, %v, want %v", key, got, err, want)
				}
			}
			solved := res.Stats().SolvedFormulas
			_, _ = res.Result(featuremodel.ParseConfiguration("Root,Sensor"))
			if res.Stats().SolvedFormulas != solved {
				t.Error("repeated query solved the formula again")
			}
		})
	}
}

func TestResults_LazyFailureLogged(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	for _, strategy := range []analysis.Strategy{analysis.Family, analysis.FeatureFamily} {
		t.Run(strategy.String(), func(t *testing.T) {
			var buf bytes.Buffer
			a := analysis.NewAnalyzer(fm, nil, analysis.Options{Logger: log.New(&buf)})
			in := configs("Root,Sensor", "Sensor")
			res, err := a.Evaluate(context.Background(), strategy, root(t, bsn(t)), iteration.Sequential, slices.Values(in))
			if err != nil {
				t.Fatal(err)
			}

			entries := res.Entries()
			if entries[0].Err != nil || !entries[1].Invalid() {
				t.Fatalf("entries = %+v", entries)
			}
			out := buf.String()
			if strings.Count(out, "configuration failed") != 1 {
				t.Fatalf("log = %q, want one failure", out)
			}
			if !strings.Contains(out, "[Sensor]") {
				t.Errorf("log %q does not name the configuration", out)
			}

			_ = res.Entries()
			if strings.Count(buf.String(), "configuration failed") != 1 {
				t.Error("repeated read logged the failure again")
			}
		})
	}
}

func TestEvaluate_Determinism(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	formula := func() string {
		a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
		res, err := a.Evaluate(context.Background(), analysis.FeatureFamily, root(t, bsn(t)), iteration.Parallel, nil)
		if err != nil {
			t.Fatal(err)
		}
		f, _ := res.Formula()
		return f
	}
	if a, b := formula(), formula(); a != b {
		t.Errorf("family formulas differ:\n%s\n%s", a, b)
	}
}

func TestEvaluate_CachedChecker(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mc := checker.NewCached(checker.NewEliminator(), fc, nil)
	a := analysis.NewAnalyzer(fm, mc, analysis.Options{})

	first, err := a.Evaluate(context.Background(), analysis.FeatureProduct, root(t, bsn(t)), iteration.Sequential, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Evaluate(context.Background(), analysis.FeatureProduct, root(t, bsn(t)), iteration.Sequential, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats().CheckerCacheHits != 0 {
		t.Errorf("first run hit the cache %d times", first.Stats().CheckerCacheHits)
	}
	if s := second.Stats(); s.CheckerCacheHits != s.CheckerCalls || s.CheckerCalls == 0 {
		t.Errorf("second run: %d hits for %d calls", s.CheckerCacheHits, s.CheckerCalls)
	}
}

func TestEvaluate_HybridReuse(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
	in := configs("Root,Sensor", "Memory,Root,Sensor", "Memory,Root")
	res, err := a.Evaluate(context.Background(), analysis.FeatureFamilyProduct, root(t, bsn(t)), iteration.Sequential, slices.Values(in))
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats().ReusedSubResults == 0 {
		t.Error("no sub-result was reused across configurations")
	}
	if _, ok := res.Formula(); ok {
		t.Error("feature-family-product produced a family formula")
	}
}

func TestResults_NotAnalyzed(t *testing.T) {
	fm := mustFeatureModel(t, bsnModel)
	a := analysis.NewAnalyzer(fm, nil, analysis.Options{})
	res, err := a.Evaluate(context.Background(), analysis.Product, root(t, bsn(t)), iteration.Sequential, slices.Values(configs("Root,Sensor")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := res.Result(featuremodel.ParseConfiguration("Memory,Root")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	if _, err := res.Result(featuremodel.ParseConfiguration("Gps")); !errors.Is(err, errors.ErrCodeUnknownFeature) {
		t.Errorf("error = %v, want UNKNOWN_FEATURE", err)
	}
}
