package derivation

import (
	"context"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
	"github.com/matzehuels/reana/pkg/presence"
)

// trace is an algebra that records the composition order.
func trace(calls *[]string) Derivation[bool, string, string] {
	return New(
		BoolIf[string],
		func(asset string, derived map[string]string) (string, error) {
			*calls = append(*calls, asset)
			return asset, nil
		},
		"trivial",
	)
}

func present(ids ...string) func(Component[string]) (bool, error) {
	return func(c Component[string]) (bool, error) {
		return slices.Contains(ids, c.ID), nil
	}
}

func components(ids ...string) []Component[string] {
	out := make([]Component[string], len(ids))
	for i, id := range ids {
		out[i] = Component[string]{ID: id, PresenceCondition: "true", Asset: id}
	}
	return out
}

func TestFromMany_Order(t *testing.T) {
	var calls []string
	got, err := FromMany(components("D", "B", "C", "A"), trace(&calls), present("A", "B", "C", "D"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "A" {
		t.Errorf("FromMany = %q, want value of the last component", got)
	}
	if want := []string{"D", "B", "C", "A"}; !slices.Equal(calls, want) {
		t.Errorf("composition order = %v, want %v", calls, want)
	}
}

func TestFromMany_AbsenceSkip(t *testing.T) {
	var calls []string
	got, err := FromMany(components("B", "A"), trace(&calls), present("A"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "A" {
		t.Errorf("FromMany = %q", got)
	}
	if !slices.Equal(calls, []string{"A"}) {
		t.Errorf("absent component was composed: %v", calls)
	}

	calls = nil
	got, _ = FromMany(components("B", "A"), trace(&calls), present())
	if got != "trivial" || len(calls) != 0 {
		t.Errorf("all absent: got %q with calls %v, want trivial and no calls", got, calls)
	}
}

func TestFromMany_Empty(t *testing.T) {
	var calls []string
	got, err := FromMany(nil, trace(&calls), present())
	if err != nil || got != "trivial" {
		t.Errorf("FromMany(nil) = %q, %v", got, err)
	}
}

func TestFold(t *testing.T) {
	var calls []string
	root := Component[string]{ID: "A", Asset: "A"}
	got, err := Fold(root, components("C", "B"), trace(&calls), present("A", "B", "C"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "A" || !slices.Equal(calls, []string{"C", "B", "A"}) {
		t.Errorf("Fold = %q with calls %v", got, calls)
	}
}

// chain returns the formula assets of A -> B -> C: A and B call their
// dependency, C is a leaf.
func chain() []Component[string] {
	return []Component[string]{
		{ID: "C", PresenceCondition: "true", Asset: "0.5"},
		{ID: "B", PresenceCondition: "Opt", Asset: "0.9 * r_C"},
		{ID: "A", PresenceCondition: "true", Asset: "0.8 * r_B"},
	}
}

func TestNumbers(t *testing.T) {
	d := Numbers(expr.NewSolver())

	got, err := FromMany(chain(), d, func(c Component[string]) (bool, error) { return true, nil })
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.36) > 1e-12 {
		t.Errorf("all present = %v, want 0.36", got)
	}

	got, err = FromMany(chain(), d, func(c Component[string]) (bool, error) { return c.ID != "B", nil })
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.8) > 1e-12 {
		t.Errorf("B absent = %v, want 0.8", got)
	}
}

func TestFamilyFormulas(t *testing.T) {
	d := FamilyFormulas()
	isPresent := func(c Component[string]) (presence.Symbolic, error) {
		kind := presence.Always
		if c.PresenceCondition != "true" {
			kind = presence.Conditional
		}
		return presence.Symbolic{Kind: kind, Condition: c.PresenceCondition, Variable: fdtmc.PresenceVar(c.ID)}, nil
	}

	formula, err := FromMany(chain(), d, isPresent)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(formula, "p_B") {
		t.Fatalf("family formula %q does not mention p_B", formula)
	}

	s := expr.NewSolver()
	for _, tt := range []struct {
		pB   float64
		want float64
	}{{1, 0.36}, {0, 0.8}} {
		got, err := s.Solve(formula, map[string]float64{"p_B": tt.pB})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("p_B=%v: %q = %v, want %v", tt.pB, formula, got, tt.want)
		}
	}
}

func TestSymbolicIf_Never(t *testing.T) {
	called := false
	got, err := SymbolicFormulaIf(presence.Symbolic{Kind: presence.Never}, func() (string, error) {
		called = true
		return "x", nil
	}, "1")
	if err != nil || got != "1" || called {
		t.Errorf("Never: got %q, called %v, err %v", got, called, err)
	}

	m, err := SymbolicModelIf(presence.Symbolic{Kind: presence.Never}, func() (*fdtmc.FDTMC, error) {
		called = true
		return nil, nil
	}, fdtmc.Trivial())
	if err != nil || called || m == nil {
		t.Errorf("Never model: called %v, err %v", called, err)
	}
}

func leafModel(p string) *fdtmc.FDTMC {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, succ, "", p)
	_ = m.AddTransition(init, fail, "", "1 - "+p)
	return m
}

func callerModel(dep, p string) *fdtmc.FDTMC {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	call := m.CreateState("call")
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, call, "", p)
	_ = m.AddTransition(init, fail, "", "1 - "+p)
	_, _ = m.CreateInterface(dep, call, succ, fail)
	return m
}

func TestModels(t *testing.T) {
	comps := []Component[*fdtmc.FDTMC]{
		{ID: "B", PresenceCondition: "Opt", Asset: leafModel("0.5")},
		{ID: "A", PresenceCondition: "true", Asset: callerModel("B", "0.8")},
	}
	ctx := context.Background()
	el := checker.NewEliminator()
	s := expr.NewSolver()

	for _, tt := range []struct {
		name    string
		present bool
		want    float64
	}{{"present", true, 0.4}, {"absent", false, 0.8}} {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromMany(comps, Models(), func(c Component[*fdtmc.FDTMC]) (bool, error) {
				return c.ID == "A" || tt.present, nil
			})
			if err != nil {
				t.Fatal(err)
			}
			formula, err := el.Reliability(ctx, m)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Solve(formula, nil)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("reliability = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFamilyModels(t *testing.T) {
	comps := []Component[*fdtmc.FDTMC]{
		{ID: "B", PresenceCondition: "Opt", Asset: leafModel("0.5")},
		{ID: "A", PresenceCondition: "true", Asset: callerModel("B", "0.8")},
	}
	m, err := FromMany(comps, FamilyModels(), func(c Component[*fdtmc.FDTMC]) (presence.Symbolic, error) {
		if c.ID == "B" {
			return presence.Symbolic{Kind: presence.Conditional, Variable: "p_B"}, nil
		}
		return presence.Symbolic{Kind: presence.Always, Variable: "p_A"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	formula, err := checker.NewEliminator().Reliability(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	s := expr.NewSolver()
	for pB, want := range map[float64]float64{1: 0.4, 0: 0.8} {
		got, err := s.Solve(formula, map[string]float64{"p_B": pB})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("p_B=%v: %q = %v, want %v", pB, formula, got, want)
		}
	}
}

func TestAll(t *testing.T) {
	derived, err := All(chain(), Numbers(expr.NewSolver()), func(c Component[string]) (bool, error) { return true, nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(derived) != 3 || math.Abs(derived["B"]-0.45) > 1e-12 {
		t.Errorf("All = %v", derived)
	}
}
