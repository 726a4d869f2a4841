package checker_test

import (
	"context"
	"math"
	"testing"

	"github.com/matzehuels/reana/pkg/cache"
	"github.com/matzehuels/reana/pkg/checker"
	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/expr"
	"github.com/matzehuels/reana/pkg/fdtmc"
)

func leaf(p string) *fdtmc.FDTMC {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, succ, "op", p)
	_ = m.AddTransition(init, fail, "op", "1 - "+p)
	return m
}

func caller(dep string) *fdtmc.FDTMC {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	call := m.CreateState("call")
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, call, "start", "0.9")
	_ = m.AddTransition(init, fail, "start", "0.1")
	_, _ = m.CreateInterface(dep, call, succ, fail)
	return m
}

func solve(t *testing.T, formula string, bindings map[string]float64) float64 {
	t.Helper()
	v, err := expr.NewSolver().Solve(formula, bindings)
	if err != nil {
		t.Fatalf("Solve(%q): %v", formula, err)
	}
	return v
}

func TestEliminator(t *testing.T) {
	ctx := context.Background()
	el := checker.NewEliminator()

	tests := []struct {
		name     string
		model    *fdtmc.FDTMC
		bindings map[string]float64
		want     float64
	}{
		{"trivial", fdtmc.Trivial(), nil, 1},
		{"leaf", leaf("0.8"), nil, 0.8},
		{"interface", caller("dep"), map[string]float64{"r_dep": 0.5}, 0.45},
		{"inlined", caller("dep").Inline(map[string]*fdtmc.FDTMC{"dep": leaf("0.8")}), nil, 0.72},
		{
			"switch present",
			fdtmc.Switch("p_a", leaf("0.8"), fdtmc.Trivial()),
			map[string]float64{"p_a": 1}, 0.8,
		},
		{
			"switch absent",
			fdtmc.Switch("p_a", leaf("0.8"), fdtmc.Trivial()),
			map[string]float64{"p_a": 0}, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formula, err := el.Reliability(ctx, tt.model)
			if err != nil {
				t.Fatalf("Reliability: %v", err)
			}
			if got := solve(t, formula, tt.bindings); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Reliability = %q = %v, want %v", formula, got, tt.want)
			}
		})
	}
}

func TestEliminator_Formulas(t *testing.T) {
	ctx := context.Background()
	el := checker.NewEliminator()

	tests := []struct {
		name  string
		model *fdtmc.FDTMC
		want  string
	}{
		{"trivial", fdtmc.Trivial(), "1"},
		{"leaf", leaf("0.8"), "0.8"},
		{"interface", caller("dep"), "0.9 * r_dep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := el.Reliability(ctx, tt.model)
			if err != nil {
				t.Fatalf("Reliability: %v", err)
			}
			if got != tt.want {
				t.Errorf("Reliability = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEliminator_SelfLoop(t *testing.T) {
	// init -> retry, retry loops with 0.5 and succeeds with 0.5.
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	retry := m.CreateState("retry")
	succ := m.CreateSuccessState("success")
	_ = m.AddTransition(init, retry, "", "1")
	_ = m.AddTransition(retry, retry, "", "0.5")
	_ = m.AddTransition(retry, succ, "", "0.5")

	got, err := checker.NewEliminator().Reliability(context.Background(), m)
	if err != nil {
		t.Fatalf("Reliability: %v", err)
	}
	if got != "1" {
		t.Errorf("Reliability = %q, want 1", got)
	}
}

func TestEliminator_InitialLoop(t *testing.T) {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	succ := m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, init, "", "r_a")
	_ = m.AddTransition(init, succ, "", "0.5 * (1 - r_a)")
	_ = m.AddTransition(init, fail, "", "0.5 * (1 - r_a)")

	got, err := checker.NewEliminator().Reliability(context.Background(), m)
	if err != nil {
		t.Fatalf("Reliability: %v", err)
	}
	if v := solve(t, got, map[string]float64{"r_a": 0.3}); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("Reliability = %q = %v, want 0.5", got, v)
	}
}

func TestEliminator_Unreachable(t *testing.T) {
	m := fdtmc.New()
	init := m.CreateInitialState("init")
	m.CreateSuccessState("success")
	fail := m.CreateErrorState("error")
	_ = m.AddTransition(init, fail, "", "1")

	got, err := checker.NewEliminator().Reliability(context.Background(), m)
	if err != nil {
		t.Fatalf("Reliability: %v", err)
	}
	if got != "0" {
		t.Errorf("Reliability = %q, want 0", got)
	}
}

func TestEliminator_InvalidModel(t *testing.T) {
	m := fdtmc.New()
	m.CreateInitialState("init")

	_, err := checker.NewEliminator().Reliability(context.Background(), m)
	if !errors.Is(err, errors.ErrCodeModelChecker) {
		t.Fatalf("error = %v, want MODEL_CHECKER_FAILED", err)
	}
}

func TestEliminator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := checker.NewEliminator().Reliability(ctx, caller("dep"))
	if err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestEliminator_Deterministic(t *testing.T) {
	ctx := context.Background()
	el := checker.NewEliminator()
	build := func() *fdtmc.FDTMC {
		return fdtmc.Switch("p_b", caller("a"), fdtmc.Trivial())
	}

	first, err := el.Reliability(ctx, build())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := el.Reliability(ctx, build())
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	calls := 0
	inner := checker.Func(func(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
		calls++
		return checker.NewEliminator().Reliability(ctx, m)
	})

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := checker.NewCached(inner, fc, nil)

	for i := 0; i < 3; i++ {
		got, err := c.Reliability(ctx, leaf("0.8"))
		if err != nil {
			t.Fatalf("Reliability: %v", err)
		}
		if got != "0.8" {
			t.Errorf("Reliability = %q, want 0.8", got)
		}
	}
	if calls != 1 {
		t.Errorf("inner checker called %d times, want 1", calls)
	}
	if c.Hits() != 2 || c.Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", c.Hits(), c.Misses())
	}
}

func TestCached_NullCache(t *testing.T) {
	calls := 0
	inner := checker.Func(func(ctx context.Context, m *fdtmc.FDTMC) (string, error) {
		calls++
		return "1", nil
	})
	c := checker.NewCached(inner, nil, nil)
	for i := 0; i < 2; i++ {
		if _, err := c.Reliability(context.Background(), fdtmc.Trivial()); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("inner checker called %d times, want 2", calls)
	}
}
