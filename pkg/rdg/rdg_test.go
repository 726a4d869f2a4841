package rdg

import (
	goerrors "errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/reana/pkg/errors"
)

// build creates a graph from an adjacency list. The first ID is the root.
func build(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, id := range ids {
		if _, err := g.AddNode(id, "true", nil); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddDependency(e[0], e[1]); err != nil {
			t.Fatalf("AddDependency(%q, %q): %v", e[0], e[1], err)
		}
	}
	return g
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func node(t *testing.T, g *Graph, id string) *Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n
}

func diamond(t *testing.T) *Graph {
	return build(t, []string{"A", "B", "C", "D"}, [][2]string{
		{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"},
	})
}

func TestTransitiveDependencies(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		from  string
		want  []string
	}{
		{
			name: "leaf",
			ids:  []string{"A"},
			from: "A",
			want: []string{},
		},
		{
			name:  "chain",
			ids:   []string{"A", "B", "C"},
			edges: [][2]string{{"A", "B"}, {"B", "C"}},
			from:  "A",
			want:  []string{"C", "B"},
		},
		{
			name:  "diamond",
			ids:   []string{"A", "B", "C", "D"},
			edges: [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
			from:  "A",
			want:  []string{"D", "B", "C"},
		},
		{
			name:  "sibling order",
			ids:   []string{"A", "B", "C", "D"},
			edges: [][2]string{{"A", "C"}, {"A", "B"}, {"A", "D"}},
			from:  "A",
			want:  []string{"C", "B", "D"},
		},
		{
			name:  "shared deep dependency",
			ids:   []string{"A", "B", "C", "D", "E"},
			edges: [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "E"}, {"E", "D"}},
			from:  "A",
			want:  []string{"D", "B", "E", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			got, err := node(t, g, tt.from).TransitiveDependencies()
			if err != nil {
				t.Fatalf("TransitiveDependencies: %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("TransitiveDependencies() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestTransitiveDependencies_PostOrder(t *testing.T) {
	g := build(t, []string{"A", "B", "C", "D", "E"}, [][2]string{
		{"A", "B"}, {"A", "E"}, {"B", "C"}, {"C", "D"}, {"E", "C"}, {"E", "D"},
	})
	closure, err := node(t, g, "A").TransitiveDependencies()
	if err != nil {
		t.Fatal(err)
	}

	pos := make(map[*Node]int)
	for i, n := range closure {
		pos[n] = i
	}
	for _, n := range closure {
		for _, d := range n.Dependencies() {
			if pos[d] >= pos[n] {
				t.Errorf("%s appears before its dependency %s", n.ID(), d.ID())
			}
		}
	}
}

func TestTransitiveDependencies_Memoized(t *testing.T) {
	g := diamond(t)
	a := node(t, g, "A")

	first, err := a.TransitiveDependencies()
	if err != nil {
		t.Fatal(err)
	}
	b := node(t, g, "B")
	if b.closure == nil {
		t.Error("closure of B was not memoized while computing A")
	}

	// The caller owns the returned slice.
	first[0] = nil
	second, err := a.TransitiveDependencies()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(second), []string{"D", "B", "C"}) {
		t.Errorf("memoized closure corrupted: %v", ids(second))
	}
}

func TestTransitiveDependencies_Concurrent(t *testing.T) {
	var names []string
	var edges [][2]string
	for i := 0; i < 20; i++ {
		names = append(names, string(rune('a'+i)))
	}
	for i := 0; i < 20; i++ {
		for j := i + 1; j < 20 && j <= i+3; j++ {
			edges = append(edges, [2]string{names[i], names[j]})
		}
	}
	g := build(t, names, edges)
	root := node(t, g, "a")

	want, err := build(t, names, edges).Nodes()[0].TransitiveDependencies()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([][]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Start from different nodes to race on shared sub-closures.
			_, _ = g.Nodes()[i%len(names)].TransitiveDependencies()
			got, err := root.TransitiveDependencies()
			if err == nil {
				results[i] = ids(got)
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if !slices.Equal(r, ids(want)) {
			t.Errorf("goroutine %d: closure = %v, want %v", i, r, ids(want))
		}
	}
}

func TestTransitiveDependencies_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		from  string
		path  []string
	}{
		{
			name:  "self loop",
			ids:   []string{"A"},
			edges: [][2]string{{"A", "A"}},
			from:  "A",
			path:  []string{"A", "A"},
		},
		{
			name:  "two nodes",
			ids:   []string{"A", "B"},
			edges: [][2]string{{"A", "B"}, {"B", "A"}},
			from:  "A",
			path:  []string{"A", "B", "A"},
		},
		{
			name:  "below root",
			ids:   []string{"R", "A", "B", "C"},
			edges: [][2]string{{"R", "A"}, {"A", "B"}, {"B", "C"}, {"C", "A"}},
			from:  "R",
			path:  []string{"A", "B", "C", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			n := node(t, g, tt.from)

			_, err := n.TransitiveDependencies()
			var cyc *errors.CyclicDependencyError
			if !goerrors.As(err, &cyc) {
				t.Fatalf("error = %v, want CyclicDependencyError", err)
			}
			if !slices.Equal(cyc.Path, tt.path) {
				t.Errorf("cycle path = %v, want %v", cyc.Path, tt.path)
			}
			if !errors.Is(err, errors.ErrCodeCyclicDependency) {
				t.Errorf("error code = %v", errors.GetCode(err))
			}
			for _, m := range g.Nodes() {
				if m.closure != nil {
					t.Errorf("closure of %s published despite cycle", m.ID())
				}
			}
			if _, err := n.NumberOfPaths(); !errors.Is(err, errors.ErrCodeCyclicDependency) {
				t.Errorf("NumberOfPaths error = %v, want CYCLIC_DEPENDENCY", err)
			}
		})
	}
}

func TestNumberOfPaths(t *testing.T) {
	g := diamond(t)
	paths, err := node(t, g, "A").NumberOfPaths()
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]int{"A": 1, "B": 1, "C": 1, "D": 2}
	if len(paths) != len(want) {
		t.Fatalf("got %d entries, want %d", len(paths), len(want))
	}
	for n, p := range paths {
		if want[n.ID()] != p {
			t.Errorf("paths[%s] = %d, want %d", n.ID(), p, want[n.ID()])
		}
	}

	// 5 path evaluations for 4 nodes.
	if got := EvaluationEconomy(paths); math.Abs(got-20) > 1e-9 {
		t.Errorf("EvaluationEconomy = %v, want 20", got)
	}
}

func TestEvaluationEconomy_Empty(t *testing.T) {
	if got := EvaluationEconomy(nil); got != 0 {
		t.Errorf("EvaluationEconomy(nil) = %v, want 0", got)
	}
}

func TestGraph_Errors(t *testing.T) {
	g := New()
	if _, err := g.Root(); !goerrors.Is(err, ErrNoRoot) {
		t.Errorf("Root() on empty graph = %v, want ErrNoRoot", err)
	}
	if _, err := g.AddNode("", "true", nil); !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("AddNode(empty) = %v, want INVALID_GRAPH", err)
	}
	if _, err := g.AddNode("sql-lite", "true", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode("sql-lite", "true", nil); !goerrors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate AddNode = %v, want ErrDuplicateNodeID", err)
	}
	if _, err := g.AddNode("sql_lite", "true", nil); !goerrors.Is(err, ErrVariableCollision) {
		t.Errorf("colliding AddNode = %v, want ErrVariableCollision", err)
	}
	if err := g.AddDependency("sql-lite", "missing"); !goerrors.Is(err, ErrUnknownNode) {
		t.Errorf("AddDependency to missing = %v, want ErrUnknownNode", err)
	}
	if err := g.SetRoot("missing"); !goerrors.Is(err, ErrUnknownNode) {
		t.Errorf("SetRoot(missing) = %v, want ErrUnknownNode", err)
	}
}

func TestGraph_Defaults(t *testing.T) {
	g := New()
	a, _ := g.AddNode("A", "", nil)
	b, _ := g.AddNode("B", "Sensor", nil)
	_ = g.AddDependency("A", "B")
	_ = g.AddDependency("A", "B")

	if a.PresenceCondition() != "true" {
		t.Errorf("default presence = %q, want true", a.PresenceCondition())
	}
	if a.Model() == nil {
		t.Error("default model is nil")
	}
	if deps := a.Dependencies(); len(deps) != 1 || deps[0] != b {
		t.Errorf("Dependencies() = %v, want [B]", deps)
	}
	if root, _ := g.Root(); root != a {
		t.Errorf("Root() = %v, want A", root)
	}
	if err := g.SetRoot("B"); err != nil {
		t.Fatal(err)
	}
	if root, _ := g.Root(); root != b {
		t.Errorf("Root() after SetRoot = %v, want B", root)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}
