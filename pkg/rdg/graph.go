package rdg

import (
	goerrors "errors"
	"slices"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/fdtmc"
)

var (
	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = goerrors.New("duplicate node ID")

	// ErrUnknownNode is returned by [Graph.AddDependency] and [Graph.SetRoot]
	// when an endpoint does not exist in the graph.
	ErrUnknownNode = goerrors.New("unknown node")

	// ErrVariableCollision is returned by [Graph.AddNode] when two IDs map to
	// the same formula variable, e.g. "sql-lite" and "sql_lite".
	ErrVariableCollision = goerrors.New("node IDs map to the same variable")

	// ErrNoRoot is returned by [Graph.Root] when the graph has no root.
	ErrNoRoot = goerrors.New("graph has no root")
)

// Graph is the arena owning the nodes of a reliability dependence graph.
//
// Nodes are stored by ID and keep insertion order. Dependencies are
// non-owning references between nodes of the same graph. The graph does not
// reject cycles when edges are added; they are detected by
// [Node.TransitiveDependencies] when the graph is analyzed.
type Graph struct {
	nodes map[string]*Node
	order []*Node
	vars  map[string]string // sanitized variable -> node ID
	root  *Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		vars:  make(map[string]string),
	}
}

// AddNode adds a component. The first node added is the root unless
// [Graph.SetRoot] selects another one. An empty presence condition means the
// component is mandatory.
func (g *Graph) AddNode(id, presence string, model *fdtmc.FDTMC) (*Node, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, err
	}
	if _, ok := g.nodes[id]; ok {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, ErrDuplicateNodeID, "add node %q", id)
	}
	v := fdtmc.Sanitize(id)
	if other, ok := g.vars[v]; ok {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, ErrVariableCollision, "add node %q (collides with %q)", id, other)
	}
	if model == nil {
		model = fdtmc.Trivial()
	}
	if presence == "" {
		presence = "true"
	}

	n := &Node{id: id, presence: presence, model: model}
	g.nodes[id] = n
	g.vars[v] = id
	g.order = append(g.order, n)
	if g.root == nil {
		g.root = n
	}
	return n, nil
}

// AddDependency records that from depends on to. Repeated edges are ignored.
func (g *Graph) AddDependency(from, to string) error {
	src, ok := g.nodes[from]
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidGraph, ErrUnknownNode, "dependency %q -> %q: source", from, to)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidGraph, ErrUnknownNode, "dependency %q -> %q: target", from, to)
	}
	if !slices.Contains(src.deps, dst) {
		src.deps = append(src.deps, dst)
	}
	return nil
}

// SetRoot selects the root component.
func (g *Graph) SetRoot(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidGraph, ErrUnknownNode, "root %q", id)
	}
	g.root = n
	return nil
}

// Root returns the root component.
func (g *Graph) Root() (*Node, error) {
	if g.root == nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, ErrNoRoot, "root")
	}
	return g.root, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.order) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EvaluationEconomy returns the share of evaluations, in percent, saved by
// memoizing sub-results: every path to a node would evaluate it once without
// reuse, while memoization evaluates it once in total.
func EvaluationEconomy(paths map[*Node]int) float64 {
	total := 0
	for _, p := range paths {
		total += p
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(total-len(paths)) / float64(total)
}
