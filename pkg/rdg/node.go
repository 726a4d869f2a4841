package rdg

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/reana/pkg/errors"
	"github.com/matzehuels/reana/pkg/fdtmc"
)

// Node is a component of the reliability dependence graph.
//
// A node carries the presence condition under which the component is part of
// a product, the component's reliability model and ordered references to the
// nodes it depends on. Nodes are created by a [Graph] and compared by pointer
// identity. Apart from the lazily computed transitive closure they are
// immutable once the graph is built.
type Node struct {
	id       string
	presence string
	model    *fdtmc.FDTMC
	deps     []*Node

	mu      sync.Mutex
	closure []*Node     // published once, guarded by mu
	acyclic atomic.Bool // no cycle is reachable from this node
}

// ID returns the unique identifier of the node.
func (n *Node) ID() string { return n.id }

// PresenceCondition returns the boolean formula over feature names under
// which the component is present. Mandatory components have "true".
func (n *Node) PresenceCondition() string { return n.presence }

// Model returns the reliability model of the component. Models may be shared
// between nodes and must not be modified.
func (n *Node) Model() *fdtmc.FDTMC { return n.model }

// Dependencies returns the direct dependencies in declaration order.
func (n *Node) Dependencies() []*Node { return slices.Clone(n.deps) }

// String returns the node ID.
func (n *Node) String() string { return n.id }

// TransitiveDependencies returns every node reachable from n, excluding n,
// in post-order: each node appears after all of its own dependencies, and
// siblings keep their declaration order. Each node appears once.
//
// The result is memoized per node and reused by the computation of every
// ancestor's closure. Concurrent first calls compute the closure of each node
// at most once. If the graph below n contains a cycle, a
// [errors.CyclicDependencyError] naming the cycle is returned before anything
// is memoized.
func (n *Node) TransitiveDependencies() ([]*Node, error) {
	if err := n.checkAcyclic(); err != nil {
		return nil, err
	}
	return slices.Clone(n.transitiveClosure()), nil
}

// transitiveClosure computes and memoizes the closure of an acyclic node.
// Locks are taken parent before child along dependency edges, which cannot
// deadlock on an acyclic graph.
func (n *Node) transitiveClosure() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closure != nil {
		return n.closure
	}

	seen := make(map[*Node]bool)
	closure := make([]*Node, 0)
	visit := func(d *Node) {
		if !seen[d] {
			seen[d] = true
			closure = append(closure, d)
		}
	}
	for _, d := range n.deps {
		for _, dd := range d.transitiveClosure() {
			visit(dd)
		}
		visit(d)
	}
	n.closure = closure
	return closure
}

// checkAcyclic verifies that no cycle is reachable from n, using depth-first
// search with white/gray/black coloring. Nodes proven acyclic are remembered
// and skipped by later checks.
func (n *Node) checkAcyclic() error {
	if n.acyclic.Load() {
		return nil
	}

	const (
		white = iota
		gray
		black
	)

	color := make(map[*Node]int)
	var stack []*Node

	var dfs func(node *Node) error
	dfs = func(node *Node) error {
		color[node] = gray
		stack = append(stack, node)
		for _, child := range node.deps {
			if child.acyclic.Load() {
				continue
			}
			switch color[child] {
			case white:
				if err := dfs(child); err != nil {
					return err
				}
			case gray:
				return &errors.CyclicDependencyError{Path: cyclePath(stack, child)}
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
		node.acyclic.Store(true)
		return nil
	}
	return dfs(n)
}

// cyclePath returns the IDs of the cycle closed by an edge from the top of
// stack back to target, starting and ending at target.
func cyclePath(stack []*Node, target *Node) []string {
	start := slices.Index(stack, target)
	path := make([]string, 0, len(stack)-start+1)
	for _, s := range stack[start:] {
		path = append(path, s.id)
	}
	return append(path, target.id)
}

// NumberOfPaths returns, for n and every node reachable from it, the number
// of distinct dependency paths from n to that node. n itself counts 1.
// Counts are computed bottom-up over the closure, so shared sub-graphs are
// visited once per path count rather than once per path.
func (n *Node) NumberOfPaths() (map[*Node]int, error) {
	deps, err := n.TransitiveDependencies()
	if err != nil {
		return nil, err
	}

	// Reverse post-order visits every node before its dependencies.
	order := append(deps, n)
	slices.Reverse(order)

	paths := map[*Node]int{n: 1}
	for _, node := range order {
		for _, d := range node.deps {
			paths[d] += paths[node]
		}
	}
	return paths, nil
}
